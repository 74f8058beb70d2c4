package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateData is rendered into the layout.
type TemplateData struct {
	AppName     string
	Subject     string
	Description string
	Action      string
	ActionURL   string
	Message     string
	BtnText     string
}

const layout = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{ .Subject | trim }}</title></head>
<body style="font-family: Arial, sans-serif; background:#f5f6f8; margin:0; padding:24px;">
  <div style="max-width:560px; margin:0 auto; background:#ffffff; border-radius:8px; padding:24px;">
    <h2 style="margin-top:0;">{{ .Subject | trim }}</h2>
    {{- with .Description }}
    <p>{{ . }}</p>
    {{- end }}
    {{- with .Message }}
    <p>{{ . }}</p>
    {{- end }}
    {{- if .ActionURL }}
    <p>{{ default "Click the button below to continue." .Action }}</p>
    <p style="text-align:center;">
      <a href="{{ .ActionURL }}" style="display:inline-block; padding:12px 24px; background:#0b5cff; color:#ffffff; text-decoration:none; border-radius:4px;">{{ default "Open" .BtnText | upper }}</a>
    </p>
    <p style="font-size:12px; color:#666;">{{ .ActionURL | trunc 200 }}</p>
    {{- end }}
    <hr style="border:none; border-top:1px solid #eee;">
    <p style="font-size:12px; color:#999;">&copy; {{ now | date "2006" }} {{ .AppName }}</p>
  </div>
</body>
</html>`

// Renderer renders the shared HTML layout with sprig helpers.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("layout").Funcs(sprig.HtmlFuncMap()).Parse(layout)
	if err != nil {
		return nil, fmt.Errorf("parse email layout: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Render(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}
