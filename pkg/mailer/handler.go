package mailer

import (
	"context"

	"github.com/ahlanjobb/api/pkg/queue"
)

// JobHandler renders queued email jobs with the layout and hands them to sender.
func JobHandler(renderer *Renderer, sender Sender, appName string) queue.Handler {
	return func(ctx context.Context, job queue.EmailJob) error {
		subject := job.Context.Subject
		if subject == "" {
			subject = job.EmailOptions.Subject
		}
		body, err := renderer.Render(TemplateData{
			AppName:     appName,
			Subject:     subject,
			Description: job.Context.Description,
			Action:      job.Context.Action,
			ActionURL:   job.Context.ActionURL,
			Message:     job.Context.Message,
			BtnText:     job.Context.BtnText,
		})
		if err != nil {
			return err
		}
		return sender.Send(ctx, Message{
			To:       job.EmailOptions.To,
			Subject:  job.EmailOptions.Subject,
			HTMLBody: body,
		})
	}
}
