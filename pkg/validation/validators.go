package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/ahlanjobb/api/internal/model"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustom installs the role and mediatype tags on v and reports
// field names by their JSON (or form) name.
func RegisterCustom(v *validator.Validate) error {
	v.RegisterTagNameFunc(fieldName)

	if err := v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return model.Role(fl.Field().String()).IsValid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("mediatype", func(fl validator.FieldLevel) bool {
		return model.MediaType(fl.Field().String()).IsValid()
	})
}

// RegisterWithGin installs the custom tags on gin's binding validator.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return RegisterCustom(v)
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// Message renders one field error.
func Message(fe validator.FieldError) string {
	if fieldMessages := CustomMessage(fe.Field()); fieldMessages != nil {
		if msg, exists := fieldMessages[fe.Tag()]; exists {
			return msg
		}
	}
	return DefaultMessage(fe.Field(), fe.Tag(), fe.Param())
}

// Messages turns a binding error into readable messages. Errors that are
// not validation errors (malformed JSON, wrong types) are returned as is.
func Messages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Message(fe))
	}
	return out
}
