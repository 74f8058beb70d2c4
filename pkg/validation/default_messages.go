package validation

import (
	"fmt"
)

func DefaultMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "numeric":
		return fmt.Sprintf("%s must be numeric", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, param)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "alphanum":
		return fmt.Sprintf("%s may only contain letters and digits", field)
	case "boolean":
		return fmt.Sprintf("%s must be true or false", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date in the %s format", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "role":
		return fmt.Sprintf("%s is not a valid role", field)
	case "mediatype":
		return fmt.Sprintf("%s is not a valid media type", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
