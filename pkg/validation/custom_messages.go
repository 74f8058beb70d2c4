package validation

// CustomMessage returns the per-tag messages of a request field, keyed by
// its JSON or form name.
func CustomMessage(field string) map[string]string {
	var customValidationMessages = map[string]map[string]string{
		"email": {
			"required": "email is required",
			"email":    "email must be a valid email address",
		},
		"password": {
			"required": "password is required",
			"min":      "password must be at least 6 characters",
			"max":      "password must be at most 128 characters",
		},
		"passwordConfirmation": {
			"required": "password confirmation is required",
			"eqfield":  "passwords do not match",
		},
		"refreshToken": {
			"required": "refresh token is required",
		},
		"role": {
			"role": "role must be one of ADMIN, COMPANY_MANAGER, EMPLOYEE, USER",
		},
		"type": {
			"mediatype": "type must be IMAGE or VIDEO",
		},
		"zip": {
			"max": "zip must be at most 5 characters",
		},
	}
	return customValidationMessages[field]
}
