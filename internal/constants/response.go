package constants

const (
	ResponseFieldMessage = "message"
	ResponseFieldDetails = "details"
	ResponseFieldCode    = "code"
)

// BuildListResponse is the paged envelope shared by every list endpoint.
func BuildListResponse(total int64, page int, pageTotal int, data any) map[string]any {
	return map[string]any{
		"total":      total,
		"page":       page,
		"page_total": pageTotal,
		"data":       data,
	}
}

func BuildErrorResponse(message string, details any) map[string]any {
	response := map[string]any{ResponseFieldMessage: message}
	if details != nil {
		response[ResponseFieldDetails] = details
	}
	return response
}

// BuildCodedErrorResponse adds the machine readable domain code next to the message.
func BuildCodedErrorResponse(code, message string) map[string]any {
	return map[string]any{
		ResponseFieldMessage: message,
		ResponseFieldCode:    code,
	}
}

func BuildSuccessResponse(message string) map[string]any {
	return map[string]any{ResponseFieldMessage: message}
}
