package model

// FormResponse is the uniform result of every submit-style operation.
// It is a value type and is never mutated once produced.
type FormResponse struct {
	Success bool                   `json:"success"`
	Errors  map[string][]string    `json:"errors,omitempty"`
	Extra   map[string]interface{} `json:"extra,omitempty"`
}

// SuccessResponse builds a successful FormResponse with optional extras
func SuccessResponse(extra map[string]interface{}) FormResponse {
	return FormResponse{Success: true, Extra: extra}
}

// FailureResponse builds a failed FormResponse carrying field errors
func FailureResponse(errors map[string][]string, extra map[string]interface{}) FormResponse {
	return FormResponse{Success: false, Errors: errors, Extra: extra}
}
