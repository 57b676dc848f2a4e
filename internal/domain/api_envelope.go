package domain

// Common response envelope
type APIError struct {
	Code int    `json:"code,omitempty"`
	Text string `json:"text,omitempty"`
}

type APIEnvelope struct {
	Error    *APIError `json:"error,omitempty"`
	Response any       `json:"response,omitempty"`
	Data     any       `json:"data,omitempty"`
}

// Envelope builders
func OkResponse(resp any) APIEnvelope { return APIEnvelope{Response: resp} }
func OkData(data any) APIEnvelope     { return APIEnvelope{Data: data} }
func Fail(code int, text string) APIEnvelope {
	return APIEnvelope{Error: &APIError{Code: code, Text: text}}
}
