package model

// APIResponse is the envelope every REST endpoint returns. Success and Error
// are mutually exclusive.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta accompanies list responses.
type Meta struct {
	Count int `json:"count"`
}
