// Package llm provides the wire representations of OpenAI-compatible chat
// completion requests and responses.
package llm

// ErrorResponse is the JSON error body returned by lookbook's own HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIErrorBody is the error envelope returned by OpenAI-compatible providers.
type APIErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}
