package llm

// ChatRequest represents a chat completion request (OpenAI-compatible).
type ChatRequest struct {
	Model    string    `json:"model"`    // Model name (e.g., "gpt-4o")
	Messages []Message `json:"messages"` // Conversation history

	// Sampling parameters
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`

	// Length parameters
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Output constraint, only sent when explicitly requested
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}
