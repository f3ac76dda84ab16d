package llm

import "encoding/json"

// ChatResponse represents a chat completion response (OpenAI-compatible).
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`  // "chat.completion"
	Created int64    `json:"created"` // Unix seconds
	Model   string   `json:"model"`   // Model that generated the response
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`

	// Raw is the body exactly as the provider sent it. When set it is what
	// the response marshals to, so fields not declared above are kept.
	Raw json.RawMessage `json:"-"`
}

// MarshalJSON returns Raw when present and the declared fields otherwise.
func (r ChatResponse) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain ChatResponse
	return json.Marshal(plain(r))
}

// Choice is a single generated alternative.
type Choice struct {
	Index        int          `json:"index"`
	Message      ReplyMessage `json:"message"`
	FinishReason string       `json:"finish_reason"`
}

// ReplyMessage is an assistant message as returned by the provider.
type ReplyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Text returns the content of the first choice, or "" if there is none.
func (r *ChatResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}
