package llm

// Options are explicit per-call overrides of the client's model settings.
// Unset fields leave the configured defaults in place.
type Options struct {
	Model          string          `json:"model,omitempty"`           // Override the configured model
	Temperature    *float64        `json:"temperature,omitempty"`     // Sampling temperature (0.0-2.0)
	TopP           *float64        `json:"top_p,omitempty"`           // Nucleus sampling threshold
	MaxTokens      *int            `json:"max_tokens,omitempty"`      // Max tokens to generate
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"` // e.g. {"type":"json_object"}
}

// ResponseFormat constrains the shape of the model output.
type ResponseFormat struct {
	Type string `json:"type"` // "text" or "json_object"
}

// Apply copies every set override onto req.
func (o *Options) Apply(req *ChatRequest) {
	if o == nil {
		return
	}

	if o.Model != "" {
		req.Model = o.Model
	}
	if o.Temperature != nil {
		req.Temperature = o.Temperature
	}
	if o.TopP != nil {
		req.TopP = o.TopP
	}
	if o.MaxTokens != nil {
		req.MaxTokens = o.MaxTokens
	}
	if o.ResponseFormat != nil {
		req.ResponseFormat = o.ResponseFormat
	}
}
