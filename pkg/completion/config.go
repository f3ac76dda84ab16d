package completion

import (
	"time"

	"github.com/papercomputeco/lookbook/pkg/prompt"
)

// DefaultBaseURL is the OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultTemperature is the low sampling temperature used for every request
// unless an override is supplied.
const DefaultTemperature = 0.1

// Config is the completion client configuration.
type Config struct {
	// APIKey is sent as a bearer token
	APIKey string

	// Model is the default model identifier (e.g., "gpt-4o")
	Model string

	// BaseURL is the provider API root, without the /chat/completions suffix
	BaseURL string

	// Temperature is the default sampling temperature (0 means DefaultTemperature)
	Temperature float64

	// Timeout bounds a single request. Zero means no client-side timeout.
	Timeout time.Duration

	// PromptMode selects literal or template variable substitution
	PromptMode prompt.Mode
}
