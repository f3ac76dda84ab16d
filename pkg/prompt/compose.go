package prompt

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"github.com/papercomputeco/lookbook/pkg/llm"
)

// Mode selects how variables are substituted into the user prompt.
type Mode string

const (
	// ModeLiteral replaces raw key substrings, in variable order.
	ModeLiteral Mode = "literal"

	// ModeTemplate renders the user prompt as a text/template, e.g. {{.items_list}}.
	// Referencing an unknown key is an error.
	ModeTemplate Mode = "template"
)

// ErrInvalidImageURL is returned when the image reference is not an absolute
// http(s) or data URL.
var ErrInvalidImageURL = errors.New("invalid image url")

// ParseMode parses a mode name. The empty string is ModeLiteral.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLiteral:
		return ModeLiteral, nil
	case ModeTemplate:
		return ModeTemplate, nil
	default:
		return "", fmt.Errorf("unknown prompt mode %q", s)
	}
}

// Composer builds chat message lists.
type Composer struct {
	mode Mode
}

// NewComposer returns a Composer using mode. An empty mode means ModeLiteral.
func NewComposer(mode Mode) *Composer {
	if mode == "" {
		mode = ModeLiteral
	}
	return &Composer{mode: mode}
}

// Mode reports the substitution mode.
func (c *Composer) Mode() Mode {
	return c.mode
}

// Compose returns [system, user]. Without an image reference the user message
// is plain text. With one it is a text part followed by an image part carrying
// the URL and the "high" detail hint.
func (c *Composer) Compose(system, userTemplate string, vars Variables, imageURL string) ([]llm.Message, error) {
	user, err := c.Render(userTemplate, vars)
	if err != nil {
		return nil, err
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: system},
	}

	if imageURL == "" {
		return append(messages, llm.Message{Role: llm.RoleUser, Content: user}), nil
	}

	if err := ValidateImageURL(imageURL); err != nil {
		return nil, err
	}

	return append(messages, llm.Message{
		Role: llm.RoleUser,
		Content: []llm.ContentPart{
			llm.TextPart(user),
			llm.ImagePart(imageURL, llm.DetailHigh),
		},
	}), nil
}

// Render substitutes vars into the user prompt according to the composer's mode.
func (c *Composer) Render(userTemplate string, vars Variables) (string, error) {
	if c.mode != ModeTemplate {
		return vars.Replace(userTemplate), nil
	}

	tmpl, err := template.New("user").Option("missingkey=error").Parse(userTemplate)
	if err != nil {
		return "", fmt.Errorf("parse user prompt template: %w", err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, vars.Map()); err != nil {
		return "", fmt.Errorf("render user prompt template: %w", err)
	}
	return b.String(), nil
}

// ValidateImageURL checks that ref is an absolute http, https or data URL.
func ValidateImageURL(ref string) error {
	u, err := url.Parse(ref)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImageURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("%w: missing host in %q", ErrInvalidImageURL, ref)
		}
		return nil
	case "data":
		return nil
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidImageURL, u.Scheme)
	}
}
