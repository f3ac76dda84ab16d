package llm

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content part types.
const (
	PartText     = "text"
	PartImageURL = "image_url"
)

// DetailHigh is the image detail hint attached to every composed image reference.
const DetailHigh = "high"

// Message represents a single message in a conversation.
//
// Content holds either a string (plain text) or a []ContentPart (multimodal).
type Message struct {
	Role    string `json:"role"`    // "system", "user", "assistant"
	Content any    `json:"content"` // string or []ContentPart
}

// ContentPart is one block of a multimodal message.
type ContentPart struct {
	Type     string    `json:"type"`                // "text" or "image_url"
	Text     string    `json:"text,omitempty"`      // Set when Type is "text"
	ImageURL *ImageURL `json:"image_url,omitempty"` // Set when Type is "image_url"
}

// ImageURL references an image by URL, with a provider detail hint.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"` // "low", "high" or "auto"
}

// TextPart returns a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// ImagePart returns an image_url content part with the given detail hint.
func ImagePart(url, detail string) ContentPart {
	return ContentPart{Type: PartImageURL, ImageURL: &ImageURL{URL: url, Detail: detail}}
}

// Text returns the message content when it is plain text.
func (m Message) Text() (string, bool) {
	s, ok := m.Content.(string)
	return s, ok
}

// Parts returns the message content when it is a multimodal part list.
func (m Message) Parts() ([]ContentPart, bool) {
	p, ok := m.Content.([]ContentPart)
	return p, ok
}
