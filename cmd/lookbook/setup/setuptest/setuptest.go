// Package setuptest provides fixtures for exercising lookbook subcommands
// against fake providers.
package setuptest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/papercomputeco/lookbook/pkg/llm"
)

// Fixture describes the config file written by WriteConfig.
type Fixture struct {
	OpenAIURL  string
	Model      string
	ImgurURL   string
	StoreDrv   string
	StorePath  string
	PromptMode string
}

// WriteConfig writes a TOML config for f into dir and returns its path.
func WriteConfig(dir string, f Fixture) (string, error) {
	var b strings.Builder
	if f.OpenAIURL != "" {
		fmt.Fprintf(&b, "[openai]\napi_key = %q\nmodel = %q\nbase_url = %q\n", "sk-test", f.Model, f.OpenAIURL)
		if f.PromptMode != "" {
			fmt.Fprintf(&b, "prompt_mode = %q\n", f.PromptMode)
		}
	}
	if f.ImgurURL != "" {
		fmt.Fprintf(&b, "[imgur]\nclient_id = %q\nbase_url = %q\n", "client-test", f.ImgurURL)
	}
	driver := f.StoreDrv
	if driver == "" {
		driver = "json"
	}
	fmt.Fprintf(&b, "[store]\ndriver = %q\npath = %q\n", driver, f.StorePath)

	path := filepath.Join(dir, "lookbook.toml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WritePNG writes a small valid PNG to dir/name and returns its path.
func WritePNG(dir, name string) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	return path, os.WriteFile(path, buf.Bytes(), 0o644)
}

// Imgur is a fake image host. Each upload is answered with a link derived
// from the posted title.
type Imgur struct {
	*httptest.Server

	mu     sync.Mutex
	titles []string
	status int
}

// SetStatus makes later uploads fail with status. Zero restores success.
func (f *Imgur) SetStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// NewImgur starts a fake image host.
func NewImgur() *Imgur {
	f := &Imgur{}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// Titles returns the titles posted so far.
func (f *Imgur) Titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.titles...)
}

// Link is the public link the fake host returns for title.
func Link(title string) string {
	return "https://i.imgur.com/" + title + ".png"
}

func (f *Imgur) handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	title := r.FormValue("title")

	f.mu.Lock()
	f.titles = append(f.titles, title)
	status := f.status
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"data":{"error":"rejected"},"success":false}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": map[string]any{
			"id":         "host-" + title,
			"title":      title,
			"type":       "image/png",
			"width":      4,
			"height":     3,
			"size":       70,
			"deletehash": "del-" + title,
			"link":       Link(title),
		},
		"success": true,
		"status":  200,
	})
}

// Request is a chat request as received by the fake endpoint.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature"`
	MaxTokens   *int      `json:"max_tokens"`
}

// Message holds either Text or Parts, depending on the content shape sent.
type Message struct {
	Role  string
	Text  string
	Parts []llm.ContentPart
}

// UnmarshalJSON decodes content as a string or as a part list.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Role = raw.Role
	if err := json.Unmarshal(raw.Content, &m.Text); err == nil {
		return nil
	}
	return json.Unmarshal(raw.Content, &m.Parts)
}

// Fingerprint is the system_fingerprint the fake endpoint reports.
const Fingerprint = "fp_lookbook_test"

// OpenAI is a fake chat completion endpoint that records each request and
// answers with Reply.
type OpenAI struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request

	// Reply is the assistant message content
	Reply string
}

// NewOpenAI starts a fake chat completion endpoint.
func NewOpenAI(reply string) *OpenAI {
	f := &OpenAI{Reply: reply}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// Requests returns the chat requests received so far.
func (f *OpenAI) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

func (f *OpenAI) handle(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	// system_fingerprint and logprobs are not modelled by llm.ChatResponse
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":                 "chatcmpl-test",
		"object":             "chat.completion",
		"model":              req.Model,
		"system_fingerprint": Fingerprint,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": f.Reply},
			"logprobs":      nil,
			"finish_reason": "stop",
		}},
	})
}
