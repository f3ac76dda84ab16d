// Package imgur uploads images to the Imgur API.
package imgur

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/pkg/metadata"
)

// DefaultBaseURL is the Imgur API root.
const DefaultBaseURL = "https://api.imgur.com/3"

// Config is the Imgur client configuration.
type Config struct {
	// ClientID authenticates anonymous uploads ("Client-ID <id>")
	ClientID string

	// ClientSecret is only needed for OAuth flows, which lookbook doesn't use
	ClientSecret string

	// BaseURL is the API root (e.g., "https://api.imgur.com/3")
	BaseURL string

	// Timeout bounds a single upload. Zero means no client-side timeout.
	Timeout time.Duration
}

// Image is a local file to upload.
type Image struct {
	Name        string
	Data        []byte
	ContentType string
}

// StatusError is returned when the upload endpoint answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to upload image: status code %d", e.StatusCode)
}

// uploadResponse is the Imgur envelope for image endpoints.
type uploadResponse struct {
	Data    imageData `json:"data"`
	Success bool      `json:"success"`
	Status  int       `json:"status"`
}

type imageData struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Datetime    int64   `json:"datetime"`
	Type        string  `json:"type"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Size        int64   `json:"size"`
	DeleteHash  string  `json:"deletehash"`
	Link        string  `json:"link"`
}

// Client uploads images to Imgur.
type Client struct {
	config     Config
	logger     *zap.Logger
	httpClient *http.Client
}

// New creates a new Client.
func New(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Upload posts img with the given title and returns the hosted image's
// metadata. The record's ID is the title.
func (c *Client) Upload(ctx context.Context, img Image, title string) (*metadata.Record, error) {
	body, contentType, err := encodeForm(img, title)
	if err != nil {
		return nil, fmt.Errorf("encode upload form: %w", err)
	}

	url := c.config.BaseURL + "/image"
	c.logger.Debug("uploading image",
		zap.String("url", url),
		zap.String("name", img.Name),
		zap.String("title", title),
		zap.Int("bytes", len(img.Data)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Client-ID "+c.config.ClientID)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		c.logger.Error("image host rejected upload",
			zap.String("name", img.Name),
			zap.Int("status", httpResp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return nil, &StatusError{StatusCode: httpResp.StatusCode, Body: string(respBody)}
	}

	var resp uploadResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	rec := resp.Data.record(title)
	c.logger.Info("image uploaded",
		zap.String("id", rec.ID),
		zap.String("host_id", rec.HostID),
		zap.String("link", rec.Link),
	)
	return rec, nil
}

func (d imageData) record(id string) *metadata.Record {
	rec := &metadata.Record{
		ID:          id,
		HostID:      d.ID,
		DeleteHash:  d.DeleteHash,
		Title:       deref(d.Title),
		Description: deref(d.Description),
		Type:        d.Type,
		Width:       d.Width,
		Height:      d.Height,
		Size:        d.Size,
		Link:        d.Link,
		CreatedAt:   time.Now().UTC(),
	}
	if d.Datetime > 0 {
		rec.CreatedAt = time.Unix(d.Datetime, 0).UTC()
	}
	return rec
}

// encodeForm builds the multipart body with the image, title and type fields.
func encodeForm(img Image, title string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	contentType := img.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, img.Name))
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}

	if err := writer.WriteField("title", title); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("type", "image"); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
