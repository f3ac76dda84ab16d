// Package images inspects local image files before they are uploaded.
package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Extensions accepted for upload.
var Extensions = []string{".png", ".jpg", ".jpeg"}

var allowed = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ErrUnsupportedType is returned for files that are not PNG or JPEG images,
// or whose content does not match their extension.
type ErrUnsupportedType struct {
	Name     string
	Detected string
}

func (e ErrUnsupportedType) Error() string {
	if e.Detected == "" {
		return fmt.Sprintf("unsupported image %s: allowed extensions are %s", e.Name, strings.Join(Extensions, ", "))
	}
	return fmt.Sprintf("unsupported image %s: detected %s", e.Name, e.Detected)
}

// Info describes an inspected image.
type Info struct {
	Name        string
	ContentType string
	Width       int
	Height      int
	Size        int64
}

// Allowed reports whether name has an accepted extension.
func Allowed(name string) bool {
	_, ok := allowed[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Inspect checks the extension of name, sniffs the content type of data and
// reads the pixel dimensions.
func Inspect(name string, data []byte) (*Info, error) {
	want, ok := allowed[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return nil, ErrUnsupportedType{Name: name}
	}

	detected := mimetype.Detect(data)
	if !detected.Is(want) {
		return nil, ErrUnsupportedType{Name: name, Detected: detected.String()}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	return &Info{
		Name:        name,
		ContentType: want,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Size:        int64(len(data)),
	}, nil
}
