package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/pkg/images"
	"github.com/papercomputeco/lookbook/pkg/llm"
	"github.com/papercomputeco/lookbook/pkg/upload"
)

// formField is the multipart field carrying the selected images.
const formField = "images"

var errNoFiles = errors.New("no image files selected")

// UploadResult is the rendered outcome for one file.
type UploadResult struct {
	Name    string `json:"name"`
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Link    string `json:"link,omitempty"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

type page struct {
	Accept  string
	Error   string
	Results []UploadResult
}

func newUploadResult(r upload.Result) UploadResult {
	out := UploadResult{Name: r.Name, ID: r.ID}
	if r.Err != nil {
		out.Error = r.Err.Error()
		return out
	}

	out.ID = r.Record.ID
	out.Title = r.Record.Title
	out.Link = r.Record.Link
	if r.StoreErr != nil {
		out.Warning = "metadata not recorded: " + r.StoreErr.Error()
	}
	return out
}

// handleForm renders the empty upload form.
func (s *Server) handleForm(c *fiber.Ctx) error {
	return s.renderPage(c, fiber.StatusOK, page{})
}

// handleUploadForm runs the workflow over the submitted files and renders a
// result block per file. Per-file failures render as inline banners.
func (s *Server) handleUploadForm(c *fiber.Ctx) error {
	files, err := readFiles(c)
	if err != nil {
		return s.renderPage(c, fiber.StatusBadRequest, page{Error: err.Error()})
	}

	results := s.runUpload(c, files)
	return s.renderPage(c, fiber.StatusOK, page{Results: results})
}

// handleUploadAPI is the JSON flavor of handleUploadForm.
func (s *Server) handleUploadAPI(c *fiber.Ctx) error {
	files, err := readFiles(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	results := s.runUpload(c, files)
	return c.JSON(map[string]any{
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) runUpload(c *fiber.Ctx, files []upload.File) []UploadResult {
	s.logger.Debug("received upload", zap.Int("file_count", len(files)))

	results := s.runner.Run(c.UserContext(), files)

	out := make([]UploadResult, 0, len(results))
	for _, r := range results {
		out = append(out, newUploadResult(r))
	}
	return out
}

func (s *Server) renderPage(c *fiber.Ctx, status int, p page) error {
	p.Accept = strings.Join(images.Extensions, ",")

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		s.logger.Error("failed to render page", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("internal error")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}

// readFiles loads every file in the images field of a multipart request.
func readFiles(c *fiber.Ctx) ([]upload.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errNoFiles
	}

	headers := form.File[formField]
	if len(headers) == 0 {
		return nil, errNoFiles
	}

	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, upload.File{Name: fh.Filename, Data: data})
	}
	return files, nil
}
