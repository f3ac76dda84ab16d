package server

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/pkg/completion"
	"github.com/papercomputeco/lookbook/pkg/llm"
	"github.com/papercomputeco/lookbook/pkg/metadata"
)

// handleGenerate composes and submits a completion request, returning the
// provider's raw response.
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	var req completion.Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	s.logger.Debug("received generate request",
		zap.Int("variable_count", len(req.Variables)),
		zap.Bool("image", req.ImageURL != ""),
	)

	resp, err := s.generator.Generate(c.UserContext(), req)
	if err != nil {
		return c.Status(generateStatus(err)).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	if len(resp.Raw) > 0 {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(resp.Raw)
	}
	return c.JSON(resp)
}

func generateStatus(err error) int {
	var apiErr *completion.APIError
	switch {
	case errors.Is(err, completion.ErrCompose):
		return fiber.StatusBadRequest
	case errors.Is(err, completion.ErrMissingAPIKey):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &apiErr) && apiErr.StatusCode == fiber.StatusTooManyRequests:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusBadGateway
	}
}

// handleListImages returns every recorded image.
func (s *Server) handleListImages(c *fiber.Ctx) error {
	entries, err := s.storer.List(c.UserContext())
	if err != nil {
		s.logger.Error("failed to list images", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list images"})
	}

	return c.JSON(map[string]any{
		"count":  len(entries),
		"images": entries,
	})
}

// handleGetImage returns a single recorded image by ID.
func (s *Server) handleGetImage(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "id parameter required"})
	}

	entry, err := s.storer.Get(c.UserContext(), id)
	if err != nil {
		var notFound metadata.ErrNotFound
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "image not found"})
		}
		s.logger.Error("failed to get image", zap.String("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get image"})
	}

	return c.JSON(entry)
}
