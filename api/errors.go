package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/studai/pkg/rag"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

var errorStatuses = []struct {
	err     error
	status  int
	message string
}{
	{rag.ErrInvalidDocument, fiber.StatusBadRequest, "invalid PDF"},
	{rag.ErrEmptyPrompt, fiber.StatusBadRequest, "prompt is required"},
	{rag.ErrInvalidMode, fiber.StatusBadRequest, "invalid mode"},
	{rag.ErrEmbeddingFailure, fiber.StatusInternalServerError, "failed to embed text"},
	{rag.ErrStoreFailure, fiber.StatusInternalServerError, "vector store failure"},
	{rag.ErrToolCallRequired, fiber.StatusBadGateway, "model did not request a document search"},
	{rag.ErrUpstreamFailure, fiber.StatusBadGateway, "chat model request failed"},
	{rag.ErrRenderFailure, fiber.StatusInternalServerError, "failed to render PDF"},
}

// statusFor maps a service error to an HTTP status and a generic message.
func statusFor(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, e.message
		}
	}
	return fiber.StatusInternalServerError, "internal server error"
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	status, message := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", c.Path(),
			"status", status,
			"error", err,
		)
	} else {
		s.logger.Debug("request rejected",
			"path", c.Path(),
			"status", status,
			"error", err,
		)
	}
	return c.Status(status).JSON(ErrorResponse{Error: message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: message})
}
