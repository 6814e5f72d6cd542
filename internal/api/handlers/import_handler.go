package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/gikai-viz/backend/internal/ingestion"
	"github.com/gikai-viz/backend/pkg/logger"
)

type ImportHandler struct {
	processor *ingestion.Processor
}

func NewImportHandler(processor *ingestion.Processor) *ImportHandler {
	return &ImportHandler{
		processor: processor,
	}
}

// ImportThemes accepts a theme CSV as a multipart upload and writes one
// card per member, replacing any earlier import of the same file.
func (h *ImportHandler) ImportThemes(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "CSV file is required",
		})
	}

	f, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded CSV", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read CSV file",
		})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		logger.Error("Failed to read uploaded CSV", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read CSV file",
		})
	}

	outcome, err := h.processor.ImportCSV(c.Context(), fileHeader.Filename, c.FormValue("meeting_id"), data)
	if err != nil {
		logger.Error("Failed to import theme CSV", zap.Error(err), zap.String("file", fileHeader.Filename))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Failed to import theme CSV",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Theme CSV imported",
		"file_id": outcome.FileID,
		"members": outcome.Members,
		"cards":   outcome.Cards,
	})
}
