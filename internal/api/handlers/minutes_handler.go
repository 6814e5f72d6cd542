package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/gikai-viz/backend/internal/extract"
	"github.com/gikai-viz/backend/internal/ingestion"
	"github.com/gikai-viz/backend/pkg/logger"
)

type MinutesHandler struct {
	processor *ingestion.Processor
}

func NewMinutesHandler(processor *ingestion.Processor) *MinutesHandler {
	return &MinutesHandler{
		processor: processor,
	}
}

// UploadMinutes registers a transcript and runs the pipeline synchronously.
// Files are small enough that the admin UI waits for the outcome.
func (h *MinutesHandler) UploadMinutes(c *fiber.Ctx) error {
	var req struct {
		FileName  string `json:"file_name"`
		FileType  string `json:"file_type"`
		MeetingID string `json:"meeting_id"`
		Content   string `json:"content"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.FileName == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File name and content are required",
		})
	}
	if req.FileType == "" {
		req.FileType = "txt"
	}

	file, err := h.processor.Ingest(c.Context(), ingestion.UploadRequest{
		FileName:  req.FileName,
		FileType:  req.FileType,
		MeetingID: req.MeetingID,
		Content:   []byte(req.Content),
	})
	if err != nil {
		logger.Error("Failed to ingest minutes file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to ingest minutes file",
		})
	}

	outcome, err := h.processor.ProcessFile(c.Context(), file.ID)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error":   "Unsupported file type",
				"file_id": file.ID,
			})
		}
		logger.Error("Failed to process minutes file", zap.Error(err), zap.String("file_id", file.ID))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to process minutes file",
			"file_id": file.ID,
		})
	}

	return c.JSON(fiber.Map{
		"message":          "Minutes file processed",
		"file_id":          outcome.FileID,
		"sessions":         outcome.Sessions,
		"cards":            outcome.Cards,
		"other_statements": outcome.OtherStatements,
	})
}

func (h *MinutesHandler) ListFiles(c *fiber.Ctx) error {
	files, err := h.processor.DB().ListMinutesFiles()
	if err != nil {
		logger.Error("Failed to list minutes files", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list minutes files",
		})
	}

	type fileSummary struct {
		ID           string `json:"id"`
		FileName     string `json:"file_name"`
		FileType     string `json:"file_type"`
		MeetingID    string `json:"meeting_id,omitempty"`
		Processed    bool   `json:"processed"`
		ErrorMessage string `json:"error_message,omitempty"`
		UploadedAt   string `json:"uploaded_at"`
	}

	summaries := make([]fileSummary, 0, len(files))
	for _, f := range files {
		summaries = append(summaries, fileSummary{
			ID:           f.ID,
			FileName:     f.FileName,
			FileType:     f.FileType,
			MeetingID:    f.MeetingID,
			Processed:    f.Processed,
			ErrorMessage: f.ErrorMessage,
			UploadedAt:   f.UploadedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return c.JSON(fiber.Map{
		"files": summaries,
		"count": len(summaries),
	})
}

// GetFileAnalysis serves the per-file analysis blob written by the pipeline.
func (h *MinutesHandler) GetFileAnalysis(c *fiber.Ctx) error {
	file, err := h.processor.DB().GetMinutesFile(c.Params("id"))
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "File not found",
		})
	}
	if err != nil {
		logger.Error("Failed to get minutes file", zap.Error(err), zap.String("file_id", c.Params("id")))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get minutes file",
		})
	}

	if !file.Processed || file.AnalysisData == "" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":         "File has not been processed",
			"error_message": file.ErrorMessage,
		})
	}

	var analysis json.RawMessage = []byte(file.AnalysisData)
	return c.JSON(fiber.Map{
		"file_id":  file.ID,
		"analysis": analysis,
	})
}

// ReparseFile reruns the pipeline for one file, replacing its cards.
func (h *MinutesHandler) ReparseFile(c *fiber.Ctx) error {
	outcome, err := h.processor.ProcessFile(c.Context(), c.Params("id"))
	if err != nil {
		logger.Error("Failed to reparse file", zap.Error(err), zap.String("file_id", c.Params("id")))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reparse file",
		})
	}

	return c.JSON(outcome)
}
