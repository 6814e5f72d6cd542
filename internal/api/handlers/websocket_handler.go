package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/gikai-viz/backend/internal/ingestion"
	"github.com/gikai-viz/backend/pkg/logger"
)

// WebSocketHandler streams reparse-all progress to the admin UI. A full
// reparse walks every stored file, so per-file events beat a spinner.
type WebSocketHandler struct {
	processor *ingestion.Processor
}

func NewWebSocketHandler(processor *ingestion.Processor) *WebSocketHandler {
	return &WebSocketHandler{
		processor: processor,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type string `json:"type"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Error("Failed to read WebSocket message", zap.Error(err))
			break
		}

		if msg.Type != "reparse" {
			continue
		}

		logger.Info("Starting reparse over WebSocket")

		err = h.streamReparse(c)
		if err != nil {
			logger.Error("Failed to stream reparse progress", zap.Error(err))
			h.sendError(c, "Failed to reparse files")
		}
	}
}

func (h *WebSocketHandler) streamReparse(c *websocket.Conn) error {
	ctx := context.Background()

	h.sendStatus(c, "Reparse started")

	var writeErr error
	summary, err := h.processor.ReparseAll(ctx, func(progress ingestion.FileProgress) {
		if writeErr != nil {
			return
		}
		writeErr = c.WriteJSON(map[string]interface{}{
			"type":      "progress",
			"file_id":   progress.FileID,
			"file_name": progress.FileName,
			"index":     progress.Index,
			"total":     progress.Total,
			"cards":     progress.Cards,
			"succeeded": progress.Succeeded,
			"error":     progress.Error,
		})
	})
	if err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}

	return c.WriteJSON(map[string]interface{}{
		"type":            "complete",
		"total_files":     summary.TotalFiles,
		"processed_files": summary.ProcessedFiles,
		"failed_files":    summary.FailedFiles,
		"cards_generated": summary.CardsGenerated,
	})
}

func (h *WebSocketHandler) sendStatus(c *websocket.Conn, content string) {
	c.WriteJSON(map[string]interface{}{
		"type":    "status",
		"content": content,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
