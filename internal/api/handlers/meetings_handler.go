package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gikai-viz/backend/internal/storage/models"
	"github.com/gikai-viz/backend/internal/storage/sqlite"
	"github.com/gikai-viz/backend/pkg/logger"
)

type MeetingsHandler struct {
	db *sqlite.Client
}

func NewMeetingsHandler(db *sqlite.Client) *MeetingsHandler {
	return &MeetingsHandler{
		db: db,
	}
}

func (h *MeetingsHandler) ListMeetings(c *fiber.Ctx) error {
	meetings, err := h.db.ListMeetings()
	if err != nil {
		logger.Error("Failed to list meetings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list meetings",
		})
	}

	return c.JSON(fiber.Map{
		"meetings": meetings,
		"count":    len(meetings),
	})
}

func (h *MeetingsHandler) CreateMeeting(c *fiber.Ctx) error {
	var req struct {
		Title  string `json:"title"`
		HeldOn string `json:"held_on"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	meeting := &models.Meeting{
		ID:        uuid.New().String(),
		Title:     req.Title,
		HeldOn:    req.HeldOn,
		CreatedAt: time.Now(),
	}

	if err := h.db.UpsertMeeting(meeting); err != nil {
		logger.Error("Failed to create meeting", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create meeting",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(meeting)
}

// GetMeetingTopics serves the topic distribution aggregated from the
// meeting's processed files.
func (h *MeetingsHandler) GetMeetingTopics(c *fiber.Ctx) error {
	topics, err := h.db.GetMeetingTopics(c.Params("id"))
	if err != nil {
		logger.Error("Failed to get meeting topics", zap.Error(err), zap.String("meeting_id", c.Params("id")))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get meeting topics",
		})
	}

	return c.JSON(fiber.Map{
		"meeting_id": c.Params("id"),
		"topics":     topics,
	})
}
