package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/gikai-viz/backend/internal/cache/redis"
	"github.com/gikai-viz/backend/internal/metrics"
	"github.com/gikai-viz/backend/internal/storage/models"
	"github.com/gikai-viz/backend/internal/storage/sqlite"
	"github.com/gikai-viz/backend/pkg/circuitbreaker"
	"github.com/gikai-viz/backend/pkg/logger"
	"github.com/gikai-viz/backend/pkg/utils"
)

type CardsHandler struct {
	db       *sqlite.Client
	cache    *redis.Client
	breaker  *circuitbreaker.CircuitBreaker
	cacheTTL time.Duration
}

func NewCardsHandler(db *sqlite.Client, cache *redis.Client, cacheTTL time.Duration) *CardsHandler {
	return &CardsHandler{
		db:    db,
		cache: cache,
		breaker: circuitbreaker.NewCircuitBreaker("redis-cards", circuitbreaker.Config{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          30 * time.Second,
			Logger:           logger.Log,
		}),
		cacheTTL: cacheTTL,
	}
}

type cardListResponse struct {
	Cards []models.QuestionCard `json:"cards"`
	Count int                   `json:"count"`
}

// ListCards serves the public card feed. Only published cards are visible
// here; the admin variant passes published=all.
func (h *CardsHandler) ListCards(c *fiber.Ctx) error {
	filter := models.CardFilter{
		Member:        c.Query("member"),
		Topic:         c.Query("topic"),
		Search:        c.Query("search"),
		MeetingID:     c.Query("meeting_id"),
		PublishedOnly: c.Query("published") != "all",
		Limit:         c.QueryInt("limit", 50),
		Offset:        c.QueryInt("offset", 0),
	}

	filterHash := utils.HashString(fmt.Sprintf("%s|%s|%s|%s|%v|%d|%d",
		filter.Member, filter.Topic, filter.Search, filter.MeetingID,
		filter.PublishedOnly, filter.Limit, filter.Offset))

	var cached cardListResponse
	if h.cacheAvailable() {
		hit := false
		err := h.breaker.Execute(c.Context(), func() error {
			var err error
			hit, err = h.cache.GetCardList(c.Context(), filterHash, &cached)
			return err
		})
		if err == nil && hit {
			metrics.CacheHits.WithLabelValues("cards").Inc()
			return c.JSON(cached)
		}
		metrics.CacheMisses.WithLabelValues("cards").Inc()
	}

	cards, err := h.db.ListCards(filter)
	if err != nil {
		logger.Error("Failed to list cards", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list cards",
		})
	}

	response := cardListResponse{Cards: cards, Count: len(cards)}

	if h.cacheAvailable() {
		err := h.breaker.Execute(c.Context(), func() error {
			return h.cache.SetCardList(c.Context(), filterHash, response, h.cacheTTL)
		})
		if err != nil {
			logger.Debug("Card list cache write skipped", zap.Error(err))
		}
	}

	return c.JSON(response)
}

func (h *CardsHandler) GetCard(c *fiber.Ctx) error {
	card, err := h.db.GetCard(c.Params("id"))
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}
	if err != nil {
		logger.Error("Failed to get card", zap.Error(err), zap.String("card_id", c.Params("id")))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get card",
		})
	}

	return c.JSON(card)
}

// RecordView increments the view counter. Fire and forget from the
// frontend, so failures are 404 or 500 only.
func (h *CardsHandler) RecordView(c *fiber.Ctx) error {
	err := h.db.IncrementViewCount(c.Params("id"))
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}
	if err != nil {
		logger.Error("Failed to record view", zap.Error(err), zap.String("card_id", c.Params("id")))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record view",
		})
	}

	metrics.CardViews.Inc()
	return c.JSON(fiber.Map{"message": "View recorded"})
}

func (h *CardsHandler) SetPublished(c *fiber.Ctx) error {
	var req struct {
		Published bool `json:"published"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	err := h.db.SetCardPublished(c.Params("id"), req.Published)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}
	if err != nil {
		logger.Error("Failed to update publish state", zap.Error(err), zap.String("card_id", c.Params("id")))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update publish state",
		})
	}

	if h.cacheAvailable() {
		if err := h.cache.InvalidateCards(c.Context()); err != nil {
			logger.Warn("Failed to invalidate card cache", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"id":        c.Params("id"),
		"published": req.Published,
	})
}

func (h *CardsHandler) cacheAvailable() bool {
	return h.cache != nil
}
