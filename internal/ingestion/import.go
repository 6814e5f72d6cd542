package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gikai-viz/backend/internal/importer"
	"github.com/gikai-viz/backend/internal/metrics"
	"github.com/gikai-viz/backend/internal/storage/models"
	"github.com/gikai-viz/backend/pkg/logger"
	"github.com/gikai-viz/backend/pkg/retry"
	"github.com/gikai-viz/backend/pkg/utils"
)

// ImportOutcome summarizes one CSV import run.
type ImportOutcome struct {
	FileID  string `json:"file_id"`
	Members int    `json:"members"`
	Cards   int    `json:"cards"`
}

// ImportCSV ingests an externally-analyzed theme CSV and writes one card per
// member, bypassing the transcript pipeline. Cards with Themes already carry
// curated summaries, so the heuristic summarizer never touches them.
func (p *Processor) ImportCSV(ctx context.Context, fileName, meetingID string, data []byte) (*ImportOutcome, error) {
	groups, err := importer.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse theme CSV: %w", err)
	}

	file, err := p.Ingest(ctx, UploadRequest{
		FileName:  fileName,
		FileType:  "csv",
		MeetingID: meetingID,
		Content:   data,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	generation := utils.HashString(file.ID + "@" + now.UTC().Format(time.RFC3339Nano))
	records := make([]models.QuestionCard, 0, len(groups))
	for _, group := range groups {
		records = append(records, models.QuestionCard{
			ID:         uuid.New().String(),
			FileID:     file.ID,
			MeetingID:  meetingID,
			MemberName: group.Member,
			Faction:    group.Faction,
			Topics:     group.Topics,
			Themes:     group.Themes,
			Generation: generation,
			CreatedAt:  now,
		})
	}

	blob, _ := json.Marshal(map[string]int{"members": len(groups), "cards": len(records)})
	err = retry.Do(ctx, retry.Config{MaxAttempts: 3, Logger: logger.Log}, func() error {
		if err := p.db.ReplaceCards(file.ID, records); err != nil {
			return err
		}
		return p.db.MarkFileProcessed(file.ID, string(blob))
	})
	if err != nil {
		p.db.MarkFileFailed(file.ID, err.Error())
		return nil, fmt.Errorf("failed to persist imported cards: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.InvalidateCards(ctx); err != nil {
			logger.Warn("Failed to invalidate card cache", zap.Error(err))
		}
	}

	metrics.ImportedCards.Add(float64(len(records)))

	logger.Info("Theme CSV imported",
		zap.String("file_id", file.ID),
		zap.Int("members", len(groups)),
		zap.Int("cards", len(records)),
	)

	return &ImportOutcome{FileID: file.ID, Members: len(groups), Cards: len(records)}, nil
}
