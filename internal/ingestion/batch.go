package ingestion

import (
	"context"

	"go.uber.org/zap"

	"github.com/gikai-viz/backend/internal/storage/models"
	"github.com/gikai-viz/backend/pkg/logger"
)

// FileProgress is one reparse-all progress event, emitted after each file.
type FileProgress struct {
	FileID    string `json:"file_id"`
	FileName  string `json:"file_name"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	Cards     int    `json:"cards"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// ReparseAll re-runs the pipeline over every registered minutes file.
// Per-file failures are logged and counted; processing continues with the
// next file. The summary reports counts, not which files failed.
func (p *Processor) ReparseAll(ctx context.Context, progress func(FileProgress)) (models.BatchSummary, error) {
	files, err := p.db.ListMinutesFiles()
	if err != nil {
		return models.BatchSummary{}, err
	}

	summary := models.BatchSummary{TotalFiles: len(files)}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		event := FileProgress{
			FileID:   file.ID,
			FileName: file.FileName,
			Index:    i + 1,
			Total:    len(files),
		}

		outcome, err := p.ProcessFile(ctx, file.ID)
		if err != nil {
			summary.FailedFiles++
			event.Error = err.Error()
			logger.Error("Reparse failed for file",
				zap.String("file_id", file.ID),
				zap.Error(err),
			)
		} else {
			summary.ProcessedFiles++
			summary.CardsGenerated += outcome.Cards
			event.Succeeded = true
			event.Cards = outcome.Cards
		}

		if progress != nil {
			progress(event)
		}
	}

	logger.Info("Reparse-all finished",
		zap.Int("total", summary.TotalFiles),
		zap.Int("processed", summary.ProcessedFiles),
		zap.Int("failed", summary.FailedFiles),
		zap.Int("cards", summary.CardsGenerated),
	)

	return summary, nil
}
