package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gikai-viz/backend/internal/analyzer"
	"github.com/gikai-viz/backend/internal/cache/redis"
	"github.com/gikai-viz/backend/internal/cards"
	"github.com/gikai-viz/backend/internal/extract"
	"github.com/gikai-viz/backend/internal/metrics"
	"github.com/gikai-viz/backend/internal/parser"
	"github.com/gikai-viz/backend/internal/storage/models"
	"github.com/gikai-viz/backend/internal/storage/objectstore"
	"github.com/gikai-viz/backend/internal/storage/sqlite"
	"github.com/gikai-viz/backend/pkg/logger"
	"github.com/gikai-viz/backend/pkg/retry"
	"github.com/gikai-viz/backend/pkg/utils"
)

// Processor drives one minutes file through the extraction pipeline and
// persists the results. The pipeline stages themselves are pure; everything
// stateful (storage, cache, metrics) lives here.
type Processor struct {
	db        *sqlite.Client
	store     *objectstore.Store
	extractor *extract.Registry
	cache     *redis.Client
	analyzer  *analyzer.Analyzer
}

func NewProcessor(db *sqlite.Client, store *objectstore.Store, extractor *extract.Registry, cache *redis.Client, minKeywordLength int) *Processor {
	return &Processor{
		db:        db,
		store:     store,
		extractor: extractor,
		cache:     cache,
		analyzer:  analyzer.New(minKeywordLength),
	}
}

// DB exposes the storage client for read paths the handlers own.
func (p *Processor) DB() *sqlite.Client {
	return p.db
}

// UploadRequest carries one document into the system. Content is the file's
// text (or HTML) as extracted upstream; binary formats are decoded before
// they reach this service.
type UploadRequest struct {
	FileName  string
	FileType  string
	MeetingID string
	Content   []byte
}

// Ingest stores the raw content and registers the minutes file, unprocessed.
func (p *Processor) Ingest(ctx context.Context, req UploadRequest) (*models.MinutesFile, error) {
	fileID := uuid.New().String()

	key, err := p.store.Save(fileID, req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	file := &models.MinutesFile{
		ID:         fileID,
		FileName:   req.FileName,
		FileType:   req.FileType,
		MeetingID:  req.MeetingID,
		StorageKey: key,
		UploadedAt: time.Now(),
	}

	if err := p.db.InsertMinutesFile(file); err != nil {
		return nil, fmt.Errorf("failed to register minutes file: %w", err)
	}

	logger.Info("Minutes file ingested",
		zap.String("file_id", fileID),
		zap.String("name", req.FileName),
		zap.String("type", req.FileType),
	)

	return file, nil
}

// Outcome summarizes one ProcessFile run.
type Outcome struct {
	FileID          string `json:"file_id"`
	Sessions        int    `json:"sessions"`
	Cards           int    `json:"cards"`
	OtherStatements int    `json:"other_statements"`
}

// analysisData is the per-file cache blob written to
// minutes_files.analysis_data for the public viewer.
type analysisData struct {
	SessionAnalyses  []analyzer.SessionAnalysis `json:"sessionAnalyses"`
	OverallAnalysis  analyzer.OverallAnalysis   `json:"overallAnalysis"`
	Stats            fileStats                  `json:"stats"`
	SessionSummaries []sessionSummary           `json:"sessionSummaries"`
	AnswererCounts   []analyzer.NameCount       `json:"answererCounts"`
}

type fileStats struct {
	Sessions        int `json:"sessions"`
	Statements      int `json:"statements"`
	OtherStatements int `json:"otherStatements"`
	Questions       int `json:"questions"`
	Answers         int `json:"answers"`
}

type sessionSummary struct {
	Member          string `json:"member"`
	QuestionSummary string `json:"questionSummary"`
	AnswerSummary   string `json:"answerSummary"`
}

// ProcessFile runs the full pipeline for one file and overwrites its cards.
// The pipeline never fails on malformed transcripts; errors here are
// extraction or persistence failures, and the file keeps processed=false
// with the message recorded for the admin UI.
func (p *Processor) ProcessFile(ctx context.Context, fileID string) (*Outcome, error) {
	start := time.Now()

	file, err := p.db.GetMinutesFile(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load minutes file: %w", err)
	}

	data, err := p.store.Load(file.StorageKey)
	if err != nil {
		p.db.MarkFileFailed(fileID, err.Error())
		return nil, fmt.Errorf("failed to load document content: %w", err)
	}

	text, err := p.extractor.Extract(file.FileType, data)
	if err != nil {
		metrics.ParseFailures.Inc()
		p.db.MarkFileFailed(fileID, err.Error())
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}

	result := parser.NewSessionBuilder(&zapObserver{fileID: fileID}).Parse(text)

	analyses := make([]analyzer.SessionAnalysis, 0, len(result.Sessions))
	for _, session := range result.Sessions {
		analyses = append(analyses, p.analyzer.AnalyzeSession(session))
	}
	overall := p.analyzer.AnalyzeOverall(analyses)
	generated := cards.Generate(analyses)

	generation := utils.HashString(fileID + "@" + start.UTC().Format(time.RFC3339Nano))
	records := p.toCardRecords(file, generated, generation)
	blob := buildAnalysisData(result, analyses, overall)

	// Persistence failures leave the in-memory results intact, so a plain
	// retry re-persists without recomputation.
	err = retry.Do(ctx, retry.Config{MaxAttempts: 3, Logger: logger.Log}, func() error {
		if err := p.db.ReplaceCards(fileID, records); err != nil {
			return err
		}
		return p.db.MarkFileProcessed(fileID, blob)
	})
	if err != nil {
		metrics.ParseFailures.Inc()
		p.db.MarkFileFailed(fileID, err.Error())
		return nil, fmt.Errorf("failed to persist parse results: %w", err)
	}

	if file.MeetingID != "" {
		if err := p.updateMeetingTopics(file.MeetingID, overall); err != nil {
			logger.Warn("Failed to update meeting topics", zap.Error(err), zap.String("meeting_id", file.MeetingID))
		}
	}

	if p.cache != nil {
		if err := p.cache.InvalidateCards(ctx); err != nil {
			logger.Warn("Failed to invalidate card cache", zap.Error(err))
		}
	}

	metrics.FilesProcessed.Inc()
	metrics.CardsGenerated.Add(float64(len(records)))
	metrics.SessionsPerFile.Observe(float64(len(result.Sessions)))
	metrics.ParseDuration.Observe(time.Since(start).Seconds())

	logger.Info("Minutes file processed",
		zap.String("file_id", fileID),
		zap.Int("sessions", len(result.Sessions)),
		zap.Int("cards", len(records)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Outcome{
		FileID:          fileID,
		Sessions:        len(result.Sessions),
		Cards:           len(records),
		OtherStatements: len(result.OtherStatements),
	}, nil
}

func (p *Processor) toCardRecords(file *models.MinutesFile, generated []cards.Card, generation string) []models.QuestionCard {
	records := make([]models.QuestionCard, 0, len(generated))
	now := time.Now()
	for _, card := range generated {
		keywords := make([]models.KeywordCount, 0, len(card.Keywords))
		for _, kw := range card.Keywords {
			keywords = append(keywords, models.KeywordCount{Keyword: kw.Keyword, Count: kw.Count})
		}
		content := make([]models.ContentItem, 0, len(card.ContentData))
		for _, item := range card.ContentData {
			content = append(content, models.ContentItem{Type: item.Type, Speaker: item.Speaker, Text: item.Text})
		}
		records = append(records, models.QuestionCard{
			ID:              uuid.New().String(),
			FileID:          file.ID,
			MeetingID:       file.MeetingID,
			MemberName:      card.MemberName,
			Faction:         card.Faction,
			QuestionText:    card.QuestionText,
			QuestionSummary: card.QuestionSummary,
			AnswerTexts:     card.AnswerTexts,
			Answerers:       card.Answerers,
			AnswerSummary:   card.AnswerSummary,
			Topics:          card.Topics,
			Keywords:        keywords,
			FullContent:     card.FullContent,
			ContentData:     content,
			Generation:      generation,
			CreatedAt:       now,
		})
	}
	return records
}

func (p *Processor) updateMeetingTopics(meetingID string, overall analyzer.OverallAnalysis) error {
	topics := make([]models.MeetingTopic, 0, len(overall.TopicDistribution))
	for _, share := range overall.TopicDistribution {
		topics = append(topics, models.MeetingTopic{
			MeetingID:  meetingID,
			Topic:      share.Topic,
			Count:      share.Count,
			Percentage: share.Percentage,
		})
	}
	return p.db.ReplaceMeetingTopics(meetingID, topics)
}

func buildAnalysisData(result parser.ParseResult, analyses []analyzer.SessionAnalysis, overall analyzer.OverallAnalysis) string {
	stats := fileStats{
		Sessions:        len(result.Sessions),
		OtherStatements: len(result.OtherStatements),
		Questions:       overall.QuestionTotal,
		Answers:         overall.AnswerTotal,
	}
	for _, session := range result.Sessions {
		stats.Statements += len(session.Statements)
	}
	stats.Statements += len(result.OtherStatements)

	summaries := make([]sessionSummary, 0, len(analyses))
	for _, sa := range analyses {
		questionTexts := make([]string, 0, len(sa.Questions))
		for _, q := range sa.Questions {
			questionTexts = append(questionTexts, q.Text)
		}
		answerTexts := make([]string, 0, len(sa.Answers))
		for _, a := range sa.Answers {
			answerTexts = append(answerTexts, a.Text)
		}
		summaries = append(summaries, sessionSummary{
			Member:          sa.Member,
			QuestionSummary: cards.SummarizeQuestion(joinBlankLine(questionTexts)),
			AnswerSummary:   cards.SummarizeAnswer(answerTexts),
		})
	}

	blob, _ := json.Marshal(analysisData{
		SessionAnalyses:  analyses,
		OverallAnalysis:  overall,
		Stats:            stats,
		SessionSummaries: summaries,
		AnswererCounts:   overall.MostActiveAnswerers,
	})
	return string(blob)
}

func joinBlankLine(texts []string) string {
	switch len(texts) {
	case 0:
		return ""
	case 1:
		return texts[0]
	}
	joined := texts[0]
	for _, t := range texts[1:] {
		joined += "\n\n" + t
	}
	return joined
}

// zapObserver bridges parser tracing into the service log.
type zapObserver struct {
	fileID string
}

func (o *zapObserver) SessionStarted(member string) {
	logger.Debug("Session started", zap.String("file_id", o.fileID), zap.String("member", member))
}

func (o *zapObserver) SessionClosed(member string, statementCount int, implicit bool) {
	logger.Debug("Session closed",
		zap.String("file_id", o.fileID),
		zap.String("member", member),
		zap.Int("statements", statementCount),
		zap.Bool("implicit", implicit),
	)
}

func (o *zapObserver) StatementParsed(speaker string, role parser.Role) {
	logger.Debug("Statement parsed",
		zap.String("file_id", o.fileID),
		zap.String("speaker", speaker),
		zap.String("role", string(role)),
	)
}
