package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/gikai-viz/backend/internal/storage/models"
	"github.com/gikai-viz/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meetings (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		held_on TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_meetings_held_on ON meetings(held_on);

	CREATE TABLE IF NOT EXISTS minutes_files (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		file_type TEXT NOT NULL,
		meeting_id TEXT,
		storage_key TEXT NOT NULL,
		processed INTEGER NOT NULL DEFAULT 0,
		analysis_data TEXT,
		error_message TEXT,
		uploaded_at INTEGER NOT NULL,
		processed_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_files_meeting ON minutes_files(meeting_id);
	CREATE INDEX IF NOT EXISTS idx_files_processed ON minutes_files(processed);

	CREATE TABLE IF NOT EXISTS question_cards (
		id TEXT PRIMARY KEY,
		file_id TEXT NOT NULL,
		meeting_id TEXT,
		member_name TEXT NOT NULL,
		faction TEXT,
		question_text TEXT,
		question_summary TEXT,
		answer_texts TEXT,
		answerers TEXT,
		answer_summary TEXT,
		topics TEXT,
		keywords TEXT,
		full_content TEXT,
		content_data TEXT,
		themes TEXT,
		published INTEGER NOT NULL DEFAULT 0,
		view_count INTEGER NOT NULL DEFAULT 0,
		generation TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (file_id) REFERENCES minutes_files(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_cards_file ON question_cards(file_id);
	CREATE INDEX IF NOT EXISTS idx_cards_member ON question_cards(member_name);
	CREATE INDEX IF NOT EXISTS idx_cards_meeting ON question_cards(meeting_id);
	CREATE INDEX IF NOT EXISTS idx_cards_published ON question_cards(published);

	CREATE TABLE IF NOT EXISTS meeting_topics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		meeting_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		count INTEGER NOT NULL,
		percentage INTEGER NOT NULL,
		FOREIGN KEY (meeting_id) REFERENCES meetings(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_topics_meeting ON meeting_topics(meeting_id);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertMinutesFile(file *models.MinutesFile) error {
	query := `
		INSERT INTO minutes_files (id, file_name, file_type, meeting_id, storage_key, processed, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	processed := 0
	if file.Processed {
		processed = 1
	}

	_, err := c.db.Exec(
		query,
		file.ID,
		file.FileName,
		file.FileType,
		file.MeetingID,
		file.StorageKey,
		processed,
		file.UploadedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert minutes file: %w", err)
	}

	logger.Debug("Minutes file inserted", zap.String("file_id", file.ID), zap.String("name", file.FileName))
	return nil
}

func (c *Client) GetMinutesFile(id string) (*models.MinutesFile, error) {
	query := `
		SELECT id, file_name, file_type, meeting_id, storage_key, processed,
			COALESCE(analysis_data, ''), COALESCE(error_message, ''), uploaded_at, processed_at
		FROM minutes_files WHERE id = ?
	`

	var (
		file        models.MinutesFile
		processed   int
		uploadedAt  int64
		processedAt sql.NullInt64
	)

	err := c.db.QueryRow(query, id).Scan(
		&file.ID,
		&file.FileName,
		&file.FileType,
		&file.MeetingID,
		&file.StorageKey,
		&processed,
		&file.AnalysisData,
		&file.ErrorMessage,
		&uploadedAt,
		&processedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get minutes file: %w", err)
	}

	file.Processed = processed != 0
	file.UploadedAt = time.Unix(uploadedAt, 0)
	if processedAt.Valid {
		t := time.Unix(processedAt.Int64, 0)
		file.ProcessedAt = &t
	}

	return &file, nil
}

func (c *Client) ListMinutesFiles() ([]models.MinutesFile, error) {
	query := `
		SELECT id, file_name, file_type, meeting_id, storage_key, processed,
			COALESCE(error_message, ''), uploaded_at
		FROM minutes_files
		ORDER BY uploaded_at DESC
	`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list minutes files: %w", err)
	}
	defer rows.Close()

	var files []models.MinutesFile
	for rows.Next() {
		var (
			file       models.MinutesFile
			processed  int
			uploadedAt int64
		)
		err := rows.Scan(
			&file.ID,
			&file.FileName,
			&file.FileType,
			&file.MeetingID,
			&file.StorageKey,
			&processed,
			&file.ErrorMessage,
			&uploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		file.Processed = processed != 0
		file.UploadedAt = time.Unix(uploadedAt, 0)
		files = append(files, file)
	}

	return files, rows.Err()
}

func (c *Client) MarkFileProcessed(id, analysisData string) error {
	query := `
		UPDATE minutes_files
		SET processed = 1, analysis_data = ?, error_message = NULL, processed_at = ?
		WHERE id = ?
	`

	_, err := c.db.Exec(query, analysisData, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to mark file processed: %w", err)
	}

	return nil
}

func (c *Client) MarkFileFailed(id, message string) error {
	query := `UPDATE minutes_files SET processed = 0, error_message = ? WHERE id = ?`

	_, err := c.db.Exec(query, message, id)
	if err != nil {
		return fmt.Errorf("failed to mark file failed: %w", err)
	}

	return nil
}

// ReplaceCards deletes every card of the file and inserts the new batch in
// one transaction. Re-parse is a full overwrite: concurrent reparses of the
// same file must be serialized by the caller, the transaction only keeps the
// delete and insert atomic.
func (c *Client) ReplaceCards(fileID string, cards []models.QuestionCard) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM question_cards WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("failed to delete prior cards: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO question_cards (id, file_id, meeting_id, member_name, faction,
			question_text, question_summary, answer_texts, answerers, answer_summary,
			topics, keywords, full_content, content_data, themes,
			published, view_count, generation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare card insert: %w", err)
	}
	defer stmt.Close()

	for _, card := range cards {
		published := 0
		if card.Published {
			published = 1
		}
		_, err := stmt.Exec(
			card.ID,
			card.FileID,
			card.MeetingID,
			card.MemberName,
			card.Faction,
			card.QuestionText,
			card.QuestionSummary,
			marshalJSON(card.AnswerTexts),
			marshalJSON(card.Answerers),
			card.AnswerSummary,
			marshalJSON(card.Topics),
			marshalJSON(card.Keywords),
			card.FullContent,
			marshalJSON(card.ContentData),
			marshalThemes(card.Themes),
			published,
			card.ViewCount,
			card.Generation,
			card.CreatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert card: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit card batch: %w", err)
	}

	logger.Info("Cards replaced",
		zap.String("file_id", fileID),
		zap.Int("cards", len(cards)),
	)
	return nil
}

const cardColumns = `id, file_id, COALESCE(meeting_id, ''), member_name, COALESCE(faction, ''),
	COALESCE(question_text, ''), COALESCE(question_summary, ''), COALESCE(answer_texts, '[]'),
	COALESCE(answerers, '[]'), COALESCE(answer_summary, ''), COALESCE(topics, '[]'),
	COALESCE(keywords, '[]'), COALESCE(full_content, ''), COALESCE(content_data, '[]'),
	COALESCE(themes, ''), published, view_count, generation, created_at`

func (c *Client) GetCard(id string) (*models.QuestionCard, error) {
	query := `SELECT ` + cardColumns + ` FROM question_cards WHERE id = ?`

	card, err := scanCard(c.db.QueryRow(query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

func (c *Client) ListCards(filter models.CardFilter) ([]models.QuestionCard, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.PublishedOnly {
		conditions = append(conditions, "published = 1")
	}
	if filter.Member != "" {
		conditions = append(conditions, "member_name LIKE ?")
		args = append(args, "%"+filter.Member+"%")
	}
	if filter.Topic != "" {
		conditions = append(conditions, "topics LIKE ?")
		args = append(args, `%"`+filter.Topic+`"%`)
	}
	if filter.MeetingID != "" {
		conditions = append(conditions, "meeting_id = ?")
		args = append(args, filter.MeetingID)
	}
	if filter.Search != "" {
		conditions = append(conditions, "(question_text LIKE ? OR full_content LIKE ? OR member_name LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	query := `SELECT ` + cardColumns + ` FROM question_cards`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var listed []models.QuestionCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		listed = append(listed, *card)
	}

	return listed, rows.Err()
}

func (c *Client) IncrementViewCount(id string) error {
	result, err := c.db.Exec(`UPDATE question_cards SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (c *Client) SetCardPublished(id string, published bool) error {
	value := 0
	if published {
		value = 1
	}
	result, err := c.db.Exec(`UPDATE question_cards SET published = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("failed to set card published: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (c *Client) UpsertMeeting(meeting *models.Meeting) error {
	query := `
		INSERT INTO meetings (id, title, held_on, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			held_on = excluded.held_on
	`

	_, err := c.db.Exec(query, meeting.ID, meeting.Title, meeting.HeldOn, meeting.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert meeting: %w", err)
	}

	return nil
}

func (c *Client) ListMeetings() ([]models.Meeting, error) {
	rows, err := c.db.Query(`SELECT id, title, COALESCE(held_on, ''), created_at FROM meetings ORDER BY held_on DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []models.Meeting
	for rows.Next() {
		var (
			m         models.Meeting
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.Title, &m.HeldOn, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		m.CreatedAt = time.Unix(createdAt, 0)
		meetings = append(meetings, m)
	}

	return meetings, rows.Err()
}

// ReplaceMeetingTopics overwrites the meeting's topic distribution with the
// one derived from the latest parse.
func (c *Client) ReplaceMeetingTopics(meetingID string, topics []models.MeetingTopic) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM meeting_topics WHERE meeting_id = ?`, meetingID); err != nil {
		return fmt.Errorf("failed to delete prior topics: %w", err)
	}

	for _, topic := range topics {
		_, err := tx.Exec(
			`INSERT INTO meeting_topics (meeting_id, topic, count, percentage) VALUES (?, ?, ?, ?)`,
			meetingID, topic.Topic, topic.Count, topic.Percentage,
		)
		if err != nil {
			return fmt.Errorf("failed to insert meeting topic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit meeting topics: %w", err)
	}
	return nil
}

func (c *Client) GetMeetingTopics(meetingID string) ([]models.MeetingTopic, error) {
	rows, err := c.db.Query(
		`SELECT id, meeting_id, topic, count, percentage FROM meeting_topics WHERE meeting_id = ? ORDER BY count DESC`,
		meetingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting topics: %w", err)
	}
	defer rows.Close()

	var topics []models.MeetingTopic
	for rows.Next() {
		var t models.MeetingTopic
		if err := rows.Scan(&t.ID, &t.MeetingID, &t.Topic, &t.Count, &t.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		topics = append(topics, t)
	}

	return topics, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCard(row rowScanner) (*models.QuestionCard, error) {
	var (
		card       models.QuestionCard
		answerText string
		answerers  string
		topics     string
		keywords   string
		content    string
		themes     string
		published  int
		createdAt  int64
	)

	err := row.Scan(
		&card.ID,
		&card.FileID,
		&card.MeetingID,
		&card.MemberName,
		&card.Faction,
		&card.QuestionText,
		&card.QuestionSummary,
		&answerText,
		&answerers,
		&card.AnswerSummary,
		&topics,
		&keywords,
		&card.FullContent,
		&content,
		&themes,
		&published,
		&card.ViewCount,
		&card.Generation,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(answerText), &card.AnswerTexts)
	json.Unmarshal([]byte(answerers), &card.Answerers)
	json.Unmarshal([]byte(topics), &card.Topics)
	json.Unmarshal([]byte(keywords), &card.Keywords)
	json.Unmarshal([]byte(content), &card.ContentData)
	if themes != "" {
		json.Unmarshal([]byte(themes), &card.Themes)
	}
	card.Published = published != 0
	card.CreatedAt = time.Unix(createdAt, 0)

	return &card, nil
}

func marshalJSON(v interface{}) string {
	data, _ := json.Marshal(v)
	return string(data)
}

// marshalThemes keeps the themes column NULL-like (empty) for pipeline cards
// so imported and extracted cards stay distinguishable.
func marshalThemes(themes []models.Theme) string {
	if len(themes) == 0 {
		return ""
	}
	return marshalJSON(themes)
}
