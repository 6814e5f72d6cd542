package models

import "time"

// MinutesFile is one uploaded meeting-minutes document. AnalysisData is a
// free-form JSON cache of derived content for the public viewer, not
// authoritative input to the pipeline.
type MinutesFile struct {
	ID           string
	FileName     string
	FileType     string
	MeetingID    string
	StorageKey   string
	Processed    bool
	AnalysisData string
	ErrorMessage string
	UploadedAt   time.Time
	ProcessedAt  *time.Time
}

// Theme is an externally-authored structured unit used when card content
// originates from a CSV import rather than from the extraction pipeline.
type Theme struct {
	ThemeTitle      string `json:"theme_title"`
	QuestionPoint   string `json:"question_point"`
	AnswerPoint     string `json:"answer_point"`
	DiscussionPoint string `json:"discussion_point,omitempty"`
	AffectedPeople  string `json:"affected_people,omitempty"`
}

// QuestionCard is the persisted, user-facing unit of content: one card per
// session per processed file. Slice/struct fields are stored as JSON columns.
type QuestionCard struct {
	ID              string
	FileID          string
	MeetingID       string
	MemberName      string
	Faction         string
	QuestionText    string
	QuestionSummary string
	AnswerTexts     []string
	Answerers       []string
	AnswerSummary   string
	Topics          []string
	Keywords        []KeywordCount
	FullContent     string
	ContentData     []ContentItem
	Themes          []Theme
	Published       bool
	ViewCount       int
	Generation      string
	CreatedAt       time.Time
}

// KeywordCount mirrors the analyzer's keyword table for persistence.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// ContentItem is one tagged statement in a card's structured content.
type ContentItem struct {
	Type    string `json:"type"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Meeting groups minutes files and topics under one council meeting.
type Meeting struct {
	ID        string
	Title     string
	HeldOn    string
	CreatedAt time.Time
}

// MeetingTopic is one slice of a meeting's topic distribution, derived from
// the overall analysis of its minutes files.
type MeetingTopic struct {
	ID         int
	MeetingID  string
	Topic      string
	Count      int
	Percentage int
}

// CardFilter selects cards for the public listing endpoints.
type CardFilter struct {
	Member        string
	Topic         string
	Search        string
	MeetingID     string
	PublishedOnly bool
	Limit         int
	Offset        int
}

// BatchSummary reports a reparse-all run: per-file failures are logged and
// counted, not enumerated.
type BatchSummary struct {
	TotalFiles     int `json:"total_files"`
	ProcessedFiles int `json:"processed_files"`
	FailedFiles    int `json:"failed_files"`
	CardsGenerated int `json:"cards_generated"`
}
