package sqlite

import (
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/gikai-viz/backend/internal/storage/models"
	"github.com/gikai-viz/backend/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init("error", "console", "stdout"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	if err := client.InitSchema(); err != nil {
		t.Fatalf("InitSchema returned error: %v", err)
	}
	return client
}

func insertTestFile(t *testing.T, client *Client, id string) *models.MinutesFile {
	t.Helper()
	file := &models.MinutesFile{
		ID:         id,
		FileName:   "minutes.txt",
		FileType:   "txt",
		StorageKey: id + ".txt",
		UploadedAt: time.Now(),
	}
	if err := client.InsertMinutesFile(file); err != nil {
		t.Fatalf("InsertMinutesFile returned error: %v", err)
	}
	return file
}

func TestMinutesFileLifecycle(t *testing.T) {
	client := newTestClient(t)
	insertTestFile(t, client, "file-1")

	file, err := client.GetMinutesFile("file-1")
	if err != nil {
		t.Fatalf("GetMinutesFile returned error: %v", err)
	}
	if file.Processed {
		t.Error("new file should not be processed")
	}

	if err := client.MarkFileProcessed("file-1", `{"sessions":2}`); err != nil {
		t.Fatalf("MarkFileProcessed returned error: %v", err)
	}
	file, err = client.GetMinutesFile("file-1")
	if err != nil {
		t.Fatalf("GetMinutesFile returned error: %v", err)
	}
	if !file.Processed || file.AnalysisData != `{"sessions":2}` {
		t.Errorf("unexpected processed state: %+v", file)
	}
	if file.ProcessedAt == nil {
		t.Error("expected processed_at to be set")
	}

	if err := client.MarkFileFailed("file-1", "boom"); err != nil {
		t.Fatalf("MarkFileFailed returned error: %v", err)
	}
	file, _ = client.GetMinutesFile("file-1")
	if file.Processed || file.ErrorMessage != "boom" {
		t.Errorf("unexpected failed state: %+v", file)
	}

	if _, err := client.GetMinutesFile("missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows for unknown file, got %v", err)
	}
}

func testCard(id, fileID, member string, published bool) models.QuestionCard {
	return models.QuestionCard{
		ID:              id,
		FileID:          fileID,
		MemberName:      member,
		QuestionText:    "給食費の無償化について伺います。",
		QuestionSummary: "Q：給食費の無償化について伺います？",
		AnswerTexts:     []string{"段階的に検討します。"},
		Answerers:       []string{"市長"},
		Topics:          []string{"教育"},
		Keywords:        []models.KeywordCount{{Keyword: "給食費", Count: 2}},
		FullContent:     "【質問】" + member,
		Published:       published,
		Generation:      "gen-1",
		CreatedAt:       time.Now(),
	}
}

func TestReplaceCardsOverwrites(t *testing.T) {
	client := newTestClient(t)
	insertTestFile(t, client, "file-1")

	first := []models.QuestionCard{
		testCard("card-1", "file-1", "山田太郎", true),
		testCard("card-2", "file-1", "佐藤花子", true),
	}
	if err := client.ReplaceCards("file-1", first); err != nil {
		t.Fatalf("ReplaceCards returned error: %v", err)
	}

	second := []models.QuestionCard{testCard("card-3", "file-1", "鈴木一郎", true)}
	if err := client.ReplaceCards("file-1", second); err != nil {
		t.Fatalf("ReplaceCards returned error: %v", err)
	}

	listed, err := client.ListCards(models.CardFilter{PublishedOnly: true})
	if err != nil {
		t.Fatalf("ListCards returned error: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "card-3" {
		t.Errorf("expected only the replacement card, got %+v", listed)
	}
}

func TestGetCardRoundTrip(t *testing.T) {
	client := newTestClient(t)
	insertTestFile(t, client, "file-1")

	want := testCard("card-1", "file-1", "山田太郎", false)
	if err := client.ReplaceCards("file-1", []models.QuestionCard{want}); err != nil {
		t.Fatalf("ReplaceCards returned error: %v", err)
	}

	got, err := client.GetCard("card-1")
	if err != nil {
		t.Fatalf("GetCard returned error: %v", err)
	}
	if got.MemberName != want.MemberName || got.QuestionText != want.QuestionText {
		t.Errorf("unexpected card %+v", got)
	}
	if len(got.AnswerTexts) != 1 || got.AnswerTexts[0] != "段階的に検討します。" {
		t.Errorf("unexpected answer texts %v", got.AnswerTexts)
	}
	if len(got.Keywords) != 1 || got.Keywords[0].Keyword != "給食費" {
		t.Errorf("unexpected keywords %v", got.Keywords)
	}
	if got.Published {
		t.Error("card should be unpublished")
	}

	if _, err := client.GetCard("missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows for unknown card, got %v", err)
	}
}

func TestListCardsFilters(t *testing.T) {
	client := newTestClient(t)
	insertTestFile(t, client, "file-1")

	cards := []models.QuestionCard{
		testCard("card-1", "file-1", "山田太郎", true),
		testCard("card-2", "file-1", "佐藤花子", true),
		testCard("card-3", "file-1", "田中次郎", false),
	}
	cards[1].Topics = []string{"防災・安全"}
	cards[1].QuestionText = "避難所の備蓄について伺います。"
	if err := client.ReplaceCards("file-1", cards); err != nil {
		t.Fatalf("ReplaceCards returned error: %v", err)
	}

	tests := []struct {
		name   string
		filter models.CardFilter
		want   int
	}{
		{"published only", models.CardFilter{PublishedOnly: true}, 2},
		{"all", models.CardFilter{}, 3},
		{"by member", models.CardFilter{Member: "山田"}, 1},
		{"by topic", models.CardFilter{Topic: "防災・安全"}, 1},
		{"by search", models.CardFilter{Search: "避難所"}, 1},
		{"no match", models.CardFilter{Member: "存在しない"}, 0},
		{"limit", models.CardFilter{Limit: 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listed, err := client.ListCards(tt.filter)
			if err != nil {
				t.Fatalf("ListCards returned error: %v", err)
			}
			if len(listed) != tt.want {
				t.Errorf("expected %d cards, got %d", tt.want, len(listed))
			}
		})
	}
}

func TestViewCountAndPublish(t *testing.T) {
	client := newTestClient(t)
	insertTestFile(t, client, "file-1")
	if err := client.ReplaceCards("file-1", []models.QuestionCard{testCard("card-1", "file-1", "山田太郎", false)}); err != nil {
		t.Fatalf("ReplaceCards returned error: %v", err)
	}

	if err := client.IncrementViewCount("card-1"); err != nil {
		t.Fatalf("IncrementViewCount returned error: %v", err)
	}
	if err := client.IncrementViewCount("card-1"); err != nil {
		t.Fatalf("IncrementViewCount returned error: %v", err)
	}
	if err := client.SetCardPublished("card-1", true); err != nil {
		t.Fatalf("SetCardPublished returned error: %v", err)
	}

	card, err := client.GetCard("card-1")
	if err != nil {
		t.Fatalf("GetCard returned error: %v", err)
	}
	if card.ViewCount != 2 {
		t.Errorf("expected view count 2, got %d", card.ViewCount)
	}
	if !card.Published {
		t.Error("expected card to be published")
	}

	if err := client.IncrementViewCount("missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
	if err := client.SetCardPublished("missing", true); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestMeetingTopics(t *testing.T) {
	client := newTestClient(t)

	meeting := &models.Meeting{ID: "m-1", Title: "令和6年第1回定例会", HeldOn: "2024-03-01", CreatedAt: time.Now()}
	if err := client.UpsertMeeting(meeting); err != nil {
		t.Fatalf("UpsertMeeting returned error: %v", err)
	}

	topics := []models.MeetingTopic{
		{MeetingID: "m-1", Topic: "教育", Count: 5, Percentage: 50},
		{MeetingID: "m-1", Topic: "環境", Count: 5, Percentage: 50},
	}
	if err := client.ReplaceMeetingTopics("m-1", topics); err != nil {
		t.Fatalf("ReplaceMeetingTopics returned error: %v", err)
	}

	replacement := []models.MeetingTopic{{MeetingID: "m-1", Topic: "防災・安全", Count: 3, Percentage: 100}}
	if err := client.ReplaceMeetingTopics("m-1", replacement); err != nil {
		t.Fatalf("ReplaceMeetingTopics returned error: %v", err)
	}

	got, err := client.GetMeetingTopics("m-1")
	if err != nil {
		t.Fatalf("GetMeetingTopics returned error: %v", err)
	}
	if len(got) != 1 || got[0].Topic != "防災・安全" {
		t.Errorf("expected replaced topics, got %+v", got)
	}

	meetings, err := client.ListMeetings()
	if err != nil {
		t.Fatalf("ListMeetings returned error: %v", err)
	}
	if len(meetings) != 1 || meetings[0].Title != "令和6年第1回定例会" {
		t.Errorf("unexpected meetings %+v", meetings)
	}
}
