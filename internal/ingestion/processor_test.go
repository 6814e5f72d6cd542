package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/gikai-viz/backend/internal/extract"
	"github.com/gikai-viz/backend/internal/storage/models"
	"github.com/gikai-viz/backend/internal/storage/objectstore"
	"github.com/gikai-viz/backend/internal/storage/sqlite"
	"github.com/gikai-viz/backend/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init("error", "console", "stdout"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const sampleTranscript = `○議長　山田太郎議員の発言を許します。
【山田太郎議員】　学校給食費の無償化について伺います。現在の徴収額は年間５億円と聞いています。
【教育長】　給食費の無償化については、財政上の理由から段階的に検討を進めます。
○議長　以上で、山田太郎議員の発言を終わります。
○議長　佐藤花子議員の発言を許します。
【佐藤花子議員】　避難所の備蓄は十分でしょうか。
【市長】　備蓄については必要量を確保しています。
○議長　以上で、佐藤花子議員の発言を終わります。
`

func newTestProcessor(t *testing.T) (*Processor, *sqlite.Client) {
	t.Helper()
	dir := t.TempDir()

	db, err := sqlite.NewClient(dir + "/test.db")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}

	store, err := objectstore.NewStore(dir + "/files")
	if err != nil {
		t.Fatalf("failed to create object store: %v", err)
	}

	return NewProcessor(db, store, extract.NewRegistry(), nil, 2), db
}

func TestIngestAndProcessFile(t *testing.T) {
	processor, db := newTestProcessor(t)
	ctx := context.Background()

	file, err := processor.Ingest(ctx, UploadRequest{
		FileName: "teirei.txt",
		FileType: "txt",
		Content:  []byte(sampleTranscript),
	})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	outcome, err := processor.ProcessFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("ProcessFile returned error: %v", err)
	}
	if outcome.Sessions != 2 || outcome.Cards != 2 {
		t.Errorf("expected 2 sessions and 2 cards, got %+v", outcome)
	}

	cards, err := db.ListCards(models.CardFilter{})
	if err != nil {
		t.Fatalf("ListCards returned error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 stored cards, got %d", len(cards))
	}

	byMember := make(map[string]models.QuestionCard)
	for _, card := range cards {
		byMember[card.MemberName] = card
		if card.Generation == "" {
			t.Error("card missing generation key")
		}
		if card.Published {
			t.Error("pipeline cards should start unpublished")
		}
	}

	yamada, ok := byMember["山田太郎議員"]
	if !ok {
		t.Fatalf("missing card for 山田太郎議員: %v", byMember)
	}
	if len(yamada.Answerers) != 1 || yamada.Answerers[0] != "教育長" {
		t.Errorf("unexpected answerers %v", yamada.Answerers)
	}

	stored, err := db.GetMinutesFile(file.ID)
	if err != nil {
		t.Fatalf("GetMinutesFile returned error: %v", err)
	}
	if !stored.Processed {
		t.Error("file should be marked processed")
	}

	var blob struct {
		SessionAnalyses []json.RawMessage `json:"sessionAnalyses"`
		Stats           struct {
			Sessions int `json:"sessions"`
		} `json:"stats"`
	}
	if err := json.Unmarshal([]byte(stored.AnalysisData), &blob); err != nil {
		t.Fatalf("analysis data is not valid JSON: %v", err)
	}
	if blob.Stats.Sessions != 2 || len(blob.SessionAnalyses) != 2 {
		t.Errorf("unexpected analysis blob: sessions=%d analyses=%d", blob.Stats.Sessions, len(blob.SessionAnalyses))
	}
}

func TestProcessFileReplacesPriorGeneration(t *testing.T) {
	processor, db := newTestProcessor(t)
	ctx := context.Background()

	file, err := processor.Ingest(ctx, UploadRequest{
		FileName: "teirei.txt",
		FileType: "txt",
		Content:  []byte(sampleTranscript),
	})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	if _, err := processor.ProcessFile(ctx, file.ID); err != nil {
		t.Fatalf("first ProcessFile returned error: %v", err)
	}
	first, _ := db.ListCards(models.CardFilter{})

	if _, err := processor.ProcessFile(ctx, file.ID); err != nil {
		t.Fatalf("second ProcessFile returned error: %v", err)
	}
	second, _ := db.ListCards(models.CardFilter{})

	if len(first) != len(second) {
		t.Fatalf("reparse changed card count: %d vs %d", len(first), len(second))
	}
	if first[0].Generation == second[0].Generation {
		t.Error("reparse should produce a new generation key")
	}
}

func TestProcessFileUnsupportedType(t *testing.T) {
	processor, db := newTestProcessor(t)
	ctx := context.Background()

	file, err := processor.Ingest(ctx, UploadRequest{
		FileName: "minutes.pdf",
		FileType: "pdf",
		Content:  []byte("%PDF-1.4"),
	})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	_, err = processor.ProcessFile(ctx, file.ID)
	if !errors.Is(err, extract.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}

	stored, err := db.GetMinutesFile(file.ID)
	if err != nil {
		t.Fatalf("GetMinutesFile returned error: %v", err)
	}
	if stored.Processed {
		t.Error("failed file should stay unprocessed")
	}
	if stored.ErrorMessage == "" {
		t.Error("failed file should record an error message")
	}
}

func TestImportCSVCreatesCards(t *testing.T) {
	processor, db := newTestProcessor(t)
	ctx := context.Background()

	csvData := "議員名,会派,テーマ番号,テーマタイトル,質問のポイント,回答のポイント,分野タグ\n" +
		"山田太郎,市民の会,1,給食費の無償化,財源は,段階的に検討,教育\n" +
		"佐藤花子,無所属,1,備蓄,量は,確保済み,防災・安全\n"

	outcome, err := processor.ImportCSV(ctx, "themes.csv", "", []byte(csvData))
	if err != nil {
		t.Fatalf("ImportCSV returned error: %v", err)
	}
	if outcome.Members != 2 || outcome.Cards != 2 {
		t.Errorf("unexpected outcome %+v", outcome)
	}

	cards, err := db.ListCards(models.CardFilter{})
	if err != nil {
		t.Fatalf("ListCards returned error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 imported cards, got %d", len(cards))
	}
	for _, card := range cards {
		if len(card.Themes) != 1 {
			t.Errorf("imported card should carry themes: %+v", card)
		}
		if card.QuestionSummary != "" {
			t.Errorf("imported cards bypass the summarizer, got %q", card.QuestionSummary)
		}
	}
}

func TestReparseAllReportsProgress(t *testing.T) {
	processor, _ := newTestProcessor(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		file, err := processor.Ingest(ctx, UploadRequest{
			FileName: "teirei.txt",
			FileType: "txt",
			Content:  []byte(sampleTranscript),
		})
		if err != nil {
			t.Fatalf("Ingest returned error: %v", err)
		}
		if _, err := processor.ProcessFile(ctx, file.ID); err != nil {
			t.Fatalf("ProcessFile returned error: %v", err)
		}
	}

	var events []FileProgress
	summary, err := processor.ReparseAll(ctx, func(progress FileProgress) {
		events = append(events, progress)
	})
	if err != nil {
		t.Fatalf("ReparseAll returned error: %v", err)
	}

	if summary.TotalFiles != 2 || summary.ProcessedFiles != 2 || summary.FailedFiles != 0 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.CardsGenerated != 4 {
		t.Errorf("expected 4 cards across reparse, got %d", summary.CardsGenerated)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 progress events, got %d", len(events))
	}
	for i, event := range events {
		if event.Index != i+1 || event.Total != 2 || !event.Succeeded {
			t.Errorf("unexpected progress event %+v", event)
		}
	}
}
