package cards

import (
	"strings"
	"testing"

	"github.com/gikai-viz/backend/internal/analyzer"
)

func sampleAnalysis() analyzer.SessionAnalysis {
	return analyzer.SessionAnalysis{
		Member:        "山田太郎議員",
		QuestionCount: 1,
		AnswerCount:   2,
		Topics:        []string{"教育", "行政・財政"},
		Keywords:      []analyzer.KeywordCount{{Keyword: "教育予算", Count: 3}},
		Questions: []analyzer.StatementRef{
			{Speaker: "山田太郎議員", Text: "教育予算について伺います。なぜ予算が30%削減されたのですか。"},
		},
		Answers: []analyzer.StatementRef{
			{Speaker: "教育長", Text: "財政上の理由により削減しました。"},
			{Speaker: "教育長", Text: "今後は段階的に回復を進めます。"},
		},
	}
}

func TestGenerateOneToOne(t *testing.T) {
	inputs := [][]analyzer.SessionAnalysis{
		nil,
		{},
		{sampleAnalysis()},
		{sampleAnalysis(), {Member: "田中議員"}, {Member: "佐藤議員"}},
	}
	for _, analyses := range inputs {
		got := Generate(analyses)
		if len(got) != len(analyses) {
			t.Errorf("Generate: %d cards for %d analyses, want 1:1", len(got), len(analyses))
		}
	}
}

func TestGenerateCardFields(t *testing.T) {
	card := Generate([]analyzer.SessionAnalysis{sampleAnalysis()})[0]

	if card.MemberName != "山田太郎議員" {
		t.Errorf("memberName = %q", card.MemberName)
	}
	if !strings.Contains(card.QuestionText, "30%") {
		t.Errorf("questionText = %q", card.QuestionText)
	}
	if len(card.AnswerTexts) != 2 {
		t.Errorf("answerTexts = %v, want 2 entries", card.AnswerTexts)
	}
	// 同一答弁者は重複しない
	if len(card.Answerers) != 1 || card.Answerers[0] != "教育長" {
		t.Errorf("answerers = %v, want [教育長]", card.Answerers)
	}
	if len(card.Topics) != 2 || len(card.Keywords) != 1 {
		t.Errorf("topics/keywords not copied: %v / %v", card.Topics, card.Keywords)
	}
}

func TestGenerateFullContent(t *testing.T) {
	card := Generate([]analyzer.SessionAnalysis{sampleAnalysis()})[0]

	if !strings.HasPrefix(card.FullContent, "【質問】山田太郎議員\n") {
		t.Errorf("fullContent prefix wrong: %q", card.FullContent)
	}
	if strings.Count(card.FullContent, "【答弁】教育長") != 2 {
		t.Errorf("fullContent should carry one 【答弁】 block per answer: %q", card.FullContent)
	}
	if strings.HasSuffix(card.FullContent, "\n") {
		t.Error("fullContent not trimmed")
	}
}

func TestGenerateContentDataOrder(t *testing.T) {
	card := Generate([]analyzer.SessionAnalysis{sampleAnalysis()})[0]

	if len(card.ContentData) != 3 {
		t.Fatalf("contentData = %d items, want 3", len(card.ContentData))
	}
	if card.ContentData[0].Type != "question" {
		t.Errorf("contentData[0].Type = %q, want question", card.ContentData[0].Type)
	}
	for _, item := range card.ContentData[1:] {
		if item.Type != "answer" {
			t.Errorf("contentData item = %+v, want answers after questions", item)
		}
	}
}

func TestGenerateDegenerateSession(t *testing.T) {
	card := Generate([]analyzer.SessionAnalysis{{Member: "山田議員"}})[0]

	if card.QuestionText != "" {
		t.Errorf("questionText = %q, want empty", card.QuestionText)
	}
	if card.QuestionSummary != noQuestionSummary {
		t.Errorf("questionSummary = %q, want %q", card.QuestionSummary, noQuestionSummary)
	}
	if !strings.Contains(card.AnswerSummary, noAnswerSummary) {
		t.Errorf("answerSummary = %q, want to contain %q", card.AnswerSummary, noAnswerSummary)
	}
	if !strings.HasPrefix(card.FullContent, "【質問】山田議員") {
		t.Errorf("fullContent = %q", card.FullContent)
	}
}
