// Package cards turns session analyses into the user-facing card records of
// the public site.
package cards

import (
	"strings"

	"github.com/gikai-viz/backend/internal/analyzer"
)

// ContentItem tags one statement inside a card's structured content.
type ContentItem struct {
	Type    string `json:"type"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Card is the summarized representation of one session. Persistence concerns
// (IDs, publish state, view counts) live on the storage model; this is the
// pipeline's pure output.
type Card struct {
	MemberName      string                  `json:"memberName"`
	Faction         string                  `json:"faction"`
	QuestionText    string                  `json:"questionText"`
	QuestionSummary string                  `json:"questionSummary"`
	AnswerTexts     []string                `json:"answerTexts"`
	Answerers       []string                `json:"answerers"`
	AnswerSummary   string                  `json:"answerSummary"`
	Topics          []string                `json:"topics"`
	Keywords        []analyzer.KeywordCount `json:"keywords"`
	FullContent     string                  `json:"fullContent"`
	ContentData     []ContentItem           `json:"contentData"`
}

// Generate produces one card per session analysis, order preserved. A
// degenerate analysis (no questions, no answers) still yields a card with
// the fallback summaries.
func Generate(analyses []analyzer.SessionAnalysis) []Card {
	generated := make([]Card, 0, len(analyses))
	for _, sa := range analyses {
		generated = append(generated, generateOne(sa))
	}
	return generated
}

func generateOne(sa analyzer.SessionAnalysis) Card {
	card := Card{
		MemberName:  sa.Member,
		AnswerTexts: []string{},
		Answerers:   []string{},
		Topics:      sa.Topics,
		Keywords:    sa.Keywords,
		ContentData: []ContentItem{},
	}

	questionTexts := make([]string, 0, len(sa.Questions))
	for _, q := range sa.Questions {
		questionTexts = append(questionTexts, q.Text)
		card.ContentData = append(card.ContentData, ContentItem{Type: "question", Speaker: q.Speaker, Text: q.Text})
	}
	card.QuestionText = strings.Join(questionTexts, "\n\n")
	card.QuestionSummary = SummarizeQuestion(card.QuestionText)

	seen := make(map[string]bool)
	for _, ans := range sa.Answers {
		card.AnswerTexts = append(card.AnswerTexts, ans.Text)
		if !seen[ans.Speaker] {
			seen[ans.Speaker] = true
			card.Answerers = append(card.Answerers, ans.Speaker)
		}
		card.ContentData = append(card.ContentData, ContentItem{Type: "answer", Speaker: ans.Speaker, Text: ans.Text})
	}
	card.AnswerSummary = SummarizeAnswer(card.AnswerTexts)

	card.FullContent = buildFullContent(sa)

	return card
}

// buildFullContent reconstructs a human-readable transcript:【質問】 block
// first, then one 【答弁】 block per answer statement.
func buildFullContent(sa analyzer.SessionAnalysis) string {
	var b strings.Builder

	b.WriteString("【質問】")
	b.WriteString(sa.Member)
	b.WriteString("\n")
	for i, q := range sa.Questions {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(q.Text)
	}
	b.WriteString("\n\n")

	for _, ans := range sa.Answers {
		b.WriteString("【答弁】")
		b.WriteString(ans.Speaker)
		b.WriteString("\n")
		b.WriteString(ans.Text)
		b.WriteString("\n\n")
	}

	return strings.TrimSpace(b.String())
}
