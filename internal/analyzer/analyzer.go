package analyzer

import (
	"math"
	"sort"
	"strings"

	"github.com/gikai-viz/backend/internal/parser"
)

const (
	defaultMinKeywordLength = 2
	sessionKeywordLimit     = 10
	sessionTopicLimit       = 3
	overallKeywordLimit     = 30
	activeMemberLimit       = 10
	previewLimit            = 3
	previewMaxRunes         = 100
)

// StatementRef is a (speaker, text) pair split out of a session by role.
type StatementRef struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// NameCount pairs a person's name with an occurrence count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SessionAnalysis is the derived view of one session. It is ephemeral: the
// card generator and the per-file analysis blob fold it into persisted data.
type SessionAnalysis struct {
	Member           string         `json:"member"`
	QuestionCount    int            `json:"questionCount"`
	AnswerCount      int            `json:"answerCount"`
	Topics           []string       `json:"topics"`
	Keywords         []KeywordCount `json:"keywords"`
	Questions        []StatementRef `json:"questions"`
	Answers          []StatementRef `json:"answers"`
	QuestionPreviews []string       `json:"questionPreviews"`
	AnswererCounts   []NameCount    `json:"answererCounts"`
}

// TopicShare is one slice of the per-file topic distribution.
type TopicShare struct {
	Topic      string `json:"topic"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// OverallAnalysis aggregates every session of one minutes file.
type OverallAnalysis struct {
	SessionCount        int            `json:"sessionCount"`
	QuestionTotal       int            `json:"questionTotal"`
	AnswerTotal         int            `json:"answerTotal"`
	Keywords            []KeywordCount `json:"keywords"`
	TopicDistribution   []TopicShare   `json:"topicDistribution"`
	MostActiveMembers   []NameCount    `json:"mostActiveMembers"`
	MostActiveAnswerers []NameCount    `json:"mostActiveAnswerers"`
}

// Analyzer derives keyword, topic and activity statistics from sessions.
type Analyzer struct {
	minKeywordLength int
}

func New(minKeywordLength int) *Analyzer {
	if minKeywordLength <= 0 {
		minKeywordLength = defaultMinKeywordLength
	}
	return &Analyzer{minKeywordLength: minKeywordLength}
}

// AnalyzeSession derives the per-session statistics. Degenerate sessions
// (zero statements) yield an analysis with empty tables, never an error.
func (a *Analyzer) AnalyzeSession(session parser.Session) SessionAnalysis {
	analysis := SessionAnalysis{
		Member:           session.Member,
		Topics:           []string{},
		Keywords:         []KeywordCount{},
		Questions:        []StatementRef{},
		Answers:          []StatementRef{},
		QuestionPreviews: []string{},
		AnswererCounts:   []NameCount{},
	}

	var fullText strings.Builder
	answererCounts := make(map[string]int)
	var answererOrder []string

	for _, st := range session.Statements {
		fullText.WriteString(st.Text)
		fullText.WriteString("\n")
		switch st.Role {
		case parser.RoleQuestion:
			analysis.QuestionCount++
			analysis.Questions = append(analysis.Questions, StatementRef{Speaker: st.Speaker, Text: st.Text})
		case parser.RoleAnswer:
			analysis.AnswerCount++
			analysis.Answers = append(analysis.Answers, StatementRef{Speaker: st.Speaker, Text: st.Text})
			if _, seen := answererCounts[st.Speaker]; !seen {
				answererOrder = append(answererOrder, st.Speaker)
			}
			answererCounts[st.Speaker]++
		}
	}

	keywords := ExtractKeywords(fullText.String(), a.minKeywordLength)
	analysis.Keywords = topKeywords(keywords, sessionKeywordLimit)
	analysis.Topics = topTopicNames(ClassifyTopics(keywords), sessionTopicLimit)

	for i, q := range analysis.Questions {
		if i >= previewLimit {
			break
		}
		analysis.QuestionPreviews = append(analysis.QuestionPreviews, preview(q.Text))
	}

	for _, name := range answererOrder {
		analysis.AnswererCounts = append(analysis.AnswererCounts, NameCount{Name: name, Count: answererCounts[name]})
	}
	sort.SliceStable(analysis.AnswererCounts, func(i, j int) bool {
		return analysis.AnswererCounts[i].Count > analysis.AnswererCounts[j].Count
	})

	return analysis
}

// AnalyzeOverall aggregates session analyses across one file.
func (a *Analyzer) AnalyzeOverall(analyses []SessionAnalysis) OverallAnalysis {
	overall := OverallAnalysis{
		SessionCount:        len(analyses),
		Keywords:            []KeywordCount{},
		TopicDistribution:   []TopicShare{},
		MostActiveMembers:   []NameCount{},
		MostActiveAnswerers: []NameCount{},
	}

	keywordCounts := make(map[string]int)
	var keywordOrder []string
	topicCounts := make(map[string]int)
	memberCounts := make(map[string]int)
	var memberOrder []string
	answererCounts := make(map[string]int)
	var answererOrder []string

	for _, sa := range analyses {
		overall.QuestionTotal += sa.QuestionCount
		overall.AnswerTotal += sa.AnswerCount

		for _, kw := range sa.Keywords {
			if _, seen := keywordCounts[kw.Keyword]; !seen {
				keywordOrder = append(keywordOrder, kw.Keyword)
			}
			keywordCounts[kw.Keyword] += kw.Count
		}
		for _, topic := range sa.Topics {
			topicCounts[topic]++
		}
		if sa.Member != "" {
			if _, seen := memberCounts[sa.Member]; !seen {
				memberOrder = append(memberOrder, sa.Member)
			}
			memberCounts[sa.Member] += sa.QuestionCount
		}
		for _, ac := range sa.AnswererCounts {
			if _, seen := answererCounts[ac.Name]; !seen {
				answererOrder = append(answererOrder, ac.Name)
			}
			answererCounts[ac.Name] += ac.Count
		}
	}

	merged := make([]KeywordCount, 0, len(keywordOrder))
	for _, kw := range keywordOrder {
		merged = append(merged, KeywordCount{Keyword: kw, Count: keywordCounts[kw]})
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Count > merged[j].Count
	})
	overall.Keywords = topKeywords(merged, overallKeywordLimit)

	totalTopics := 0
	for _, count := range topicCounts {
		totalTopics += count
	}
	// 分布は分類順で安定させる
	for _, category := range Taxonomy {
		count, ok := topicCounts[category.Name]
		if !ok {
			continue
		}
		overall.TopicDistribution = append(overall.TopicDistribution, TopicShare{
			Topic:      category.Name,
			Count:      count,
			Percentage: int(math.Round(100 * float64(count) / float64(totalTopics))),
		})
	}
	sort.SliceStable(overall.TopicDistribution, func(i, j int) bool {
		return overall.TopicDistribution[i].Count > overall.TopicDistribution[j].Count
	})

	overall.MostActiveMembers = rankNames(memberOrder, memberCounts, activeMemberLimit)
	overall.MostActiveAnswerers = rankNames(answererOrder, answererCounts, activeMemberLimit)

	return overall
}

func rankNames(order []string, counts map[string]int, limit int) []NameCount {
	ranked := make([]NameCount, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, NameCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func preview(text string) string {
	flattened := strings.Join(strings.Fields(strings.ReplaceAll(text, "\n", " ")), " ")
	runes := []rune(flattened)
	if len(runes) <= previewMaxRunes {
		return flattened
	}
	return string(runes[:previewMaxRunes]) + "…"
}
