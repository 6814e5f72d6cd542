package cards

import (
	"encoding/json"
	"regexp"
	"strings"
)

const (
	questionLineLimit = 3
	sentenceMinRunes  = 15
	questionMaxRunes  = 80
	answerMaxRunes    = 100
	questionClipRunes = 60
	answerClipRunes   = 80
	noQuestionSummary = "Q：質問なし"
	noAnswerSummary   = "A：答弁なし"
)

// Polite formulas, salutations and hedges stripped before sentence selection.
var boilerplatePhrases = []string{
	"お伺いいたします", "お伺いします",
	"お聞きいたします", "お聞きします",
	"お尋ねいたします", "お尋ねします",
	"質問させていただきます", "質問いたします",
	"よろしくお願いいたします", "よろしくお願いします",
	"ありがとうございました", "ありがとうございます",
	"ご答弁をお願いします", "お答えください",
	"と考えておりますが", "と思いますが", "と思います",
}

var numericStatRe = regexp.MustCompile(`[0-9０-９][0-9０-９,，.．]*(?:％|%|件|人|円|万|億|回|年度|月|日)`)

// Sentence-selection rules for the question summary, in priority order.
// Each rule contributes at most maxPick sentences; the summary caps at
// three lines overall.
var questionRules = []struct {
	name    string
	maxPick int
	matches func(s string) bool
}{
	{
		name:    "numeric-statistic",
		maxPick: 1,
		matches: func(s string) bool {
			return numericStatRe.MatchString(s) &&
				runeLen(s) < questionMaxRunes &&
				!strings.Contains(s, "昨年") &&
				!strings.Contains(s, "アンケート")
		},
	},
	{
		name:    "interrogative",
		maxPick: 2,
		matches: func(s string) bool {
			n := runeLen(s)
			return (strings.Contains(s, "か") || strings.Contains(s, "？")) &&
				n >= sentenceMinRunes && n < questionMaxRunes
		},
	},
	{
		name:    "problem-statement",
		maxPick: 1,
		matches: func(s string) bool {
			n := runeLen(s)
			return containsAny(s, "課題", "問題", "必要", "求める") &&
				n >= sentenceMinRunes && n < questionMaxRunes
		},
	},
}

// SummarizeQuestion compresses the concatenated question text into up to
// three Q： bullet lines. Degenerate input falls back rather than failing.
func SummarizeQuestion(text string) string {
	sentences := splitSentences(stripBoilerplate(text))
	if len(sentences) == 0 {
		return noQuestionSummary
	}

	var selected []string
	picked := make(map[string]bool)
	for _, rule := range questionRules {
		taken := 0
		for _, s := range sentences {
			if len(selected) >= questionLineLimit || taken >= rule.maxPick {
				break
			}
			if picked[s] || !rule.matches(s) {
				continue
			}
			selected = append(selected, s)
			picked[s] = true
			taken++
		}
	}

	if len(selected) == 0 {
		selected = []string{fallbackSentence(sentences, questionMaxRunes, questionClipRunes)}
	}

	lines := make([]string, 0, len(selected))
	for _, s := range selected {
		lines = append(lines, "Q："+terminateQuestion(s))
	}
	return strings.Join(lines, "\n")
}

// SummarizeAnswer condenses all answer texts of a session into one causal or
// status sentence plus one action sentence, rendered as a JSON object
// {"issues": "A：…", "future": ""}. The future slot is a legacy schema field
// and stays empty.
func SummarizeAnswer(answerTexts []string) string {
	joined := strings.TrimSpace(strings.Join(answerTexts, "\n"))
	if joined == "" {
		return encodeAnswerSummary(noAnswerSummary)
	}

	sentences := splitSentences(stripBoilerplate(joined))
	if len(sentences) == 0 {
		return encodeAnswerSummary(noAnswerSummary)
	}

	causal := firstMatch(sentences, "", func(s string) bool {
		return containsAny(s, "原因", "理由", "ため", "により") && runeLen(s) < answerMaxRunes
	})
	if causal == "" {
		causal = firstMatch(sentences, "", func(s string) bool {
			return (containsAny(s, "現状", "状況", "実態") || numericStatRe.MatchString(s)) &&
				runeLen(s) < answerMaxRunes
		})
	}
	action := firstMatch(sentences, causal, func(s string) bool {
		return containsAny(s, "進めます", "実施", "行います", "取り組", "推進", "検討") &&
			runeLen(s) < answerMaxRunes
	})

	var picks []string
	if causal != "" {
		picks = append(picks, causal)
	}
	if action != "" {
		picks = append(picks, action)
	}
	if len(picks) == 0 {
		for _, s := range sentences {
			if runeLen(s) < answerMaxRunes {
				picks = append(picks, s)
			}
			if len(picks) == 2 {
				break
			}
		}
	}
	if len(picks) == 0 {
		picks = []string{clipRunes(sentences[0], answerClipRunes) + "…"}
	}

	return encodeAnswerSummary("A：" + strings.Join(picks, "。") + "。")
}

type answerSummary struct {
	Issues string `json:"issues"`
	Future string `json:"future"`
}

func encodeAnswerSummary(issues string) string {
	data, _ := json.Marshal(answerSummary{Issues: issues})
	return string(data)
}

func stripBoilerplate(text string) string {
	for _, phrase := range boilerplatePhrases {
		text = strings.ReplaceAll(text, phrase, "")
	}
	return text
}

// splitSentences breaks text on 。！？, dropping the delimiters and any
// blank fragments.
func splitSentences(text string) []string {
	var sentences []string
	var buf strings.Builder
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			sentences = append(sentences, s)
		}
		buf.Reset()
	}
	for _, r := range text {
		switch r {
		case '。', '！', '？':
			flush()
		case '\n':
			buf.WriteRune(' ')
		default:
			buf.WriteRune(r)
		}
	}
	flush()
	return sentences
}

// terminateQuestion restores terminal punctuation: ？ for sentences ending
// in か, 。 otherwise.
func terminateQuestion(s string) string {
	if strings.HasSuffix(s, "か") {
		return s + "？"
	}
	if !strings.HasSuffix(s, "？") && !strings.HasSuffix(s, "。") {
		return s + "。"
	}
	return s
}

func fallbackSentence(sentences []string, maxRunes, clip int) string {
	for _, s := range sentences {
		if n := runeLen(s); n >= sentenceMinRunes && n < maxRunes {
			return s
		}
	}
	first := sentences[0]
	if runeLen(first) > clip {
		return clipRunes(first, clip) + "…"
	}
	return first
}

func firstMatch(sentences []string, exclude string, matches func(string) bool) string {
	for _, s := range sentences {
		if s != exclude && matches(s) {
			return s
		}
	}
	return ""
}

func containsAny(s string, tokens ...string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func runeLen(s string) int {
	return len([]rune(s))
}

func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
