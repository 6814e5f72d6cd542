package cards

import (
	"encoding/json"
	"strings"
	"testing"
)

func decodeAnswerSummary(t *testing.T, raw string) answerSummary {
	t.Helper()
	var s answerSummary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("answer summary is not valid JSON: %v (%q)", err, raw)
	}
	return s
}

func TestSummarizeQuestionNumericRule(t *testing.T) {
	got := SummarizeQuestion("教育予算について伺います。なぜ予算が30%削減されたのですか。")

	if !strings.HasPrefix(got, "Q：") {
		t.Fatalf("summary %q does not start with Q：", got)
	}
	if !strings.Contains(got, "30%") {
		t.Errorf("summary %q does not contain the numeric statistic", got)
	}
	if !strings.Contains(got, "？") {
		t.Errorf("summary %q: sentence ending in か should gain ？", got)
	}
}

func TestSummarizeQuestionNumericExclusions(t *testing.T) {
	// 昨年・アンケート絡みの統計文は選ばれない
	got := SummarizeQuestion("昨年は和解金が500万円支払われたとのことでした。市の対応に課題があると考えるがどうか。")
	if strings.Contains(got, "昨年") {
		t.Errorf("summary %q picked an excluded 昨年 sentence", got)
	}
	if !strings.Contains(got, "課題") {
		t.Errorf("summary %q: expected the problem-statement sentence", got)
	}
}

func TestSummarizeQuestionInterrogativeCap(t *testing.T) {
	text := "通学路の安全対策はどうなっていますか。" +
		"スクールバスの運行は検討されていますか。" +
		"見守り活動への支援は行われていますか。"
	got := SummarizeQuestion(text)

	lines := strings.Split(got, "\n")
	if len(lines) > 3 {
		t.Fatalf("summary has %d lines, want <= 3:\n%s", len(lines), got)
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "Q：") {
			t.Errorf("line %q does not start with Q：", line)
		}
	}
}

func TestSummarizeQuestionFallbackShortSentence(t *testing.T) {
	// 10 runes: below every length threshold; fallback must still produce a
	// non-empty Q： line.
	got := SummarizeQuestion("短い質問文です。")
	if !strings.HasPrefix(got, "Q：") || len(got) <= len("Q：") {
		t.Fatalf("fallback summary = %q, want non-empty Q： line", got)
	}
}

func TestSummarizeQuestionEmpty(t *testing.T) {
	if got := SummarizeQuestion(""); got != noQuestionSummary {
		t.Errorf("empty question summary = %q, want %q", got, noQuestionSummary)
	}
}

func TestSummarizeAnswerCausalAndAction(t *testing.T) {
	raw := SummarizeAnswer([]string{"財政上の理由により削減しました。今後は段階的に回復を進めます。"})
	s := decodeAnswerSummary(t, raw)

	if !strings.HasPrefix(s.Issues, "A：") {
		t.Errorf("issues = %q, want A： prefix", s.Issues)
	}
	if !strings.Contains(s.Issues, "財政上の理由") {
		t.Errorf("issues = %q, want causal sentence 財政上の理由…", s.Issues)
	}
	if !strings.Contains(s.Issues, "進めます") {
		t.Errorf("issues = %q, want action sentence", s.Issues)
	}
	if s.Future != "" {
		t.Errorf("future = %q, want empty (legacy field)", s.Future)
	}
}

func TestSummarizeAnswerStatusFallback(t *testing.T) {
	raw := SummarizeAnswer([]string{"避難所の現状は耐震化率70%です。今後も整備を実施してまいります。"})
	s := decodeAnswerSummary(t, raw)
	if !strings.Contains(s.Issues, "現状") {
		t.Errorf("issues = %q, want the status sentence", s.Issues)
	}
	if !strings.Contains(s.Issues, "実施") {
		t.Errorf("issues = %q, want the action sentence", s.Issues)
	}
}

func TestSummarizeAnswerNoAnswers(t *testing.T) {
	for _, input := range [][]string{nil, {}, {""}} {
		s := decodeAnswerSummary(t, SummarizeAnswer(input))
		if s.Issues != noAnswerSummary {
			t.Errorf("SummarizeAnswer(%v).issues = %q, want %q", input, s.Issues, noAnswerSummary)
		}
		if s.Future != "" {
			t.Errorf("future = %q, want empty", s.Future)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"一文目。二文目。", 2},
		{"質問です！答えは？", 2},
		{"末尾に句点なし", 1},
		{"", 0},
		{"。。。", 0},
	}
	for _, tt := range tests {
		if got := splitSentences(tt.text); len(got) != tt.want {
			t.Errorf("splitSentences(%q) = %v, want %d sentences", tt.text, got, tt.want)
		}
	}
}

func TestTerminateQuestion(t *testing.T) {
	tests := []struct{ in, want string }{
		{"なぜ削減されたのですか", "なぜ削減されたのですか？"},
		{"対策が必要です", "対策が必要です。"},
		{"既に終止している。", "既に終止している。"},
	}
	for _, tt := range tests {
		if got := terminateQuestion(tt.in); got != tt.want {
			t.Errorf("terminateQuestion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
