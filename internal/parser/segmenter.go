package parser

import (
	"regexp"
	"strings"
)

// Statement is one attributed utterance extracted from the transcript.
type Statement struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Role    Role   `json:"role"`
}

// Speaker marker forms, in priority order. 全角スペース（U+3000）は \s に
// 含まれないため明示的にクラスへ入れている。
var (
	bracketSpeakerRe = regexp.MustCompile(`^【(.+?)】(.*)$`)
	diamondSpeakerRe = regexp.MustCompile(`^[◆◇](.+?)[◆◇](.*)$`)
	circleSpeakerRe  = regexp.MustCompile(`^○([^\s　]+)[\s　]*(.*)$`)
)

// Segment splits raw extracted minutes text into an ordered list of
// statements. Lines that start a new speaker flush the previous accumulator;
// any other non-blank line is appended to the current statement. Blank lines
// neither terminate nor separate accumulation.
func Segment(text string) []Statement {
	var (
		statements []Statement
		speaker    string
		buf        strings.Builder
	)

	flush := func() {
		s := strings.TrimSpace(speaker)
		t := strings.TrimSpace(buf.String())
		if s != "" && t != "" {
			statements = append(statements, Statement{
				Speaker: s,
				Text:    t,
				Role:    Classify(s),
			})
		}
		speaker = ""
		buf.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if label, rest, ok := matchSpeakerLine(trimmed); ok {
			flush()
			speaker = label
			buf.WriteString(rest)
			continue
		}

		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(trimmed)
	}
	flush()

	return statements
}

// matchSpeakerLine recognizes the three marker forms of a new speaker turn.
// For the circle form the label is everything up to the first whitespace run.
func matchSpeakerLine(line string) (label, rest string, ok bool) {
	if m := bracketSpeakerRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	if m := diamondSpeakerRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	if m := circleSpeakerRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	return "", "", false
}
