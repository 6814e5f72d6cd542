package parser

import (
	"regexp"
	"strings"
)

// Session is one council member's complete speaking turn, bounded by the
// explicit 発言を許します / 発言を終わります markers in the transcript.
type Session struct {
	Member           string      `json:"member"`
	Statements       []Statement `json:"statements"`
	StartMarker      string      `json:"startMarker"`
	EndMarker        string      `json:"endMarker"`
	ClosedImplicitly bool        `json:"closedImplicitly"`
}

// ParseResult holds the sessions found in a transcript plus every statement
// parsed while no session was open.
type ParseResult struct {
	Sessions        []Session   `json:"sessions"`
	OtherStatements []Statement `json:"otherStatements"`
}

// Council-proceeding idioms. The member name is a maximal run of
// non-whitespace, non-punctuation characters ending in 議員 or 君.
var (
	sessionStartRe = regexp.MustCompile(`([^\s　、。．（）「」]+(?:議員|君))の発言を許します`)
	sessionEndRe   = regexp.MustCompile(`以上で、([^\s　、。．（）「」]+(?:議員|君))の発言を終(?:わり|え)ます`)
	circleLineRe   = regexp.MustCompile(`^○[\s　]*(.+)$`)
)

// SessionBuilder runs the line scan with session-boundary awareness.
type SessionBuilder struct {
	observer Observer
}

// NewSessionBuilder returns a builder reporting to the given observer.
// A nil observer disables tracing.
func NewSessionBuilder(observer Observer) *SessionBuilder {
	if observer == nil {
		observer = nopObserver{}
	}
	return &SessionBuilder{observer: observer}
}

// ParseSessions is the package-level convenience form with tracing disabled.
func ParseSessions(text string) ParseResult {
	return NewSessionBuilder(nil).Parse(text)
}

// Parse scans the transcript and groups statements into sessions. Sessions
// never nest: a start marker while a session is open closes the previous one
// implicitly. An unterminated session at end of input is still emitted.
// Malformed input never fails; unattributable statements land in
// OtherStatements.
func (b *SessionBuilder) Parse(text string) ParseResult {
	result := ParseResult{
		Sessions:        []Session{},
		OtherStatements: []Statement{},
	}

	var (
		current *Session
		speaker string
		buf     strings.Builder
	)

	flush := func() {
		s := strings.TrimSpace(speaker)
		t := strings.TrimSpace(buf.String())
		speaker = ""
		buf.Reset()
		if s == "" || t == "" {
			return
		}
		st := Statement{Speaker: s, Text: t, Role: Classify(s)}
		b.observer.StatementParsed(st.Speaker, st.Role)
		if current != nil {
			current.Statements = append(current.Statements, st)
		} else {
			result.OtherStatements = append(result.OtherStatements, st)
		}
	}

	closeSession := func(endMarker string, implicit bool) {
		if current == nil {
			return
		}
		current.EndMarker = endMarker
		current.ClosedImplicitly = implicit
		b.observer.SessionClosed(current.Member, len(current.Statements), implicit)
		result.Sessions = append(result.Sessions, *current)
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := sessionEndRe.FindStringSubmatch(trimmed); m != nil {
			flush()
			closeSession(trimmed, false)
			continue
		}

		if m := sessionStartRe.FindStringSubmatch(trimmed); m != nil {
			flush()
			closeSession("", true)
			current = &Session{
				Member:      m[1],
				Statements:  []Statement{},
				StartMarker: trimmed,
			}
			b.observer.SessionStarted(current.Member)
			continue
		}

		if label, rest, ok := matchSessionSpeakerLine(trimmed); ok {
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
	closeSession("", true)

	return result
}

// matchSessionSpeakerLine is the session-aware variant of the speaker-line
// match. A circle-form label may itself contain a closing parenthesis, e.g.
// 「○議　長（長友潤治君）　健康部長。」: the label runs up to and including
// the first ）, the remainder after whitespace is the statement text. Without
// a ） the line splits at the first whitespace run as in the plain segmenter.
func matchSessionSpeakerLine(line string) (label, rest string, ok bool) {
	if m := bracketSpeakerRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	if m := diamondSpeakerRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	m := circleLineRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	body := m[1]
	if i := strings.Index(body, "）"); i >= 0 {
		label = body[:i+len("）")]
		rest = strings.TrimSpace(body[i+len("）"):])
		return strings.TrimSpace(label), rest, true
	}
	if mm := circleSpeakerRe.FindStringSubmatch("○" + body); mm != nil {
		return strings.TrimSpace(mm[1]), strings.TrimSpace(mm[2]), true
	}
	return strings.TrimSpace(body), "", true
}
