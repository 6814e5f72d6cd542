package parser

import (
	"regexp"
	"strings"
	"unicode"
)

// Role classifies who a statement came from.
type Role string

const (
	RoleQuestion Role = "question"
	RoleAnswer   Role = "answer"
	RoleOther    Role = "other"
)

// Speaker labels are classified against an ordered rule table. Answer rules
// run first: an executive title wins even when the label also carries an
// honorific, e.g. 市　長（Ｃ君） is an answer, not a question.
var classifierRules = []struct {
	role  Role
	match func(label string) bool
}{
	{RoleAnswer, containsAnyOf(
		"市長", "副市長", "町長", "村長",
		"部長", "課長", "局長", "次長", "室長",
		"参事", "理事", "教育長", "委員長", "事務局長",
	)},
	{RoleAnswer, hasAnyPrefix("議長", "副議長")},
	{RoleQuestion, matchesPattern(`(議員|君|氏)）?$`)},
}

// Classify maps a raw speaker label to a role. Pure function: same label
// always yields the same role. Transcripts pad titles with 全角スペース
// （議　長、市　長）, so matching runs on the label with whitespace removed.
func Classify(speakerLabel string) Role {
	label := stripSpaces(speakerLabel)
	for _, r := range classifierRules {
		if r.match(label) {
			return r.role
		}
	}
	return RoleOther
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func containsAnyOf(tokens ...string) func(string) bool {
	return func(label string) bool {
		for _, t := range tokens {
			if strings.Contains(label, t) {
				return true
			}
		}
		return false
	}
}

func hasAnyPrefix(prefixes ...string) func(string) bool {
	return func(label string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(label, p) {
				return true
			}
		}
		return false
	}
}

func matchesPattern(pattern string) func(string) bool {
	re := regexp.MustCompile(pattern)
	return re.MatchString
}
