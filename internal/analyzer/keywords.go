package analyzer

import (
	"regexp"
	"sort"
)

// KeywordCount is one extracted keyword with its occurrence count.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// Maximal single-script runs: CJK ideographs, katakana, hiragana. Splitting
// per script keeps 助詞・助動詞 in their own runs so the stop-word set can
// drop them. 長音符・々 は語の一部として扱う。
var keywordRunRe = regexp.MustCompile(`[\p{Han}々]+|[\p{Katakana}ー]+|\p{Hiragana}+`)

// Grammatical particles, auxiliaries and other function-word runs that carry
// no topical content.
var stopWords = map[string]struct{}{
	"します": {}, "ます": {}, "です": {}, "ました": {}, "ません": {},
	"いる": {}, "ある": {}, "する": {}, "なる": {}, "れる": {}, "られる": {},
	"この": {}, "その": {}, "あの": {}, "どの": {}, "これ": {}, "それ": {},
	"あれ": {}, "ここ": {}, "そこ": {}, "こと": {}, "もの": {}, "ため": {},
	"よう": {}, "ところ": {}, "について": {}, "における": {}, "において": {},
	"また": {}, "および": {}, "ならびに": {}, "など": {}, "として": {},
	"という": {}, "といった": {}, "される": {}, "されて": {}, "して": {},
	"により": {}, "による": {}, "から": {}, "まで": {}, "ので": {}, "のは": {},
	"お願い": {}, "いたします": {}, "ております": {}, "思います": {},
	"考えて": {}, "お尋ね": {}, "伺います": {}, "ただいま": {}, "皆様": {},
	"ですか": {}, "ますか": {}, "でしょうか": {}, "ください": {},
	"いただき": {}, "のですか": {}, "されたのですか": {},
}

// ExtractKeywords builds a frequency table of content-word runs in the text.
// Runs shorter than minLength runes and runs in the stop-word set are
// discarded. The result is sorted count-descending with first-seen order as
// the tie break.
func ExtractKeywords(text string, minLength int) []KeywordCount {
	if minLength <= 0 {
		minLength = 2
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	for _, run := range keywordRunRe.FindAllString(text, -1) {
		if len([]rune(run)) < minLength {
			continue
		}
		if _, stopped := stopWords[run]; stopped {
			continue
		}
		if _, seen := counts[run]; !seen {
			firstSeen[run] = len(firstSeen)
		}
		counts[run]++
	}

	keywords := make([]KeywordCount, 0, len(counts))
	for kw, count := range counts {
		keywords = append(keywords, KeywordCount{Keyword: kw, Count: count})
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return firstSeen[keywords[i].Keyword] < firstSeen[keywords[j].Keyword]
	})

	return keywords
}

// IsStopWord reports whether the run is in the fixed stop-word set.
func IsStopWord(run string) bool {
	_, ok := stopWords[run]
	return ok
}

func topKeywords(keywords []KeywordCount, limit int) []KeywordCount {
	if len(keywords) > limit {
		return keywords[:limit]
	}
	return keywords
}
