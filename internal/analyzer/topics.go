package analyzer

import (
	"sort"
	"strings"
)

// TopicCategory is one entry of the fixed topic taxonomy. Color is the
// display color used by the public viewer.
type TopicCategory struct {
	Name   string   `json:"name"`
	Color  string   `json:"color"`
	Tokens []string `json:"tokens"`
}

// Taxonomy is the fixed, ordered set of subject categories sessions and
// cards are tagged with.
var Taxonomy = []TopicCategory{
	{
		Name:  "健康・福祉",
		Color: "#e74c3c",
		Tokens: []string{
			"健康", "福祉", "医療", "介護", "病院", "高齢者", "障害",
			"子育て", "保育", "国民健康保険", "検診", "予防接種", "生活保護",
		},
	},
	{
		Name:  "教育",
		Color: "#3498db",
		Tokens: []string{
			"教育", "学校", "児童", "生徒", "教員", "学習", "給食",
			"図書館", "部活動", "いじめ", "不登校", "通学",
		},
	},
	{
		Name:  "インフラ・都市基盤",
		Color: "#95a5a6",
		Tokens: []string{
			"道路", "水道", "下水道", "公園", "住宅", "交通", "バス",
			"都市計画", "空き家", "橋梁", "区画整理",
		},
	},
	{
		Name:  "経済・産業",
		Color: "#f39c12",
		Tokens: []string{
			"産業", "観光", "農業", "商業", "企業", "雇用", "経済",
			"中小企業", "創業", "ふるさと納税", "商店街",
		},
	},
	{
		Name:  "環境",
		Color: "#2ecc71",
		Tokens: []string{
			"環境", "ごみ", "リサイクル", "温暖化", "脱炭素",
			"エネルギー", "自然", "公害", "緑化",
		},
	},
	{
		Name:  "防災・安全",
		Color: "#e67e22",
		Tokens: []string{
			"防災", "災害", "避難", "消防", "防犯", "安全",
			"地震", "台風", "浸水", "救急",
		},
	},
	{
		Name:  "行政・財政",
		Color: "#9b59b6",
		Tokens: []string{
			"財政", "予算", "行政", "職員", "税", "デジタル",
			"条例", "議会", "公共施設", "入札", "広報",
		},
	},
}

// TopicScore is a taxonomy category with its aggregate keyword score.
type TopicScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ClassifyTopics scores the extracted keywords against the taxonomy. A
// keyword contributes its count to a category when it is a substring of, or
// contains, one of the category's tokens. Categories with score zero are
// dropped; the rest come back score-descending (taxonomy order on ties).
func ClassifyTopics(keywords []KeywordCount) []TopicScore {
	var scores []TopicScore
	for _, category := range Taxonomy {
		score := 0
		for _, kw := range keywords {
			for _, token := range category.Tokens {
				if strings.Contains(kw.Keyword, token) || strings.Contains(token, kw.Keyword) {
					score += kw.Count
					break
				}
			}
		}
		if score > 0 {
			scores = append(scores, TopicScore{Name: category.Name, Score: score})
		}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// TopicColor returns the display color of a taxonomy category, or the empty
// string for an unknown name.
func TopicColor(name string) string {
	for _, category := range Taxonomy {
		if category.Name == name {
			return category.Color
		}
	}
	return ""
}

func topTopicNames(scores []TopicScore, limit int) []string {
	names := make([]string, 0, limit)
	for i, s := range scores {
		if i >= limit {
			break
		}
		names = append(names, s.Name)
	}
	return names
}
