// Package importer reads externally-produced analysis rows (CSV) into the
// same Theme/card shape the persistence layer consumes. This path bypasses
// the extraction pipeline entirely.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gikai-viz/backend/internal/storage/models"
)

// Column headers, primary name first, then accepted aliases.
var headerAliases = map[string][]string{
	"member":     {"議員名"},
	"faction":    {"会派"},
	"number":     {"テーマ番号"},
	"title":      {"テーマタイトル", "テーマ"},
	"question":   {"質問のポイント", "質問の要点"},
	"answer":     {"回答のポイント", "答弁の要点"},
	"discussion": {"議論のポイント"},
	"affected":   {"影響を受ける人"},
	"topics":     {"分野タグ"},
	"nature":     {"性質タグ"},
}

// MemberThemes is one member's imported themes within a meeting, grouped
// from the row-per-theme CSV layout.
type MemberThemes struct {
	Member  string
	Faction string
	Themes  []models.Theme
	Topics  []string
}

type themeRow struct {
	number int
	theme  models.Theme
}

// Parse reads the CSV and groups rows by member, preserving first-seen
// member order. Themes within a member sort by テーマ番号.
func Parse(r io.Reader) ([]MemberThemes, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]themeRow)
	factions := make(map[string]string)
	topicSets := make(map[string]map[string]bool)
	topicOrder := make(map[string][]string)
	var memberOrder []string

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", line, err)
		}

		get := func(field string) string {
			idx, ok := columns[field]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		member := get("member")
		if member == "" {
			continue
		}
		if _, seen := grouped[member]; !seen {
			memberOrder = append(memberOrder, member)
			topicSets[member] = make(map[string]bool)
		}
		if f := get("faction"); f != "" {
			factions[member] = f
		}

		number, _ := strconv.Atoi(get("number"))
		grouped[member] = append(grouped[member], themeRow{
			number: number,
			theme: models.Theme{
				ThemeTitle:      get("title"),
				QuestionPoint:   get("question"),
				AnswerPoint:     get("answer"),
				DiscussionPoint: get("discussion"),
				AffectedPeople:  get("affected"),
			},
		})

		for _, topic := range splitTags(get("topics")) {
			if !topicSets[member][topic] {
				topicSets[member][topic] = true
				topicOrder[member] = append(topicOrder[member], topic)
			}
		}
	}

	result := make([]MemberThemes, 0, len(memberOrder))
	for _, member := range memberOrder {
		rows := grouped[member]
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].number < rows[j].number
		})
		themes := make([]models.Theme, 0, len(rows))
		for _, row := range rows {
			themes = append(themes, row.theme)
		}
		result = append(result, MemberThemes{
			Member:  member,
			Faction: factions[member],
			Themes:  themes,
			Topics:  topicOrder[member],
		})
	}

	return result, nil
}

func resolveColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for field, names := range headerAliases {
		for _, name := range names {
			for i, h := range header {
				if strings.TrimSpace(h) == name {
					columns[field] = i
				}
			}
			if _, ok := columns[field]; ok {
				break
			}
		}
	}
	for _, required := range []string{"member", "title"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("CSV header missing required column for %s", required)
		}
	}
	return columns, nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '、' || r == ',' || r == '，' || r == '／' || r == '/'
	})
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			tags = append(tags, f)
		}
	}
	return tags
}
