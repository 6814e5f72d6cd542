package importer

import (
	"strings"
	"testing"
)

const sampleCSV = `議員名,会派,テーマ番号,テーマタイトル,質問のポイント,回答のポイント,議論のポイント,影響を受ける人,分野タグ
山田太郎,市民の会,2,給食費の無償化,財源の見通しは,段階的に検討する,財政負担との両立,子育て世帯,教育、行政・財政
山田太郎,市民の会,1,通学路の安全,危険箇所の点検状況は,年度内に全箇所を点検,点検後の改修計画,児童と保護者,教育
佐藤花子,無所属,1,防災備蓄,備蓄量は足りているか,必要量を確保済み,更新サイクルの明確化,全市民,防災・安全
`

func TestParseGroupsByMember(t *testing.T) {
	groups, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 members, got %d", len(groups))
	}

	yamada := groups[0]
	if yamada.Member != "山田太郎" {
		t.Errorf("expected first member 山田太郎, got %s", yamada.Member)
	}
	if yamada.Faction != "市民の会" {
		t.Errorf("unexpected faction %s", yamada.Faction)
	}
	if len(yamada.Themes) != 2 {
		t.Fatalf("expected 2 themes for 山田太郎, got %d", len(yamada.Themes))
	}
	// Themes sort by テーマ番号 regardless of row order.
	if yamada.Themes[0].ThemeTitle != "通学路の安全" {
		t.Errorf("expected theme 1 first, got %s", yamada.Themes[0].ThemeTitle)
	}
	if yamada.Themes[1].QuestionPoint != "財源の見通しは" {
		t.Errorf("unexpected question point %s", yamada.Themes[1].QuestionPoint)
	}
	if len(yamada.Topics) != 2 || yamada.Topics[0] != "教育" || yamada.Topics[1] != "行政・財政" {
		t.Errorf("unexpected topics %v", yamada.Topics)
	}

	sato := groups[1]
	if sato.Member != "佐藤花子" || len(sato.Themes) != 1 {
		t.Errorf("unexpected second group %+v", sato)
	}
}

func TestParseHeaderAliases(t *testing.T) {
	csvData := "議員名,テーマ,質問の要点,答弁の要点\n山田太郎,道路整備,舗装の計画は,来年度に着手\n"
	groups, err := Parse(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Themes) != 1 {
		t.Fatalf("unexpected groups %+v", groups)
	}
	theme := groups[0].Themes[0]
	if theme.ThemeTitle != "道路整備" || theme.QuestionPoint != "舗装の計画は" || theme.AnswerPoint != "来年度に着手" {
		t.Errorf("aliases not resolved: %+v", theme)
	}
}

func TestParseMissingRequiredColumn(t *testing.T) {
	csvData := "会派,テーマタイトル\n市民の会,道路整備\n"
	if _, err := Parse(strings.NewReader(csvData)); err == nil {
		t.Error("expected error for missing 議員名 column")
	}
}

func TestParseSkipsBlankMemberRows(t *testing.T) {
	csvData := "議員名,テーマタイトル\n山田太郎,道路整備\n,空行のテーマ\n"
	groups, err := Parse(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("expected blank member row skipped, got %d groups", len(groups))
	}
}
