package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	r := NewRegistry()
	got, err := r.Extract("txt", []byte("○山田議員　質問します。"))
	if err != nil {
		t.Fatalf("Extract(txt) error: %v", err)
	}
	if got != "○山田議員　質問します。" {
		t.Errorf("got %q", got)
	}
}

func TestExtractHTML(t *testing.T) {
	html := `<html><head><style>body{}</style></head><body>
		<nav>メニュー</nav>
		<p>○山田議員　質問します。</p>
		<p>○教育長　答弁します。</p>
	</body></html>`

	got, err := NewRegistry().Extract("html", []byte(html))
	if err != nil {
		t.Fatalf("Extract(html) error: %v", err)
	}
	if !strings.Contains(got, "○山田議員　質問します。") {
		t.Errorf("extracted text missing statement line: %q", got)
	}
	if strings.Contains(got, "メニュー") {
		t.Errorf("nav content not stripped: %q", got)
	}
	// 行構造が保たれていること（セグメンタは行単位で走る）
	if len(strings.Split(got, "\n")) < 2 {
		t.Errorf("block elements collapsed into one line: %q", got)
	}
}

func TestExtractUnsupportedTypes(t *testing.T) {
	r := NewRegistry()
	for _, fileType := range []string{"pdf", "doc", "docx", "xls"} {
		_, err := r.Extract(fileType, []byte("dummy"))
		if !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("Extract(%s) error = %v, want ErrUnsupportedType", fileType, err)
		}
	}
}

func TestExtractInvalidUTF8(t *testing.T) {
	_, err := NewRegistry().Extract("txt", []byte{0xff, 0xfe, 0xfd})
	if err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
}
