// Package extract converts uploaded document content into the single UTF-8
// string the pipeline consumes. Binary PDF/DOC/DOCX decoding is an external
// concern: those uploads must already carry extracted text.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnsupportedType marks a file type this service cannot decode itself.
var ErrUnsupportedType = errors.New("unsupported file type")

var whitespaceRe = regexp.MustCompile(`[ \t]+`)

// Registry dispatches on the minutes file's declared type.
type Registry struct{}

func NewRegistry() *Registry {
	return &Registry{}
}

// Extract returns the raw transcript text for the file. txt and html content
// is decoded here; pdf/doc/docx require the caller to have supplied the
// extracted text as type "txt".
func (r *Registry) Extract(fileType string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("document content is not valid UTF-8")
	}

	switch strings.ToLower(fileType) {
	case "txt", "text":
		return string(data), nil
	case "html", "htm":
		return extractHTML(string(data))
	case "pdf", "doc", "docx":
		return "", fmt.Errorf("%w: %s requires externally extracted text", ErrUnsupportedType, fileType)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, fileType)
	}
}

// extractHTML strips markup and non-content elements, keeping line structure:
// the segmenter works line by line, so block elements must not collapse into
// one line.
func extractHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	var lines []string
	blocks := doc.Find("p, div, li, h1, h2, h3, h4, br")
	if blocks.Length() == 0 {
		lines = strings.Split(doc.Find("body").Text(), "\n")
	} else {
		blocks.Each(func(i int, s *goquery.Selection) {
			lines = append(lines, s.Text())
		})
	}

	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = whitespaceRe.ReplaceAllString(strings.TrimSpace(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n"), nil
}
