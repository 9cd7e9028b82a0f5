package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// Regex to match embedded images: ![text](url "title")
var regexImage = regexp.MustCompile(`!\[(.*?)\][(](\S*)?(?:\s+"(.*?)")?[)]`)

type Link struct {
	Text  string
	URL   string
	Title string
	Line  int // 1-based
}

func (l Link) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`[%s](%s`, l.Text, l.URL))
	if l.Title != "" {
		sb.WriteString(fmt.Sprintf(` "%s"`, l.Title))
	}
	sb.WriteString(")")
	return sb.String()
}

// Images returns the embedded images outside code blocks.
func (m Document) Images() []Link {
	var results []Link
	code := m.codeLines()
	for i, line := range m.Lines() {
		if code[i] {
			continue
		}
		for _, match := range regexImage.FindAllStringSubmatch(line, -1) {
			results = append(results, Link{
				Text:  match[1],
				URL:   match[2],
				Title: match[3],
				Line:  i + 1,
			})
		}
	}
	return results
}

// replaceImages rewrites the embedded images outside code blocks.
func (m Document) replaceImages(fn func(link Link) Link) Document {
	lines := m.Lines()
	for i, code := range m.codeLines() {
		if code {
			continue
		}
		lines[i] = regexImage.ReplaceAllStringFunc(lines[i], func(match string) string {
			submatches := regexImage.FindStringSubmatch(match)
			link := fn(Link{
				Text:  submatches[1],
				URL:   submatches[2],
				Title: submatches[3],
				Line:  i + 1,
			})
			return "!" + link.String()
		})
	}
	return Document(strings.Join(lines, "\n"))
}
