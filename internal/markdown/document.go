package markdown

import (
	"strings"

	"github.com/julien-sobczak/the-studydeck/pkg/text"
)

// Document represents a Markdown document (a whole lesson body or just a snippet).
type Document string

// Lines returns the lines present in the Markdown document.
func (m Document) Lines() []string {
	return strings.Split(string(m), "\n")
}

func (m Document) IsBlank() bool {
	return text.IsBlank(string(m))
}

func (m Document) String() string {
	return string(m)
}

// ExtractLines extracts the lines between start and end (1-based, inclusive, -1 for EOF).
func (m Document) ExtractLines(start, end int) Document {
	return Document(text.ExtractLines(string(m), start, end))
}

// TrimBlankLines removes blank lines at the beginning and end of the document
// and returns the number of lines removed on each side.
func (m Document) TrimBlankLines() (result Document, countLinesAtStartTrimmed int, countLinesAtEndTrimmed int) {
	lines := m.Lines()
	start := 0
	for start < len(lines) && text.IsBlank(lines[start]) {
		start++
	}
	end := len(lines)
	for end > start && text.IsBlank(lines[end-1]) {
		end--
	}
	if start == len(lines) {
		// Only blank lines
		return "", len(lines) - 1, 0
	}
	return Document(strings.Join(lines[start:end], "\n")), start, len(lines) - end
}

// TrimSpace removes spaces at the start and end of a markdown document.
func (m Document) TrimSpace() Document {
	return Document(strings.TrimSpace(string(m)))
}

// codeLines flags the lines belonging to a code block, fences included.
// Both syntaxes are supported (``` and 4-space indentation).
func (m Document) codeLines() []bool {
	lines := m.Lines()
	result := make([]bool, len(lines))
	fenced := false
	for i, line := range lines {
		if strings.HasPrefix(line, "```") {
			fenced = !fenced
			result[i] = true
			continue
		}
		result[i] = fenced || strings.HasPrefix(line, "    ")
	}
	return result
}

// IsHeading returns if a given line is a Markdown ATX heading, with its text and level.
func IsHeading(line string) (bool, string, int) {
	level := len(line) - len(strings.TrimLeft(line, "#"))
	if level < 1 || level > 6 {
		return false, "", 0
	}
	title, ok := strings.CutPrefix(line[level:], " ")
	if !ok {
		return false, "", 0
	}
	return true, title, level
}
