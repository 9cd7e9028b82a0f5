package markdown

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julien-sobczak/the-studydeck/pkg/text"
)

// FrontMatter is the raw YAML block delimited by --- lines at the top of a file.
type FrontMatter string

// Decode unmarshals the Front Matter into the given struct.
func (f FrontMatter) Decode(v any) error {
	if len(f) == 0 {
		return nil
	}
	return yaml.Unmarshal([]byte(f), v)
}

type File struct {
	AbsolutePath string
	ModTime      time.Time
	FrontMatter  FrontMatter
	Body         Document
	// 1-based line of the first non-blank body line in the file (0 when the body is empty)
	BodyLine int
}

func (m File) String() string {
	return fmt.Sprintf("Markdown file %q", m.AbsolutePath)
}

type Section struct {
	Parent        *Section
	HeadingText   Document
	HeadingLevel  int
	ContentText   Document // Heading line included
	FileLineStart int      // 1-based index based on Markdown file
	FileLineEnd   int
	BodyLineStart int // 1-based index based on body (ignored the Front Matter)
	BodyLineEnd   int
}

func (s Section) String() string {
	return fmt.Sprintf("%s %s", strings.Repeat("#", s.HeadingLevel), s.HeadingText)
}

// Body returns the section content without the heading line.
func (s Section) Body() Document {
	return s.ContentText.ExtractLines(2, -1).TrimSpace()
}

// ParseFile parses a Markdown file.
func ParseFile(path string) (*File, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	file := ParseContent(content)
	file.AbsolutePath = path
	file.ModTime = stat.ModTime()
	return file, nil
}

// ParseContent splits a raw Markdown content into the optional Front Matter and the body.
// A Front Matter must start on the first line.
func ParseContent(content []byte) *File {
	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	file := &File{}

	bodyStart := 0
	if isFrontMatterDelimiter(lines[0]) {
		for i := 1; i < len(lines); i++ {
			if isFrontMatterDelimiter(lines[i]) {
				file.FrontMatter = FrontMatter(joinLines(lines[1:i]))
				bodyStart = i + 1
				break
			}
		}
	}

	for i := bodyStart; i < len(lines); i++ {
		if !text.IsBlank(lines[i]) {
			file.Body = Document(joinLines(lines[i:]))
			file.BodyLine = i + 1
			break
		}
	}
	return file
}

func isFrontMatterDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r") == "---"
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Sections returns the sections in order of appearance.
// Headings inside code blocks are ignored.
func (m *File) Sections() []*Section {
	var sections []*Section
	var open []*Section // Ancestors of the current line, top-level first

	lines := m.Body.Lines()
	code := m.Body.codeLines()
	for i, line := range lines {
		if code[i] {
			continue
		}
		ok, headingText, headingLevel := IsHeading(line)
		if !ok {
			continue
		}
		lineNumber := i + 1 // lines are 1-based

		// A heading closes the sections of the same or a lower level
		for len(open) > 0 && open[len(open)-1].HeadingLevel >= headingLevel {
			m.closeSection(open[len(open)-1], lineNumber-1)
			open = open[:len(open)-1]
		}

		section := &Section{
			HeadingText:   Document(headingText),
			HeadingLevel:  headingLevel,
			FileLineStart: m.BodyLine - 1 + lineNumber,
			BodyLineStart: lineNumber,
		}
		if len(open) > 0 {
			section.Parent = open[len(open)-1]
		}
		open = append(open, section)
		sections = append(sections, section)
	}

	for _, section := range open {
		m.closeSection(section, len(lines))
	}
	return sections
}

// closeSection ends the section on the given body line, ignoring trailing blank lines.
func (m *File) closeSection(section *Section, bodyLineEnd int) {
	content, _, trimmed := m.Body.ExtractLines(section.BodyLineStart, bodyLineEnd).TrimBlankLines()
	section.ContentText = content
	section.BodyLineEnd = bodyLineEnd - trimmed
	section.FileLineEnd = m.BodyLine - 1 + section.BodyLineEnd
}

// TopSection returns the first section, or nil when the file has no heading.
func (m *File) TopSection() *Section {
	sections := m.Sections()
	if len(sections) == 0 {
		return nil
	}
	return sections[0]
}
