package content

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/julien-sobczak/the-studydeck/internal/markdown"
	"github.com/julien-sobczak/the-studydeck/pkg/text"
)

// DefaultSubject is used for lessons outside any subject directory.
const DefaultSubject = "General"

// Lesson is a Markdown file presented to the learner.
type Lesson struct {
	Slug         string            `json:"slug"`
	Title        string            `json:"title"`
	Subject      string            `json:"subject"`
	Tags         []string          `json:"tags"`
	Order        int               `json:"order"`
	RelativePath string            `json:"path"`
	Images       []string          `json:"images"`
	Flashcards   []*Flashcard      `json:"flashcards"`
	ModTime      time.Time         `json:"modTime"`
	Body         markdown.Document `json:"-"`
	BodyLine     int               `json:"-"`
	AbsolutePath string            `json:"-"`
}

// Flashcard is a question/answer pair declared inside a lesson.
type Flashcard struct {
	Title   string            `json:"title"`
	Lesson  string            `json:"lesson"`
	Subject string            `json:"subject"`
	Line    int               `json:"line"`
	Front   markdown.Document `json:"front"`
	Back    markdown.Document `json:"back"`
}

type lessonAttributes struct {
	Title   string   `yaml:"title"`
	Subject string   `yaml:"subject"`
	Tags    []string `yaml:"tags"`
	Order   int      `yaml:"order"`
	Slug    string   `yaml:"slug"`
}

func (l *Lesson) String() string {
	return fmt.Sprintf("lesson %q (%s)", l.Title, l.RelativePath)
}

// SubjectSlug returns the identifier used in URLs for the lesson subject.
func (l *Lesson) SubjectSlug() string {
	return slug.Make(l.Subject)
}

// ParseLesson reads a lesson from disk. The relative path is used to
// determine the default slug and subject.
func ParseLesson(absolutePath, relativePath string) (*Lesson, error) {
	file, err := markdown.ParseFile(absolutePath)
	if err != nil {
		return nil, err
	}

	var attributes lessonAttributes
	if err := file.FrontMatter.Decode(&attributes); err != nil {
		return nil, fmt.Errorf("invalid front matter in %q: %w", relativePath, err)
	}

	relativePath = filepath.ToSlash(relativePath)
	lesson := &Lesson{
		Slug:         attributes.Slug,
		Title:        attributes.Title,
		Subject:      attributes.Subject,
		Tags:         attributes.Tags,
		Order:        attributes.Order,
		RelativePath: relativePath,
		ModTime:      file.ModTime,
		Body:         file.Body,
		BodyLine:     file.BodyLine,
		AbsolutePath: absolutePath,
	}
	if lesson.Tags == nil {
		lesson.Tags = []string{}
	}

	if lesson.Slug == "" {
		lesson.Slug = slug.Make(text.TrimExtension(relativePath))
	} else {
		lesson.Slug = slug.Make(lesson.Slug)
	}

	if lesson.Subject == "" {
		lesson.Subject = DefaultSubject
		if dir := filepath.ToSlash(filepath.Dir(relativePath)); dir != "." {
			lesson.Subject = strings.SplitN(dir, "/", 2)[0]
		}
	}

	if lesson.Title == "" {
		if top := file.TopSection(); top != nil && top.HeadingLevel == 1 {
			lesson.Title = top.HeadingText.String()
		} else {
			lesson.Title = text.TrimExtension(filepath.Base(relativePath))
		}
	}

	lesson.Images = []string{}
	for _, image := range file.Body.Images() {
		lesson.Images = append(lesson.Images, image.URL)
	}

	lesson.Flashcards = parseFlashcards(file, lesson)
	return lesson, nil
}

// parseFlashcards extracts the sections "## Flashcard: <title>".
// The first line "---" separates the front from the back.
func parseFlashcards(file *markdown.File, lesson *Lesson) []*Flashcard {
	flashcards := []*Flashcard{}
	for _, section := range file.Sections() {
		title, ok := flashcardTitle(section.HeadingText.String())
		if !ok {
			continue
		}

		front, back := splitFlashcard(section.Body())
		flashcards = append(flashcards, &Flashcard{
			Title:   title,
			Lesson:  lesson.Slug,
			Subject: lesson.Subject,
			Line:    section.FileLineStart,
			Front:   front,
			Back:    back,
		})
	}
	return flashcards
}

func flashcardTitle(heading string) (string, bool) {
	kind, title, found := strings.Cut(heading, ":")
	if !found || !strings.EqualFold(strings.TrimSpace(kind), "flashcard") {
		return "", false
	}
	return strings.TrimSpace(title), true
}

func splitFlashcard(body markdown.Document) (markdown.Document, markdown.Document) {
	var front []string
	var back []string
	separatorFound := false
	for _, line := range body.Lines() {
		if !separatorFound && strings.TrimSpace(line) == "---" {
			separatorFound = true
			continue
		}
		if separatorFound {
			back = append(back, line)
		} else {
			front = append(front, line)
		}
	}
	return markdown.Document(strings.Join(front, "\n")).TrimSpace(),
		markdown.Document(strings.Join(back, "\n")).TrimSpace()
}
