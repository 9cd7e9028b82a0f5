package content

import (
	"cmp"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"golang.org/x/exp/slices"

	"github.com/julien-sobczak/the-studydeck/pkg/clock"
)

// IncludeFunc reports if a file must be parsed as a lesson (ex: based on its extension).
type IncludeFunc func(path string) bool

// ExcludeFunc reports if a path relative to the lessons directory must be skipped.
type ExcludeFunc func(relativePath string, dir bool) bool

// Index regroups every lesson found in the lessons directory.
type Index struct {
	Dir     string    `json:"-"`
	BuiltAt time.Time `json:"builtAt"`
	Lessons []*Lesson `json:"lessons"`

	bySlug map[string]*Lesson
}

// LoadIndex walks the lessons directory to parse every included file.
// A nil include accepts every file.
// Lessons are sorted by subject, then order, then slug.
func LoadIndex(dir string, include IncludeFunc, exclude ExcludeFunc) (*Index, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid lessons directory %q: %w", dir, err)
	}

	var lessons []*Lesson
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == absDir {
			return nil
		}

		relativePath, err := filepath.Rel(absDir, path)
		if err != nil {
			return err
		}

		if strings.HasPrefix(d.Name(), ".") || (exclude != nil && exclude(relativePath, d.IsDir())) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || (include != nil && !include(path)) {
			return nil
		}

		lesson, err := ParseLesson(path, relativePath)
		if err != nil {
			return err
		}
		lessons = append(lessons, lesson)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to load lessons from %q: %w", dir, err)
	}

	return NewIndex(absDir, lessons...)
}

// NewIndex creates an index from already parsed lessons.
func NewIndex(dir string, lessons ...*Lesson) (*Index, error) {
	index := &Index{
		Dir:     dir,
		BuiltAt: clock.Now(),
		Lessons: []*Lesson{},
		bySlug:  make(map[string]*Lesson),
	}
	for _, lesson := range lessons {
		if existing, ok := index.bySlug[lesson.Slug]; ok {
			return nil, fmt.Errorf("duplicate slug %q between %q and %q", lesson.Slug, existing.RelativePath, lesson.RelativePath)
		}
		index.bySlug[lesson.Slug] = lesson
		index.Lessons = append(index.Lessons, lesson)
	}

	slices.SortFunc(index.Lessons, func(a, b *Lesson) int {
		if c := strings.Compare(a.Subject, b.Subject); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})
	return index, nil
}

// Lesson searches a lesson by slug.
func (i *Index) Lesson(slug string) (*Lesson, bool) {
	lesson, ok := i.bySlug[slug]
	return lesson, ok
}

// Subjects returns the distinct subjects in the index order.
func (i *Index) Subjects() []string {
	subjects := []string{}
	for _, lesson := range i.Lessons {
		if !slices.Contains(subjects, lesson.Subject) {
			subjects = append(subjects, lesson.Subject)
		}
	}
	return subjects
}

// Flashcards returns the flashcards of a subject, using either its name or its slug.
func (i *Index) Flashcards(subject string) []*Flashcard {
	expected := slug.Make(subject)
	flashcards := []*Flashcard{}
	for _, lesson := range i.Lessons {
		if lesson.SubjectSlug() != expected {
			continue
		}
		flashcards = append(flashcards, lesson.Flashcards...)
	}
	return flashcards
}

// CountFlashcards returns the total number of flashcards.
func (i *Index) CountFlashcards() int {
	count := 0
	for _, lesson := range i.Lessons {
		count += len(lesson.Flashcards)
	}
	return count
}
