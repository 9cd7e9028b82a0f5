package main

import (
	"github.com/julien-sobczak/the-studydeck/internal/assets"
	"github.com/julien-sobczak/the-studydeck/internal/content"
	"github.com/julien-sobczak/the-studydeck/internal/core"
	"github.com/julien-sobczak/the-studydeck/internal/figures"
)

// Deck regroups everything loaded from a deck directory.
type Deck struct {
	Config   *core.Config
	Index    *content.Index
	Registry *assets.Registry
	Catalog  *figures.Catalog
}

// LoadDeck reads the lessons, walks the assets directory once, and parses the figure catalog.
func LoadDeck(config *core.Config) (*Deck, error) {
	logger := core.CurrentLogger()

	index, err := content.LoadIndex(config.LessonsDir(), config.ConfigFile.SupportExtension, config.ExcludeLesson)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Loaded %d lessons and %d flashcards", len(index.Lessons), index.CountFlashcards())

	registry, err := assets.BuildRegistry(config.AssetsDir())
	if err != nil {
		return nil, err
	}
	logger.Debugf("Registered %d subject assets", registry.Len())

	catalog, err := figures.ReadCatalogFile(config.FiguresFile())
	if err != nil {
		return nil, err
	}
	logger.Debugf("Loaded %d figures", catalog.Len())

	return &Deck{
		Config:   config,
		Index:    index,
		Registry: registry,
		Catalog:  catalog,
	}, nil
}
