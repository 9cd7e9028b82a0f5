package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/copy"
	"github.com/spf13/cobra"

	"github.com/julien-sobczak/the-studydeck/internal/core"
	"github.com/julien-sobczak/the-studydeck/pkg/console"
	"github.com/julien-sobczak/the-studydeck/pkg/filesystem"
)

var buildOutputDir string
var buildShowPercent bool
var buildHideBar bool
var buildLineLength int

func init() {
	buildCmd.Flags().StringVarP(&buildOutputDir, "out", "o", "", "output directory (default is <deck>/build)")
	buildCmd.Flags().BoolVar(&buildShowPercent, "percent", false, "report the progress in percent instead of steps")
	buildCmd.Flags().BoolVar(&buildHideBar, "no-bar", false, "hide the progress bar")
	buildCmd.Flags().IntVar(&buildLineLength, "width", 80, "width of the progress line")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Export the deck",
	Long:  `Copy the subject assets and write the asset manifest and the lesson index.`,
	Run: func(cmd *cobra.Command, args []string) {
		config := CheckConfig()
		deck, err := LoadDeck(config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		outputDir := buildOutputDir
		if outputDir == "" {
			outputDir = filepath.Join(config.RootDirectory, "build")
		}
		options := []func(*console.ProgressLog){console.LineLength(buildLineLength)}
		if buildShowPercent {
			options = append(options, console.ShowPercent())
		}
		if buildHideBar {
			options = append(options, console.HideBar())
		}
		if err := BuildDeck(deck, outputDir, os.Stdout, options...); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		size, err := filesystem.DirSize(outputDir)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Exported %d lessons and %d assets (%s) to %s\n", len(deck.Index.Lessons), deck.Registry.Len(), filesystem.HumanSize(size), outputDir)
	},
}

// BuildDeck exports the subject assets using their served URLs as paths,
// and writes the files assets.json and index.json.
// The copy progress is reported on the writer when not nil.
func BuildDeck(deck *Deck, outputDir string, progress io.Writer, options ...func(*console.ProgressLog)) error {
	logger := core.CurrentLogger()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	if progress == nil {
		progress = io.Discard
	}
	assets := deck.Registry.Assets()
	options = append([]func(*console.ProgressLog){console.ToWriter(progress)}, options...)
	progressLog := console.NewProgressLog(len(assets), options...)
	for _, asset := range assets {
		dest := filepath.Join(outputDir, filepath.FromSlash(strings.TrimPrefix(asset.URL, "/")))
		logger.Debugf("Copying %s to %s", asset.Path, dest)
		if err := copy.Copy(asset.AbsolutePath, dest, copy.Options{PreserveTimes: true}); err != nil {
			progressLog.Clear("")
			return fmt.Errorf("unable to copy asset %q: %w", asset.Path, err)
		}
		progressLog.Next(asset.Path)
	}
	progressLog.Clear("")

	manifest, err := os.Create(filepath.Join(outputDir, "assets.json"))
	if err != nil {
		return err
	}
	defer manifest.Close()
	if err := deck.Registry.WriteManifest(manifest); err != nil {
		return err
	}

	index, err := json.MarshalIndent(deck.Index, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outputDir, "index.json"), index, 0644); err != nil {
		return err
	}

	logger.Infof("Deck exported to %s", outputDir)
	return nil
}
