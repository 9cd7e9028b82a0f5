package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/julien-sobczak/the-studydeck/internal/core"
	"github.com/julien-sobczak/the-studydeck/internal/extract"
)

var extractOutputDir string

func init() {
	extractCmd.Flags().StringVarP(&extractOutputDir, "out", "o", "", "directory where images are written (default is a new directory under extract.output)")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Extract a PDF",
	Long:  `Extract the text and the images of a PDF file and print the resulting Markdown.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := CheckConfig()
		extractor, err := NewExtractor(config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		result, err := extractor.Extract(ctx, args[0], extractOutputDir)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Markdown(config.AssetsDir()))
	},
}

// NewExtractor creates the extractor declared in the configuration.
func NewExtractor(config *core.Config) (*extract.Extractor, error) {
	extractor, err := extract.NewExtractor(
		config.ConfigFile.Extract.Command,
		config.ExtractScript(),
		config.ConfigFile.ExtractTimeout())
	if err != nil {
		return nil, err
	}
	extractor.OutputDir = config.ExtractOutputDir()
	extractor.OnPreExecution(func(cmd string, args ...string) {
		core.CurrentLogger().Debugf("Running %s %s", cmd, strings.Join(args, " "))
	})
	return extractor, nil
}
