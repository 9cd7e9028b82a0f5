package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/julien-sobczak/the-studydeck/internal/core"
	"github.com/julien-sobczak/the-studydeck/internal/server"
)

var serveAddr string
var serveOpen bool

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listening address (default is server.addr)")
	serveCmd.Flags().BoolVarP(&serveOpen, "open", "", false, "open the lessons in the default browser")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the deck",
	Long:  `Serve the subject assets and the lessons API.`,
	Run: func(cmd *cobra.Command, args []string) {
		config := CheckConfig()
		logger := core.CurrentLogger()

		deck, err := LoadDeck(config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		opts := server.Options{
			RootDir:  config.RootDirectory,
			Index:    deck.Index,
			Registry: deck.Registry,
			Catalog:  deck.Catalog,
			State:    core.NewAppState(),
			Logger:   logger,
		}
		// PDF extraction is optional
		if extractor, err := NewExtractor(config); err != nil {
			logger.Warnf("PDF extraction disabled: %v", err)
		} else {
			opts.Extractor = extractor
		}

		addr := serveAddr
		if addr == "" {
			addr = config.ConfigFile.Server.Addr
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		err = server.New(opts).ListenAndServe(ctx, addr, func(addr string) {
			url := fmt.Sprintf("http://%s/api/lessons", addr)
			fmt.Printf("Serving %d lessons on %s\n", len(deck.Index.Lessons), url)
			if serveOpen {
				if err := browser.OpenURL(url); err != nil {
					logger.Warnf("Unable to open browser: %v", err)
				}
			}
		})
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}
