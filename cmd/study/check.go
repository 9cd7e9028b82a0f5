package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check image references",
	Long:  `Report embedded images resolving to nothing: missing subject assets, unknown figures, unsafe URIs.`,
	Run: func(cmd *cobra.Command, args []string) {
		config := CheckConfig()
		deck, err := LoadDeck(config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if count := CheckDeck(deck, cmd.OutOrStdout()); count > 0 {
			os.Exit(1)
		}
	},
}

// CheckDeck prints the broken images and returns their number.
func CheckDeck(deck *Deck, w io.Writer) int {
	violations := deck.Index.BrokenImages(deck.Registry, deck.Catalog)

	location := color.New(color.Bold)
	failure := color.New(color.FgRed)
	for _, violation := range violations {
		location.Fprintf(w, "%s:%d: ", violation.RelativePath, violation.Line)
		failure.Fprintln(w, violation.Message)
	}

	if len(violations) == 0 {
		color.New(color.FgGreen).Fprintf(w, "%d lessons checked, no broken image\n", len(deck.Index.Lessons))
	} else {
		failure.Fprintf(w, "%d broken image(s)\n", len(violations))
	}
	return len(violations)
}
