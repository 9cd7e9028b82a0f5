package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var lessonsQuery string

func init() {
	lessonsCmd.Flags().StringVarP(&lessonsQuery, "jq", "", "", "jq expression evaluated against the lesson index")
	rootCmd.AddCommand(lessonsCmd)
}

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List lessons",
	Long:  `List the lessons or query the lesson index using a jq expression.`,
	Run: func(cmd *cobra.Command, args []string) {
		config := CheckConfig()
		deck, err := LoadDeck(config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if err := ListLessons(deck, lessonsQuery, cmd.OutOrStdout()); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

// ListLessons prints a line per lesson, or the query results (strings are printed raw).
func ListLessons(deck *Deck, query string, w io.Writer) error {
	if query == "" {
		for _, lesson := range deck.Index.Lessons {
			fmt.Fprintf(w, "%-30s %-12s %s (%d flashcards)\n", lesson.Slug, lesson.Subject, lesson.Title, len(lesson.Flashcards))
		}
		return nil
	}

	values, err := deck.Index.Query(query)
	if err != nil {
		return err
	}
	for _, value := range values {
		if s, ok := value.(string); ok {
			fmt.Fprintln(w, s)
			continue
		}
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	}
	return nil
}
