package main

import (
	"fmt"

	"github.com/julien-sobczak/the-studydeck/internal/assets"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(sanitizeCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>...",
	Short: "Resolve image sources",
	Long:  `Print the URL used to serve each image source written in a lesson.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, arg := range args {
			fmt.Fprintln(cmd.OutOrStdout(), assets.ResolveLessonImageSource(arg))
		}
	},
}

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize <uri>...",
	Short: "Sanitize URIs",
	Long:  `Print each URI as rendered in HTML. Unsafe schemes are replaced by ` + assets.InertURI + `.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, arg := range args {
			fmt.Fprintln(cmd.OutOrStdout(), assets.TransformMarkdownImageURI(arg))
		}
	},
}
