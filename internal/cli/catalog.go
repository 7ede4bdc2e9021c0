package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/kinobot/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the genre and year-range options users can pick from",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Genres:")
			for _, opt := range catalog.Genres() {
				fmt.Printf("  %-14s %s\n", opt.Label, opt.Token)
			}
			fmt.Println()
			fmt.Println("Year ranges:")
			for _, opt := range catalog.YearRanges() {
				fmt.Printf("  %-18s %s\n", opt.Label, opt.Token)
			}
		},
	}
}
