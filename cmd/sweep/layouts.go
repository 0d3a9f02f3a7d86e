package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/breakout-sweep/internal/registry"
)

var layoutsCmd = &cobra.Command{
	Use:     "layouts",
	Aliases: []string{"list"},
	Short:   "List all block layouts",
	Long:    `Shows every block layout registered with sweep and how many blocks it places with the current config.`,
	RunE:    runLayouts,
}

func runLayouts(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	layouts := registry.List()
	if len(layouts) == 0 {
		fmt.Println("No layouts available.")
		return nil
	}

	fmt.Println("Available layouts:")
	fmt.Println()

	maxIDLen := 2 // "ID" header
	for _, l := range layouts {
		maxIDLen = max(maxIDLen, len(l.ID))
	}

	fmt.Printf("  %-*s  %-6s  %s\n", maxIDLen, "ID", "Blocks", "Title")
	fmt.Printf("  %-*s  %-6s  %s\n", maxIDLen, "--", "------", "-----")

	for _, l := range layouts {
		layout, err := registry.Get(l.ID)
		if err != nil {
			return err
		}
		fmt.Printf("  %-*s  %-6d  %s\n", maxIDLen, l.ID, len(layout(cfg)), l.Title)
	}

	fmt.Println()
	fmt.Println("Run 'sweep play <id>' to play a layout.")
	return nil
}
