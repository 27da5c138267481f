package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/marintech/deckhand/pkg/cruise"
)

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Validate a cruise configuration file",
	Long: `Validate a cruise configuration file without starting anything.

Checks that all sections are present, the default mode exists, and
every mode assignment names a config that is both defined and
whitelisted for its logger.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cruise.Load(args[0])
		if err != nil {
			return err
		}

		modes := make([]string, 0, len(cfg.Modes))
		for name := range cfg.Modes {
			modes = append(modes, name)
		}
		sort.Strings(modes)

		fmt.Printf("✓ %s is valid\n", args[0])
		fmt.Printf("  Cruise: %s\n", cfg.ID)
		fmt.Printf("  Loggers: %d\n", len(cfg.Loggers))
		fmt.Printf("  Configs: %d\n", len(cfg.Configs))
		fmt.Printf("  Modes: %v (default %s)\n", modes, cfg.DefaultMode)
		return nil
	},
}
