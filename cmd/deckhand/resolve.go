package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/marintech/deckhand/pkg/cruise"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve FILE [MODE]",
	Short: "Print the desired state a mode resolves to",
	Long: `Resolve a mode against a cruise configuration and print the
per-logger desired state as YAML. With no MODE argument the cruise's
default mode is resolved. Loggers the mode leaves off print as null.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cruise.Load(args[0])
		if err != nil {
			return err
		}

		mode := cfg.DefaultMode
		if len(args) == 2 {
			mode = args[1]
		}

		desired, err := cruise.ResolveMode(cfg, mode)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(desired))
		for name := range desired {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Printf("# mode %s\n", mode)
		for _, name := range names {
			doc := map[string]interface{}{name: desired[name]}
			out, err := yaml.Marshal(doc)
			if err != nil {
				return fmt.Errorf("failed to encode desired state: %w", err)
			}
			fmt.Print(string(out))
		}
		return nil
	},
}
