// cmd/riftctl/inspect.go
// Implements the `riftctl inspect` command. It loads a previously recorded
// .riftt scenario trace and prints either a human-readable summary or the
// full decoded JSON.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/riftcore/engine/internal/scenario"
)

func newInspectCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <trace.riftt>",
		Short: "Inspect a recorded .riftt scenario trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			tr, err := scenario.Decode(data)
			if err != nil {
				return fmt.Errorf("decode trace: %w", err)
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(tr)
			}

			counts := make(map[scenario.Op]int)
			for _, r := range tr.Records {
				counts[r.Op]++
			}

			fmt.Printf("File: %s\n", path)
			fmt.Printf("Records: %d\n", len(tr.Records))
			for _, op := range []scenario.Op{
				scenario.OpCallAt,
				scenario.OpCallRevert,
				scenario.OpAdvanceTime,
				scenario.OpReset,
				scenario.OpForget,
			} {
				if n := counts[op]; n > 0 {
					fmt.Printf("  %-16s %d\n", op, n)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Print the full decoded trace as JSON")
	return cmd
}
