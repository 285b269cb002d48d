package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shellac/internal/ledger"
)

func newRegistryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "registry",
		Short: "Show the duplicate-title registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Duplicates(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No duplicates registered")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				updated := ""
				if !entry.UpdatedAt.IsZero() {
					updated = entry.UpdatedAt.Local().Format(time.RFC3339)
				}
				rows = append(rows, []string{entry.AliasTitle, entry.CanonicalTitle, updated})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Alias", "Canonical Title", "Registered"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
