package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pumped-fn/itemshop/internal/store"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and load the demo catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			data := store.DemoData()
			if err := appCtx.store.Seed(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d accounts, %d users, %d items\n",
				len(data.Accounts), len(data.Users), len(data.Items))
			return nil
		},
	}
}
