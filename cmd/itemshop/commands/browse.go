package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pumped-fn/itemshop/extensions"
)

func browseCmd() *cobra.Command {
	var (
		search    string
		itemType  string
		family    string
		showGraph bool
	)
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Print the items matching a filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			sess, err := appCtx.session(newConsoleHost(out))
			if err != nil {
				return err
			}
			defer sess.Close()

			sess.SetSearchTerm(search)
			sess.SetType(itemType)
			sess.SetFamily(family)
			sess.Wait()

			printAccount(out, sess)
			printFilters(out, sess)
			printItems(out, sess)
			if showGraph {
				fmt.Fprintln(out, extensions.FormatGraph(sess.Graph(), ""))
			}
			return sess.Items.Err()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "match item names")
	cmd.Flags().StringVarP(&itemType, "type", "t", "", "exact item type")
	cmd.Flags().StringVarP(&family, "family", "f", "", "exact item family")
	cmd.Flags().BoolVar(&showGraph, "graph", false, "print the query graph after loading")
	return cmd
}
