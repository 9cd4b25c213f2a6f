package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pumped-fn/itemshop"
)

func printItems(w io.Writer, sess *itemshop.Session) {
	items, err := sess.Items.Get()
	if err != nil {
		fmt.Fprintf(w, "items unavailable: %s\n", itemshop.ErrorMessage(err, ""))
		return
	}
	count, err := sess.ItemsCount.Get()
	if err != nil {
		count = len(items)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tFAMILY\tPRICE\tIMAGE")
	for _, it := range items {
		image := ""
		if it.HasImage() {
			image = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%s\n", it.ID, it.Name, it.Type, it.Family, it.Price, image)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d item(s)\n", count)
}

func printFilters(w io.Writer, sess *itemshop.Session) {
	f := sess.Filter().Snapshot()
	fmt.Fprintf(w, "search=%q type=%q family=%q\n", f.SearchTerm, f.Type, f.Family)
	printPicklist(w, "types", sess.Types)
	printPicklist(w, "families", sess.Families)
}

func printPicklist(w io.Writer, label string, ctrl *itemshop.Controller[[]itemshop.PicklistOption]) {
	options, ok := ctrl.Peek()
	if !ok {
		fmt.Fprintf(w, "%s: (loading)\n", label)
		return
	}
	names := make([]string, 0, len(options)+1)
	for _, o := range itemshop.WithAllOption(options) {
		names = append(names, o.Label)
	}
	fmt.Fprintf(w, "%s: %s\n", label, strings.Join(names, ", "))
}

func printCart(w io.Writer, cart *itemshop.Cart) {
	lines := cart.Snapshot()
	if len(lines) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, line := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\n", line.ItemID, line.Item.Name, line.Item.Price)
	}
	fmt.Fprintf(tw, "\ttotal\t%.2f\n", cart.Total())
	_ = tw.Flush()
}

func printAccount(w io.Writer, sess *itemshop.Session) {
	acc, err := sess.Account.Get()
	if err != nil {
		fmt.Fprintf(w, "account %s: %s\n", sess.AccountID(), itemshop.ErrorMessage(err, ""))
		return
	}
	role := "shopper"
	if sess.CanCreateItems() {
		role = "manager"
	}
	fmt.Fprintf(w, "%s (%s) as %s\n", acc.Name, acc.AccountNumber, role)
}
