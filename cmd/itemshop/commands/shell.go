package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pumped-fn/itemshop"
	"github.com/pumped-fn/itemshop/extensions"
)

const shellHelp = `commands:
  search <text>        filter item names (empty clears)
  type <value>         filter by type (empty clears)
  family <value>       filter by family (empty clears)
  reset                clear every filter
  list                 show matching items
  details <id>         show one item
  add <id>             add an item to the cart
  remove <id>          remove an item from the cart
  cart                 show the cart
  checkout             check the cart out
  create <type> <family> <price> <name...> [@image-path]
                       create an item (managers only)
  journal              show the last workflow run
  graph                show the query graph
  help                 show this help
  quit                 leave the shell`

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shop session",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			sess, err := appCtx.session(newConsoleHost(out))
			if err != nil {
				return err
			}
			defer sess.Close()

			sess.Wait()
			printAccount(out, sess)
			return runShell(cmd.Context(), cmd.InOrStdin(), out, &shell{app: appCtx, sess: sess})
		},
	}
}

type shell struct {
	app  *app
	sess *itemshop.Session
}

var errQuit = errors.New("quit")

func runShell(ctx context.Context, in io.Reader, out io.Writer, sh *shell) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			err := sh.exec(ctx, out, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(out, "error: %s\n", itemshop.ErrorMessage(err, ""))
			}
		}
		fmt.Fprint(out, "> ")
	}
	fmt.Fprintln(out)
	return scanner.Err()
}

func (sh *shell) exec(ctx context.Context, out io.Writer, line string) error {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	sess := sh.sess

	switch verb {
	case "search":
		sess.SetSearchTerm(rest)
		return sh.list(out)
	case "type":
		sess.SetType(rest)
		return sh.list(out)
	case "family":
		sess.SetFamily(rest)
		return sh.list(out)
	case "reset":
		sess.ResetFilters()
		return sh.list(out)
	case "list":
		return sh.list(out)
	case "details":
		return sess.ShowDetails(rest)
	case "add":
		return sess.AddToCart(rest)
	case "remove":
		if !sess.Cart().Remove(rest) {
			fmt.Fprintf(out, "%s is not in the cart\n", rest)
		}
		return nil
	case "cart":
		printCart(out, sess.Cart())
		return nil
	case "checkout":
		res, err := sess.SubmitCheckout(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "purchase %s created\n", res.PurchaseID)
		return nil
	case "create":
		return sh.create(ctx, out, rest)
	case "journal":
		printJournal(out, sess.Journal())
		return nil
	case "graph":
		fmt.Fprintln(out, extensions.FormatGraph(sess.Graph(), ""))
		return nil
	case "help", "?":
		fmt.Fprintln(out, shellHelp)
		return nil
	case "quit", "exit":
		return errQuit
	}
	return fmt.Errorf("unknown command %q, try help", verb)
}

func (sh *shell) list(out io.Writer) error {
	sh.sess.Wait()
	printFilters(out, sh.sess)
	printItems(out, sh.sess)
	return nil
}

func parseNewItem(args string) (itemshop.NewItem, string, error) {
	fields := strings.Fields(args)
	var image string
	if n := len(fields); n > 0 && strings.HasPrefix(fields[n-1], "@") {
		image = strings.TrimPrefix(fields[n-1], "@")
		fields = fields[:n-1]
	}
	if len(fields) < 4 {
		return itemshop.NewItem{}, "", errors.New("usage: create <type> <family> <price> <name...> [@image-path]")
	}
	price, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return itemshop.NewItem{}, "", fmt.Errorf("price %q: %w", fields[2], err)
	}
	return itemshop.NewItem{
		Type:   fields[0],
		Family: fields[1],
		Price:  price,
		Name:   strings.Join(fields[3:], " "),
	}, image, nil
}

func (sh *shell) create(ctx context.Context, out io.Writer, args string) error {
	item, imagePath, err := parseNewItem(args)
	if err != nil {
		return err
	}

	var report itemshop.CreationReport
	if imagePath == "" {
		report, err = sh.sess.CreateItem(ctx, item)
		if err != nil {
			return err
		}
	} else {
		// the image is staged under the new id before the post-creation workflow runs
		if !sh.sess.CanCreateItems() {
			return itemshop.ErrNotManager
		}
		f, err := os.Open(imagePath)
		if err != nil {
			return err
		}
		defer f.Close()

		id, err := sh.app.store.CreateItem(ctx, item)
		if err != nil {
			return err
		}
		if err := sh.app.images.Stage(ctx, id, f, contentType(imagePath)); err != nil {
			return err
		}
		report = sh.sess.CompleteCreation(ctx, id)
	}

	sh.sess.Wait()
	fmt.Fprintf(out, "item %s created (image attached: %t, catalog refreshed: %t)\n",
		report.ItemID, report.ImageAttached, report.Refreshed)
	return nil
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}

func printJournal(out io.Writer, journal *itemshop.ExecutionTree) {
	run := journal.Last()
	if run == nil {
		fmt.Fprintln(out, "no workflow has run yet")
		return
	}
	journal.Walk(run.ID, func(n *itemshop.ExecutionNode) bool {
		indent := ""
		if n.ParentID != "" {
			indent = "  "
		}
		line := fmt.Sprintf("%s%s: %s", indent, n.Name(), n.Status())
		if msg := itemshop.Message().GetOrDefault(n, ""); msg != "" {
			line += " (" + msg + ")"
		}
		fmt.Fprintln(out, line)
		return true
	})
}
