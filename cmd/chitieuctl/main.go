// Command chitieuctl is a terminal client for the chitieu API.
//
// Usage:
//
//	chitieuctl [-api URL] list
//	chitieuctl [-api URL] add -title "Cơm trưa" -amount 45000 [-type chi|thu]
//	chitieuctl [-api URL] toggle ID
//	chitieuctl [-api URL] delete [-yes] ID
//	chitieuctl [-api URL] ping
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"chitieu/internal/cli"
	"chitieu/internal/client"
	"chitieu/internal/config"
	"chitieu/internal/core"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	fs := flag.NewFlagSet("chitieuctl", flag.ExitOnError)
	apiURL := fs.String("api", cfg.ClientAPIURL, "server base URL (CHITIEU_API_URL)")
	fs.Usage = func() { usage(fs.Output()) }
	fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := client.New(*apiURL)
	if err := run(ctx, c, os.Stdout, fs.Arg(0), fs.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: chitieuctl [-api URL] <command> [args]

commands:
  list                                   show records and totals
  add -title T -amount A [-type chi|thu] create a record
  toggle ID                              flip the paid flag of a chi record
  delete [-yes] ID                       delete a record
  ping                                   check the API is reachable`)
}

func run(ctx context.Context, c *client.Client, out io.Writer, cmd string, args []string) error {
	ledger := client.NewLedger(c)

	switch cmd {
	case "list":
		if err := ledger.Refresh(ctx); err != nil {
			return err
		}
		printLedger(out, ledger)
		return nil

	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		title := fs.String("title", "", "description")
		amount := fs.String("amount", "", "amount, e.g. 45000 or 12.50")
		kind := fs.String("type", string(core.KindExpense), "chi or thu")
		fs.Parse(args)

		e, err := ledger.Add(ctx, *title, *amount, core.Kind(*kind))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "added #%d %s %s\n", e.ID, e.Title, e.Amount.FormatVND())
		printLedger(out, ledger)
		return nil

	case "toggle":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		if err := ledger.Refresh(ctx); err != nil {
			return err
		}
		e, err := ledger.Toggle(ctx, id)
		if err != nil {
			return err
		}
		state := "unpaid"
		if e.IsPaid {
			state = "paid"
		}
		fmt.Fprintf(out, "#%d %s is now %s\n", e.ID, e.Title, state)
		printLedger(out, ledger)
		return nil

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ExitOnError)
		yes := fs.Bool("yes", false, "do not ask for confirmation")
		fs.Parse(args)
		id, err := parseID(fs.Args())
		if err != nil {
			return err
		}
		confirm := func() bool { return *yes || askConfirm(fmt.Sprintf("Delete #%d?", id)) }
		if err := ledger.Delete(ctx, id, confirm); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted #%d\n", id)
		printLedger(out, ledger)
		return nil

	case "ping":
		if err := c.Ping(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "API OK")
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one record id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", args[0])
	}
	return id, nil
}

// askConfirm prompts on the terminal. Without one there is nobody to ask,
// so the answer is no and -yes is required.
func askConfirm(prompt string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "có", "co":
		return true
	}
	return false
}

func printLedger(out io.Writer, l *client.Ledger) {
	items := l.Expenses()
	if len(items) == 0 {
		fmt.Fprintln(out, "no records")
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tPAID\tTITLE\tAMOUNT")
		for _, e := range items {
			paid := "-"
			if e.Toggleable() {
				paid = "no"
				if e.IsPaid {
					paid = "yes"
				}
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Type, paid, e.Title, e.Amount.FormatVND())
		}
		tw.Flush()
	}

	t := l.Totals()
	fmt.Fprintf(out, "\nchi (paid): %s\nthu:        %s\nbalance:    %s\n",
		t.Chi.FormatVND(), t.Thu.FormatVND(), t.Balance.FormatVND())
}

func describe(err error) string {
	var (
		ve *client.ValidationError
		nf *client.NotFoundError
		te *client.TransportError
	)
	switch {
	case errors.Is(err, client.ErrNotConfirmed):
		return "delete cancelled (use -yes when not on a terminal)"
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &nf):
		return nf.Error()
	case errors.As(err, &te):
		return "request failed: " + te.Error()
	}
	return err.Error()
}
