package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/matheus3301/guestbook/internal/config"
	"github.com/matheus3301/guestbook/internal/entry"
	"github.com/matheus3301/guestbook/internal/guestbook"
	"github.com/matheus3301/guestbook/internal/logging"
	"github.com/matheus3301/guestbook/internal/paths"
	"github.com/matheus3301/guestbook/internal/remote"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	endpointFlag := flag.String("endpoint", "", "guestbook collection URL (overrides $"+config.EnvEndpoint+" and config)")
	configFlag := flag.String("config", "", "config file (default ~/.guestbook/config.toml)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath = paths.ConfigPath()
	}
	cfg, err := config.Resolve(cfgPath, *endpointFlag)
	if err != nil {
		fatalf("load config: %v", err)
	}

	logger, err := logging.New(paths.LogPath("gbctl"), "gbctl", false)
	if err != nil {
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	client, err := remote.New(cfg.Endpoint, cfg.RequestTimeout.Duration, remote.WithLogger(logger.Named("remote")))
	if err != nil {
		fatalf("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.RequestTimeout.Duration+5*time.Second)
	defer cancel()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		cmdList(ctx, newController(client, nil, logger), *jsonFlag)
	case "sign":
		cmdSign(ctx, newController(client, nil, logger), rest, *jsonFlag)
	case "edit":
		cmdEdit(ctx, newController(client, nil, logger), rest, *jsonFlag)
	case "delete":
		cmdDelete(ctx, client, logger, rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: gbctl [--endpoint <url>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  list                                   List entries, newest first")
	fmt.Fprintln(os.Stderr, "  sign --name <n> --message <m>          Sign the guestbook")
	fmt.Fprintln(os.Stderr, "  edit <id> [--name <n>] [--message <m>] Update an entry")
	fmt.Fprintln(os.Stderr, "  delete <id> [--yes]                    Delete an entry")
}

func newController(client *remote.Client, confirm guestbook.Confirmer, logger *zap.Logger) *guestbook.Controller {
	return guestbook.New(client, confirm, nil, logger.Named("guestbook"))
}

func cmdList(ctx context.Context, c *guestbook.Controller, jsonOut bool) {
	if err := c.Refresh(ctx); err != nil {
		fatalf("%s", c.Signals().LastError)
	}
	entries := c.Entries()
	if jsonOut {
		outputJSON(entries)
		return
	}
	printEntries(os.Stdout, entries)
}

func cmdSign(ctx context.Context, c *guestbook.Controller, args []string, jsonOut bool) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	name := fs.String("name", "", "your name")
	message := fs.String("message", "", "your message")
	_ = fs.Parse(args)

	c.SetName(*name)
	c.SetMessage(*message)
	submit(ctx, c)
	if jsonOut {
		outputJSON(c.Entries())
		return
	}
	fmt.Println("Signed.")
}

func cmdEdit(ctx context.Context, c *guestbook.Controller, args []string, jsonOut bool) {
	if len(args) == 0 {
		fatalf("usage: gbctl edit <id> [--name <n>] [--message <m>]")
	}
	id := entry.ID(args[0])
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	name := fs.String("name", "", "new name")
	message := fs.String("message", "", "new message")
	_ = fs.Parse(args[1:])

	if err := c.Refresh(ctx); err != nil {
		fatalf("%s", c.Signals().LastError)
	}
	e, ok := c.Lookup(id)
	if !ok {
		fatalf("no entry with id %s", id)
	}
	if err := c.BeginEdit(e); err != nil {
		fatalf("%v", err)
	}
	if *name != "" {
		c.SetName(*name)
	}
	if *message != "" {
		c.SetMessage(*message)
	}
	submit(ctx, c)
	if jsonOut {
		outputJSON(c.Entries())
		return
	}
	fmt.Println("Updated.")
}

func cmdDelete(ctx context.Context, client *remote.Client, logger *zap.Logger, args []string) {
	if len(args) == 0 {
		fatalf("usage: gbctl delete <id> [--yes]")
	}
	id := entry.ID(args[0])
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	_ = fs.Parse(args[1:])

	var confirm guestbook.Confirmer
	switch {
	case *yes:
		confirm = guestbook.ConfirmFunc(func(string) bool { return true })
	case term.IsTerminal(int(os.Stdin.Fd())):
		confirm = promptConfirmer(os.Stdin, os.Stderr)
	default:
		fatalf("refusing to delete without a terminal; pass --yes")
	}

	c := newController(client, confirm, logger)
	err := c.Delete(ctx, id)
	switch {
	case errors.Is(err, guestbook.ErrNotConfirmed):
		fmt.Println("Cancelled.")
	case err != nil:
		reportFailure(c, err)
	default:
		fmt.Println("Deleted.")
	}
}

func submit(ctx context.Context, c *guestbook.Controller) {
	if err := c.Submit(ctx); err != nil {
		reportFailure(c, err)
	}
}

// reportFailure prints the pending notice, if any, and exits.
func reportFailure(c *guestbook.Controller, err error) {
	if n, ok := c.TakeNotice(); ok {
		fmt.Fprintln(os.Stderr, n.Text)
		fatalf("%v", n.Err)
	}
	fatalf("%v", err)
}

// promptConfirmer asks on out and reads a y/N answer from in.
func promptConfirmer(in io.Reader, out io.Writer) guestbook.Confirmer {
	reader := bufio.NewReader(in)
	return guestbook.ConfirmFunc(func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, _ := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

func printEntries(w io.Writer, entries []entry.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries yet. Be the first to sign!")
		return
	}
	for _, e := range entries {
		when := ""
		if !e.CreatedAt.IsZero() {
			when = e.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%-10s %-20s %s\n", e.ID, e.Name, when)
		for line := range strings.SplitSeq(e.Message, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
