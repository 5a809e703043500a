// cmd/kuzu-memory is a thin CLI over the Core API (internal/memory): it
// exists to exercise generate/remember/recall/stats end to end, not to
// replace an MCP adapter or editor hooks.
//
// Startup sequence: load config, open the store, install a
// signal-triggered shutdown, dispatch one subcommand, close.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kuzu-memory/kuzu-memory/internal/config"
	"github.com/kuzu-memory/kuzu-memory/internal/memory"
	"github.com/kuzu-memory/kuzu-memory/internal/queue"
	"github.com/kuzu-memory/kuzu-memory/internal/recall"
	"github.com/kuzu-memory/kuzu-memory/internal/storage"
)

func main() {
	log.SetPrefix("kuzu-memory: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfgPath := os.Getenv("KUZU_MEMORY_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	dbPath := cfg.DBPath
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		log.Fatalf("creating db directory: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("received shutdown signal")
		cancel()
	}()

	eng, err := memory.Open(ctx, dbPath, cfg)
	if err != nil {
		log.Fatalf("opening engine: %v", err)
	}
	defer func() {
		if err := eng.Close(context.Background()); err != nil {
			log.Printf("close error: %v", err)
		}
	}()

	if err := dispatch(ctx, eng, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("%v", err)
	}
}

func dispatch(ctx context.Context, eng *memory.Engine, cmd string, args []string) error {
	switch cmd {
	case "generate":
		return runGenerate(ctx, eng, args)
	case "remember":
		return runRemember(ctx, eng, args)
	case "recall":
		return runRecall(ctx, eng, args)
	case "stats":
		return runStats(ctx, eng)
	default:
		usage()
		return fmt.Errorf("unknown subcommand %q", cmd)
	}
}

func runGenerate(ctx context.Context, eng *memory.Engine, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	source := fs.String("source", "cli", "source_type tag for the generated memories")
	user := fs.String("user", "", "explicit user_id override")
	async := fs.Bool("async", false, "submit to the async learning queue instead of blocking")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: generate [-source=S] [-user=U] [-async] <text>")
	}
	text := fs.Arg(0)

	var userPtr *string
	if *user != "" {
		userPtr = user
	}

	if *async {
		id, err := eng.GenerateMemoriesAsync(text, *source, userPtr, nil, nil, nil, queue.Normal)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	}

	ids, err := eng.GenerateMemories(ctx, text, *source, userPtr, nil, nil, nil)
	if err != nil {
		return err
	}
	return printJSON(ids)
}

func runRemember(ctx context.Context, eng *memory.Engine, args []string) error {
	fs := flag.NewFlagSet("remember", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: remember <content>")
	}
	id, err := eng.Remember(ctx, fs.Arg(0), nil)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func runRecall(ctx context.Context, eng *memory.Engine, args []string) error {
	fs := flag.NewFlagSet("recall", flag.ExitOnError)
	limit := fs.Int("limit", 10, "max memories to attach")
	strategy := fs.String("strategy", "", "keyword|entity|temporal|hybrid (default: configured default)")
	userID := fs.String("user", "", "restrict to a user_id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: recall [-limit=N] [-strategy=S] <prompt>")
	}

	ctxBundle, err := eng.AttachMemories(ctx, fs.Arg(0), *limit, recall.Strategy(*strategy), storage.Filters{UserID: *userID})
	if err != nil {
		return err
	}
	return printJSON(ctxBundle)
}

func runStats(ctx context.Context, eng *memory.Engine) error {
	stats, err := eng.Stats(ctx)
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: kuzu-memory <generate|remember|recall|stats> [flags] [args]

  generate [-source=S] [-user=U] [-async] <text>   extract and store memories from text
  remember <content>                                store content verbatim as a Context memory
  recall [-limit=N] [-strategy=S] <prompt>          attach relevant memories to a prompt
  stats                                             print storage-level counters`)
}
