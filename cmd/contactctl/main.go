// Command contactctl inspects a stopped portal's data file: it lists
// messages or notifications and exports messages as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/config"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/dashboard"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/export"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/live"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/logging"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/model"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage/bolt"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const usage = `usage: contactctl [-config file] [-db path] <command>

commands:
  list [messages|notifications]   print a collection as a table
  export [-o file]                write messages as CSV (stdout by default)
`

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	dbPath := flag.String("db", "", "Path to the data file (overrides config)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := bolt.New(cfg.Storage.Path, bolt.WithLogger(logger))
	if err != nil {
		logger.Fatal("open store (is the server still running?)", zap.String("path", cfg.Storage.Path), zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	switch args[0] {
	case "list":
		raw := ""
		if len(args) > 1 {
			raw = args[1]
		}
		tab, err := dashboard.ParseTab(raw)
		if err != nil {
			logger.Fatal("list", zap.Error(err))
		}
		if err := list(ctx, store, tab, cfg.Location(), logger); err != nil {
			logger.Fatal("list", zap.String("tab", string(tab)), zap.Error(err))
		}
	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		out := fs.String("o", "", "Output file")
		_ = fs.Parse(args[1:])
		if err := exportMessages(ctx, store, *out, cfg.Location(), logger); err != nil {
			logger.Fatal("export", zap.Error(err))
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func list(ctx context.Context, store *bolt.Store, tab dashboard.Tab, loc *time.Location, log *zap.Logger) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	switch tab {
	case dashboard.TabMessages:
		records, err := load(ctx, store, tab.Query(), model.DecodeMessage, log)
		if err != nil {
			return err
		}
		table.SetHeader([]string{"ID", "Name", "Email", "Message", "Submitted At"})
		for _, m := range records {
			table.Append([]string{m.ID, m.Name, m.Email, m.Message, export.FormatStamp(m.SubmittedAt, loc)})
		}
	default:
		records, err := load(ctx, store, tab.Query(), model.DecodeNotification, log)
		if err != nil {
			return err
		}
		table.SetHeader([]string{"ID", "Title", "Message", "Sent At"})
		for _, n := range records {
			table.Append([]string{n.ID, n.Title, n.Message, export.FormatStamp(n.Timestamp, loc)})
		}
	}
	table.Render()
	return nil
}

func exportMessages(ctx context.Context, store *bolt.Store, path string, loc *time.Location, log *zap.Logger) error {
	records, err := load(ctx, store, dashboard.TabMessages.Query(), model.DecodeMessage, log)
	if err != nil {
		return err
	}
	out, ok := export.Messages(records, loc)
	if !ok {
		log.Info("no messages to export")
		return nil
	}
	if path == "" {
		_, err = os.Stdout.Write(append(out, '\n'))
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// load reads a query once, skipping documents that do not decode.
func load[T model.Record](ctx context.Context, store *bolt.Store, q storage.Query, decode live.Decoder[T], log *zap.Logger) ([]T, error) {
	snap, err := store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	records := lo.FilterMap(snap.Documents, func(doc storage.Document, _ int) (T, bool) {
		rec, err := decode(doc)
		if err != nil {
			log.Warn("skipping malformed document",
				zap.String("collection", q.Collection), zap.String("id", doc.ID), zap.Error(err))
		}
		return rec, err == nil
	})
	if q.OrderBy == "" {
		live.SortNewestFirst(records)
	}
	return records, nil
}
