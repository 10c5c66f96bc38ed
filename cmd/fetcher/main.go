package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"geofrag/internal/pipeline"
	"geofrag/internal/sources/fred"
	"geofrag/internal/sources/imf"
	"geofrag/internal/sources/worldbank"
	"geofrag/internal/store"
	"geofrag/internal/store/sqlite"
)

func main() {
	_ = godotenv.Load() // .env is optional

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		run(os.Args[2:])
	case "history":
		history(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func run(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	outDir := fs.String("out", "data", "output directory for JSON files")
	indexPath := fs.String("index", "index.html", "path of the generated redirect page")
	dbPath := fs.String("db", "", "sqlite run archive path (empty disables archiving)")
	timeout := fs.Duration("timeout", 0, "per-request timeout override (0 = source defaults)")
	fs.Parse(args)

	if err := runFetcher(*outDir, *indexPath, *dbPath, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "fetcher run failed:", err)
		os.Exit(1)
	}
}

func history(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dbPath := fs.String("db", "geofrag.db", "sqlite run archive path")
	limit := fs.Int("limit", 20, "maximum runs to list (0 = all)")
	fs.Parse(args)

	if err := listHistory(*dbPath, *limit); err != nil {
		fmt.Fprintln(os.Stderr, "fetcher history failed:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fetcher <run|history> [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  run      fetch all sources and write the dashboard data files")
	fmt.Fprintln(os.Stderr, "  history  list archived runs from the sqlite archive")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "run options:")
	fmt.Fprintln(os.Stderr, "  -out      output directory for JSON files (default: data)")
	fmt.Fprintln(os.Stderr, "  -index    path of the generated redirect page (default: index.html)")
	fmt.Fprintln(os.Stderr, "  -db       sqlite run archive path (default: archiving disabled)")
	fmt.Fprintln(os.Stderr, "  -timeout  per-request timeout override (default: source defaults)")
}

func runFetcher(outDir, indexPath, dbPath string, timeout time.Duration) error {
	log := newLogger()

	wb, err := worldbank.New(log)
	if err != nil {
		return err
	}
	imfClient, err := imf.New(log)
	if err != nil {
		return err
	}
	fredClient, err := fred.New(log)
	if err != nil {
		return err
	}
	if timeout > 0 {
		wb.SetTimeout(timeout)
		imfClient.SetTimeout(timeout)
		fredClient.SetTimeout(timeout)
	}

	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	p := &pipeline.Pipeline{
		WorldBank: wb,
		IMF:       imfClient,
		FRED:      fredClient,
		Store:     st,
		OutDir:    outDir,
		IndexPath: indexPath,
		Log:       log,
	}

	result, err := p.Run(context.Background())
	if err != nil {
		return err
	}

	for _, outcome := range result.Outcomes {
		line := fmt.Sprintf("%s=%s", outcome.Source, outcome.Status)
		if outcome.Reason != "" {
			line += " (" + outcome.Reason + ")"
		}
		fmt.Println(line)
	}
	fmt.Printf("fetcher run complete (status=%s out=%s)\n", result.Status, outDir)
	return nil
}

func listHistory(dbPath string, limit int) error {
	if strings.TrimSpace(dbPath) == "" {
		return errors.New("db path is required")
	}

	st, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no archived runs")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s  %s", run.StartedAt.Format(time.RFC3339), run.ID, run.Status)
		for _, outcome := range run.Outcomes {
			fmt.Printf("  %s=%s", outcome.Source, outcome.Status)
		}
		fmt.Println()
	}
	return nil
}

func openStore(path string) (store.Store, error) {
	if strings.TrimSpace(path) == "" {
		return &store.NopStore{}, nil
	}
	return sqlite.New(path)
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}
	return log
}
