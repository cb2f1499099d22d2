package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/jessevdk/go-flags"
	"github.com/karupanerura/formula-processor/internal/formula"
	"github.com/karupanerura/formula-processor/internal/functions"
	"github.com/karupanerura/formula-processor/internal/logs"
	"github.com/karupanerura/formula-processor/internal/server"
	"github.com/karupanerura/formula-processor/internal/table"
	"github.com/karupanerura/formula-processor/internal/types"
	"github.com/mattn/go-isatty"
)

type Option struct {
	Table    string   `short:"t" long:"table" description:"[OPTIONAL] Table file (.json, .yaml, .yml or .csv)" required:"false"`
	Expr     []string `short:"e" long:"expr" description:"[OPTIONAL] Formula to evaluate (repeatable)" required:"false"`
	Recalc   bool     `long:"recalc" description:"[OPTIONAL] Print the table with every formula cell evaluated" required:"false"`
	Listen   string   `short:"l" long:"listen" description:"[OPTIONAL] Listen host and port to serve the HTTP API" required:"false"`
	LogLevel string   `long:"log-level" description:"[OPTIONAL] Log level (debug, info, warn or error)" default:"info"`
	LogJSON  string   `long:"log-json" description:"[OPTIONAL] Also write JSON logs to this file" required:"false"`
}

type result struct {
	Formula string        `json:"formula"`
	Value   formula.Value `json:"value"`
	Error   any           `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opt Option
	parser := flags.NewParser(&opt, flags.Default)
	_, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		} else {
			parser.WriteHelp(stdout)
			return 1
		}
	}
	if modes := countTrue(len(opt.Expr) != 0, opt.Recalc, opt.Listen != ""); modes != 1 {
		parser.WriteHelp(stdout)
		return 1
	}

	logger, closer, err := logs.New(logs.Options{
		Level:    opt.LogLevel,
		Terminal: stderr,
		JSONFile: opt.LogJSON,
	})
	if err != nil {
		fmt.Fprintf(stderr, "failed to set up logger: %v\n", err)
		return 1
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := functions.NewRegistry()
	loader := func() (*table.Grid, error) {
		return loadTable(opt.Table)
	}

	// server mode
	if opt.Listen != "" {
		if err := serveTable(ctx, opt.Listen, loader, registry); err != nil {
			logger.Error("failed to serve", slog.Any("error", err))
			return 1
		}
		return 0
	}

	g, err := loader()
	if err != nil {
		logger.Error("failed to load table", slog.String("file", opt.Table), slog.Any("error", err))
		return 1
	}
	recalculated, err := g.Recalculate(ctx, registry)
	if err != nil {
		logger.Error("failed to recalculate table", slog.Any("error", err))
		return 1
	}

	if opt.Recalc {
		if err := dumpJSON(stdout, recalculated.Document()); err != nil {
			logger.Error("failed to dump table", slog.Any("error", err))
			return 1
		}
		return 0
	}

	results, err := formula.EvaluateAll(ctx, opt.Expr, recalculated, registry)
	if err != nil {
		logger.Error("failed to evaluate formulas", slog.Any("error", err))
		return 1
	}

	// single formula: print the bare value like a calculator would
	if len(results) == 1 {
		if err := results[0].Err; err != nil {
			var exception types.Exception
			if errors.As(err, &exception) {
				if _, err = fmt.Fprintln(stderr, err.Error()); err != nil {
					logger.Error("failed to dump formula error", slog.Any("error", err))
				}
				if err = dumpJSON(stderr, exception.Exception()); err != nil {
					logger.Error("failed to dump formula error as JSON", slog.Any("error", err))
				}
			} else {
				logger.Error("failed to evaluate formula", slog.Any("error", err))
			}
			return 1
		}
		if err := dumpJSON(stdout, results[0].Value); err != nil {
			logger.Error("failed to dump formula result", slog.Any("error", err))
			return 1
		}
		return 0
	}

	status := 0
	out := make([]result, len(results))
	for i, r := range results {
		out[i] = result{Formula: r.Source, Value: r.Value}
		if r.Err != nil {
			status = 1
			out[i].Error = r.Err.Error()
			var exception types.Exception
			if errors.As(r.Err, &exception) {
				out[i].Error = exception.Exception()
			}
		}
	}
	if err := dumpJSON(stdout, out); err != nil {
		logger.Error("failed to dump formula results", slog.Any("error", err))
		return 1
	}
	return status
}

func countTrue(conds ...bool) int {
	n := 0
	for _, c := range conds {
		if c {
			n++
		}
	}
	return n
}

// loadTable reads the table file; formulas without a table run against an
// empty grid.
func loadTable(filePath string) (*table.Grid, error) {
	if filePath == "" {
		return table.NewGrid(nil), nil
	}

	g, err := table.LoadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("table.LoadFile(%q): %w", filePath, err)
	}
	return g, nil
}

func serveTable(ctx context.Context, listen string, loader func() (*table.Grid, error), registry *formula.Registry) error {
	handler, err := server.NewHTTPHandler(ctx, server.Config{
		Loader:   loader,
		Registry: registry,
		Logger:   slog.Default(),
	})
	if err != nil {
		return err
	}

	srv := http.Server{
		Handler:           handler,
		Addr:              listen,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down", slog.Any("error", err))
		}
	}()

	slog.Info("listen HTTP", slog.String("addr", listen))
	if err := srv.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
		return nil
	} else if err != nil {
		return err
	}
	return nil
}

func dumpJSON(w io.Writer, v any) error {
	opts := []json.EncodeOptionFunc{json.DisableHTMLEscape()}
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		if isatty.IsTerminal(f.Fd()) {
			opts = append(opts, json.Colorize(json.DefaultColorScheme))
		}
	}

	b, err := json.MarshalIndentWithOption(v, "", "\t", opts...)
	if err != nil {
		return fmt.Errorf("json.MarshalIndentWithOption: %w", err)
	}

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
