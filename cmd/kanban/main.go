// Command kanban generates a kanban card PDF for item codes given as
// arguments or typed at a prompt, and prints the path of the written file.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/erp/kanban/internal/bootstrap"
	"github.com/erp/kanban/internal/domain/kanban"
	"github.com/erp/kanban/internal/infrastructure/config"
	"github.com/erp/kanban/internal/infrastructure/logger"
)

const prompt = "Bitte geben Sie eine Teilenummer oder eine kommagetrennte Liste von Teilenummern ein: "

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "kanban:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	flags := pflag.NewFlagSet("kanban", pflag.ContinueOnError)
	configFile := flags.StringP("config", "c", "", "path to the configuration file")
	flags.StringP("out", "o", "", "directory the PDF is written to")
	flags.StringP("ordering", "", "", "page ordering: input or completion")
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "Usage: kanban [flags] [item codes...]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	opts := []config.Option{
		config.WithFlag("kanban.output_dir", flags.Lookup("out")),
		config.WithFlag("kanban.ordering", flags.Lookup("ordering")),
	}
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}

	// stdout carries the output path only
	output := cfg.Log.Output
	if output == "" || output == "stdout" {
		output = "stderr"
	}
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: output,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	raw, err := readCodes(flags.Args(), stdin, stdout)
	if err != nil {
		return err
	}

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{Source: "cli"})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Flush(flushCtx); err != nil {
			log.Warn("Error exporting telemetry", zap.Error(err))
		}
		if err := app.Shutdown(flushCtx); err != nil {
			log.Warn("Error releasing resources", zap.Error(err))
		}
	}()

	doc, err := app.Generator.GenerateFromText(ctx, raw)
	if err != nil {
		return err
	}

	path, err := writeDocument(cfg.Kanban.OutputDir, doc)
	if err != nil {
		return err
	}
	for _, code := range doc.Skipped {
		log.Warn("Item skipped", zap.String("item_code", code))
	}

	_, err = fmt.Fprintln(stdout, path)
	return err
}

// readCodes joins the arguments, or prompts for a line when there are none
func readCodes(args []string, stdin io.Reader, stdout io.Writer) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, ","), nil
	}

	if _, err := fmt.Fprint(stdout, prompt); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read item codes: %w", err)
	}
	return line, nil
}

// writeDocument writes the PDF into dir and returns its path
func writeDocument(dir string, doc *kanban.GeneratedDocument) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, doc.Name)
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
