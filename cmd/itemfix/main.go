package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tablekit/itemfix"
	"github.com/tablekit/itemfix/cache"
	"github.com/tablekit/itemfix/config"
	"github.com/tablekit/itemfix/tokenize"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "itemfix",
		Short: "Invoice line-item table reconstruction",
		Long: `itemfix rebuilds structured line-item tables from tokenized
invoice pages: it anchors the items region, ranks table candidates,
repairs row and column structure, and cross-checks the result
arithmetically, driven by a declarative per-vendor config.`,
		Version: version,
	}

	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(inspectCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func processCmd() *cobra.Command {
	var (
		configPath string
		cachePath  string
		out        string
		verbose    bool
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "process [tokens.json|document.pdf]",
		Short: "Reconstruct line-item tables from a token file or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := buildRunner(configPath, cachePath, verbose, timeout)
			if err != nil {
				return err
			}
			doc, err := loadInput(args[0])
			if err != nil {
				return err
			}
			res, err := runner.Process(context.Background(), doc)
			if err != nil {
				return err
			}
			return writeJSON(out, res)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "vendor config file (required)")
	cmd.Flags().StringVar(&cachePath, "cache", "", "template cache sidecar file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log per-page processing")
	cmd.Flags().DurationVar(&timeout, "engine-timeout", 10*time.Second, "per-call candidate engine deadline")
	cmd.MarkFlagRequired("config")
	return cmd
}

func inspectCmd() *cobra.Command {
	var (
		configPath string
		out        string
	)
	cmd := &cobra.Command{
		Use:   "inspect [tokens.json|document.pdf]",
		Short: "Dump the per-page candidate ranking report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := buildRunner(configPath, "", false, 10*time.Second)
			if err != nil {
				return err
			}
			doc, err := loadInput(args[0])
			if err != nil {
				return err
			}
			res, err := runner.Process(context.Background(), doc)
			if err != nil {
				return err
			}
			return writeJSON(out, res.Diagnostics)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "vendor config file (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.MarkFlagRequired("config")
	return cmd
}

func buildRunner(configPath, cachePath string, verbose bool, timeout time.Duration) (*itemfix.Runner, error) {
	cfg, cp, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	runner := itemfix.New(cfg, cp).WithEngineTimeout(timeout)
	if cachePath != "" {
		runner.WithCache(cache.NewFileStore(cachePath))
	}
	if verbose {
		log := logrus.New()
		log.SetLevel(logrus.DebugLevel)
		runner.WithLogger(log)
	}
	return runner, nil
}

func loadInput(path string) (*itemfix.Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		pages, err := tokenize.FromPDF(path)
		if err != nil {
			return nil, err
		}
		return &itemfix.Document{
			DocID: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Pages: pages,
		}, nil
	}
	return itemfix.LoadDocument(path)
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')
	if path == "" {
		_, err = os.Stdout.Write(raw)
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
