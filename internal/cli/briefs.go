package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/sourcebrief/internal/model"
	"github.com/ppiankov/sourcebrief/internal/pipeline"
	"github.com/ppiankov/sourcebrief/internal/store"
)

var (
	urlFile     string
	outJSON     bool
	listLimit   int
	createLimit time.Duration
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create [url...]",
	Short: "Create a research brief from one or more URLs",
	Long: `Create fetches every URL concurrently, extracts its text and asks the
configured model for a research brief. URLs that cannot be fetched are
skipped; the brief fails only when none of them produced content.

Example:
  sourcebrief create https://en.wikipedia.org/wiki/Kimchi https://example.com/fermentation
  sourcebrief create --file urls.txt --json
  sourcebrief create --provider anthropic --models claude-3-5-haiku-20241022 https://example.com`,
	RunE: runCreate,
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a stored research brief",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent research briefs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(createCmd, getCmd, listCmd)

	createCmd.Flags().StringVarP(&urlFile, "file", "f", "", "read URLs from file (one per line, # comments)")
	createCmd.Flags().BoolVar(&outJSON, "json", false, "print the brief as JSON")
	createCmd.Flags().DurationVar(&createLimit, "timeout", 5*time.Minute, "overall timeout")
	createCmd.Flags().Int("workers", 0, "max concurrent fetches (0 = one per URL)")
	_ = viper.BindPFlag("concurrency.fetch_workers", createCmd.Flags().Lookup("workers"))

	getCmd.Flags().BoolVar(&outJSON, "json", false, "print the brief as JSON")

	listCmd.Flags().IntVarP(&listLimit, "limit", "n", store.DefaultListLimit, "number of briefs to show")
	listCmd.Flags().BoolVar(&outJSON, "json", false, "print briefs as JSON")
}

func runCreate(cmd *cobra.Command, args []string) error {
	urls := append([]string(nil), args...)
	if urlFile != "" {
		fromFile, err := readURLFile(urlFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), createLimit)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	brief, err := a.service.CreateBrief(ctx, urls)
	if err != nil {
		var vErr *pipeline.ValidationError
		if errors.As(err, &vErr) {
			return fmt.Errorf("invalid URLs:\n  %s", strings.Join(vErr.Messages, "\n  "))
		}
		return fmt.Errorf("create brief: %w", err)
	}

	if cfg.Store.Driver == "" || cfg.Store.Driver == "memory" {
		fmt.Fprintln(os.Stderr, "Note: memory store in use, this brief is not persisted (use --store postgres)")
	}

	if outJSON {
		return writeJSON(cmd.OutOrStdout(), brief)
	}
	writeBrief(cmd.OutOrStdout(), brief)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	brief, err := a.service.GetBrief(cmd.Context(), args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("research brief not found: %s", args[0])
	}
	if err != nil {
		return err
	}

	if outJSON {
		return writeJSON(cmd.OutOrStdout(), brief)
	}
	writeBrief(cmd.OutOrStdout(), brief)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	briefs, err := a.service.ListRecent(cmd.Context(), listLimit)
	if err != nil {
		return err
	}

	if outJSON {
		if briefs == nil {
			briefs = []model.ResearchBrief{}
		}
		return writeJSON(cmd.OutOrStdout(), briefs)
	}
	writeBriefTable(cmd.OutOrStdout(), briefs)
	return nil
}

// readURLFile returns the URLs in path, one per line. Blank lines and
// lines starting with # are skipped; nothing else is filtered.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open URL file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read URL file: %w", err)
	}
	return urls, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
