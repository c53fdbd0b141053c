package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/portfolio-search/internal/searcher"
	"github.com/dshills/portfolio-search/pkg/types"
)

const commandTimeout = 2 * time.Minute

var (
	searchType     string
	searchCategory string
	searchPlatform string
	searchLimit    int
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run one search and print ranked results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <partial query>",
	Short: "Print autocomplete suggestions",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSuggest,
}

func init() {
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "", "Only return records of this type (project, writing, experience, skill, profile)")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "Only return records in this category")
	searchCmd.Flags().StringVar(&searchPlatform, "platform", "", "Only return writing from this platform")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", searcher.DefaultLimit, "Maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print results as JSON")
	suggestCmd.Flags().BoolVar(&searchJSON, "json", false, "Print suggestions as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	opts := searcher.Options{Limit: searchLimit}
	if searchType != "" {
		t, err := types.ParseRecordType(searchType)
		if err != nil {
			return err
		}
		opts.Type = t
	}
	opts.Category = searchCategory
	opts.Platform = searchPlatform

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	query := strings.Join(args, " ")
	start := time.Now()
	results, err := a.searcher.Search(ctx, query, opts)
	if err != nil {
		return err
	}

	if searchJSON {
		return writeJSON(results)
	}

	fmt.Printf("Found %d results for %q in %s\n\n", len(results), query, time.Since(start).Round(time.Millisecond))
	for _, r := range results {
		title := r.Record.Title
		if hl := r.Highlights[types.FieldTitle]; len(hl) > 0 {
			title = types.RenderSegments(hl[0], "[", "]")
		}
		fmt.Printf("%2d. %-10s %s (%.3f)\n", r.Rank, r.Record.Type, title, r.Relevance)
		if r.Record.URL != "" {
			fmt.Printf("    %s\n", r.Record.URL)
		}
	}
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	suggestions, err := a.searcher.Suggest(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if searchJSON {
		return writeJSON(suggestions)
	}
	for _, s := range suggestions {
		fmt.Println(s)
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
