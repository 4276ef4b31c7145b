package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"songresolve/internal/engine"
	"songresolve/internal/query"
	"songresolve/internal/shutdown"
	"songresolve/internal/sortname"
)

var (
	resolveText  string
	resolveAlbum string
	resolveJSON  bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [artist] [track]",
	Short: "Resolve a song and print the ranked results",
	Example: `  songresolve resolve "Daft Punk" "One More Time"
  songresolve resolve "Daft Punk - One More Time"
  songresolve resolve --text "one more time"`,
	Args: cobra.MaximumNArgs(2),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveText, "text", "t", "", "Free-text search")
	resolveCmd.Flags().StringVar(&resolveAlbum, "album", "", "Album name")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Print results as JSON")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer log.Close()

	sh := shutdown.New(cmd.Context())
	sh.Listen()
	defer sh.Shutdown()

	e, err := engine.New(sh.Context(), cfg, log)
	if err != nil {
		return err
	}
	sh.AddCleanup(e.Close)

	if err := e.Start(sh.Context()); err != nil {
		log.Warn("%v", err)
	}

	q, err := buildQuery(e.Queries, args)
	if err != nil {
		return err
	}
	defer q.Close()

	sub := q.Subscribe()
	defer sub.Close()

	log.Debug("Resolving %s", q)
	q.Resolve()

	if err := waitFinished(sh.Context(), sub.C()); err != nil {
		return err
	}

	if resolveJSON {
		return printJSON(q)
	}
	printResults(q)
	return nil
}

// buildQuery turns the arguments into a query. A single argument or the
// --text value is split on " - " into artist and track when possible.
func buildQuery(f *query.Factory, args []string) (*query.Query, error) {
	switch {
	case len(args) == 2:
		return f.Get(args[0], args[1], resolveAlbum, "", false), nil
	case len(args) == 1:
		if artist, track, ok := sortname.SplitArtistTitle(args[0]); ok {
			return f.Get(artist, track, resolveAlbum, "", false), nil
		}
		return f.GetFullText(args[0], ""), nil
	case resolveText != "":
		return f.GetFullText(resolveText, ""), nil
	}
	return nil, errors.New("nothing to resolve: give an artist and track, or --text")
}

func waitFinished(ctx context.Context, events <-chan query.Event) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return errors.New("query closed before resolving finished")
			}
			if ev.Kind == query.ResolvingFinished {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type describer interface {
	Artist() string
	Track() string
	URL() string
}

func printResults(q *query.Query) {
	results := q.Results()
	if len(results) == 0 {
		fmt.Printf("No results for %s\n", q)
		return
	}

	fmt.Printf("%s: %d results (solved: %v, playable: %v)\n", q, len(results), q.Solved(), q.Playable())
	for i, r := range results {
		origin := "online"
		if src := r.Source(); src != nil && src.IsLocal() {
			origin = "local"
		}
		if d, ok := r.(describer); ok {
			fmt.Printf("%3d. %.3f  %-6s  %s - %s\n       %s\n", i+1, r.Score(), origin, d.Artist(), d.Track(), d.URL())
		} else {
			fmt.Printf("%3d. %.3f  %-6s  %s\n", i+1, r.Score(), origin, r.ID())
		}
	}

	if albums := q.Albums(); len(albums) > 0 {
		fmt.Println("Albums:")
		for _, a := range albums {
			fmt.Printf("  %s - %s\n", a.Artist, a.Name)
		}
	}
	if artists := q.Artists(); len(artists) > 0 {
		fmt.Println("Artists:")
		for _, a := range artists {
			fmt.Printf("  %s\n", a.Name)
		}
	}
}

type mapper interface {
	ToMap() map[string]any
}

func printJSON(q *query.Query) error {
	out := q.ToMap()
	var results []map[string]any
	for _, r := range q.Results() {
		if m, ok := r.(mapper); ok {
			results = append(results, m.ToMap())
		}
	}
	out["results"] = results
	out["solved"] = q.Solved()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
