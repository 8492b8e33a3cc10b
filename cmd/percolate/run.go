package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/hupe1980/percolator"
	"github.com/hupe1980/percolator/aggregation"
	"github.com/hupe1980/percolator/config"
	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/facet"
	"github.com/hupe1980/percolator/query"
	targetbleve "github.com/hupe1980/percolator/target/bleve"
)

type runFlags struct {
	mode     string
	target   string
	size     int
	limit    bool
	snapshot bool
	json     bool
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [document.json...]",
		Short: "Percolate JSON documents",
		Long: `Percolates each document against the registered queries. Without
arguments a single document is read from stdin. Several documents are
percolated concurrently as one batch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, f, args)
		},
	}
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "match, count, score or sort (default from config)")
	cmd.Flags().StringVar(&f.target, "target", "", "native or bleve (default from config)")
	cmd.Flags().IntVarP(&f.size, "size", "n", -1, "result size (default from config)")
	cmd.Flags().BoolVar(&f.limit, "limit", false, "store at most size matches")
	cmd.Flags().BoolVar(&f.snapshot, "snapshot", false, "load the registry snapshot before percolating")
	cmd.Flags().BoolVar(&f.json, "json", false, "output results as JSON")
	return cmd
}

func (a *app) run(cmd *cobra.Command, f *runFlags, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pc := a.cfg.Percolate
	if f.mode != "" {
		pc.Mode = f.mode
	}
	if f.target != "" {
		pc.Target = f.target
	}
	if f.size >= 0 {
		pc.Size = f.size
	}
	if cmd.Flags().Changed("limit") {
		pc.Limit = f.limit
	}

	docs, err := readDocuments(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	reg, err := a.registry()
	if err != nil {
		return err
	}
	p, err := a.percolator(reg)
	if err != nil {
		return err
	}
	defer p.Close()

	if f.snapshot {
		if err := a.loadSnapshot(ctx, p); err != nil {
			return err
		}
	}

	reqs := make([]*percolator.Request, len(docs))
	for i, doc := range docs {
		req, closeFn, err := newRequest(pc, doc)
		if err != nil {
			return err
		}
		defer closeFn()
		reqs[i] = req
	}

	var results []*percolator.Result
	if len(reqs) == 1 {
		res, err := p.Percolate(ctx, reqs[0])
		if err != nil {
			return err
		}
		results = []*percolator.Result{res}
	} else {
		results, err = p.PercolateBatch(ctx, reqs)
		if err != nil {
			return err
		}
	}

	if f.json {
		return printJSON(cmd.OutOrStdout(), results)
	}
	printText(cmd, results)
	return nil
}

func (a *app) loadSnapshot(ctx context.Context, p *percolator.Percolator) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	_, err = p.LoadSnapshot(ctx, store, a.cfg.Snapshot.Name)
	return err
}

// readDocuments decodes one JSON object per file, or one from r without files.
func readDocuments(r io.Reader, files []string) ([]document.Document, error) {
	if len(files) == 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		doc, err := decodeDocument(data)
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return []document.Document{doc}, nil
	}

	docs := make([]document.Document, 0, len(files))
	for _, name := range files {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		doc, err := decodeDocument(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func decodeDocument(data []byte) (document.Document, error) {
	var m map[string]any
	if err := gojson.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("document must be a JSON object")
	}
	return document.FromMap(m)
}

// newRequest builds a request from the percolate section. The returned
// function releases the target searcher.
func newRequest(pc config.PercolateConfig, doc document.Document) (*percolator.Request, func() error, error) {
	noop := func() error { return nil }

	mode, err := percolator.ParseMode(pc.Mode)
	if err != nil {
		return nil, noop, err
	}
	req := &percolator.Request{
		Document:  doc,
		Mode:      mode,
		Size:      pc.Size,
		Limit:     pc.Limit,
		Highlight: pc.Highlight,
	}

	if req.Filter, err = compile(pc.Filter); err != nil {
		return nil, noop, fmt.Errorf("filter: %w", err)
	}
	if req.Score, err = compile(pc.Score); err != nil {
		return nil, noop, fmt.Errorf("score: %w", err)
	}
	if req.Facets, err = pc.FacetEntries(); err != nil {
		return nil, noop, err
	}
	if req.Aggregations, err = pc.AggregationFactories(); err != nil {
		return nil, noop, err
	}

	if pc.Target == "bleve" {
		s, err := targetbleve.New(doc)
		if err != nil {
			return nil, noop, err
		}
		req.Target = s
		return req, s.Close, nil
	}
	return req, noop, nil
}

func compile(def *query.Definition) (query.Query, error) {
	if def == nil {
		return nil, nil
	}
	return def.Compile()
}

type resultView struct {
	RequestID    string                        `json:"request_id"`
	Mode         string                        `json:"mode"`
	Total        int                           `json:"total"`
	Matches      []percolator.Match            `json:"matches,omitempty"`
	Facets       map[string]facet.Result       `json:"facets,omitempty"`
	Aggregations map[string]aggregation.Result `json:"aggregations,omitempty"`
	Faults       []string                      `json:"faults,omitempty"`
	TookMillis   float64                       `json:"took_ms"`
}

func view(res *percolator.Result) resultView {
	v := resultView{
		RequestID:  res.RequestID,
		Mode:       res.Mode.String(),
		Total:      res.Total,
		Matches:    res.Matches,
		TookMillis: float64(res.Took.Microseconds()) / 1000,
	}
	if len(res.Facets) > 0 {
		v.Facets = make(map[string]facet.Result, len(res.Facets))
		for _, f := range res.Facets {
			v.Facets[f.Name] = f.Result
		}
	}
	if len(res.Aggregations) > 0 {
		v.Aggregations = make(map[string]aggregation.Result, len(res.Aggregations))
		for _, a := range res.Aggregations {
			v.Aggregations[a.Name] = a.Result
		}
	}
	for _, f := range res.Faults {
		v.Faults = append(v.Faults, f.Error())
	}
	return v
}

func printJSON(w io.Writer, results []*percolator.Result) error {
	views := make([]resultView, len(results))
	for i, res := range results {
		views[i] = view(res)
	}

	var out any = views
	if len(views) == 1 {
		out = views[0]
	}
	data, err := gojson.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printText(cmd *cobra.Command, results []*percolator.Result) {
	for i, res := range results {
		if len(results) > 1 {
			cmd.Printf("Document %d:\n", i+1)
		}
		if res.Mode == percolator.ModeSort {
			cmd.Printf("Top %d matches:\n", len(res.Matches))
		} else {
			cmd.Printf("%d matches:\n", res.Total)
		}

		for j, m := range res.Matches {
			if res.Mode == percolator.ModeScore || res.Mode == percolator.ModeSort {
				cmd.Printf("  [%d] %s (%.2f)\n", j+1, m.ID, m.Score)
			} else {
				cmd.Printf("  [%d] %s\n", j+1, m.ID)
			}

			fields := make([]string, 0, len(m.Highlight))
			for name := range m.Highlight {
				fields = append(fields, name)
			}
			sort.Strings(fields)
			for _, name := range fields {
				for _, frag := range m.Highlight[name].Fragments {
					cmd.Printf("      %s: %s\n", name, frag)
				}
			}
		}

		for _, f := range res.Faults {
			cmd.Printf("  fault: %v\n", f)
		}
		cmd.Println()
	}
}
