package highlight

import (
	"slices"
	"strings"

	"github.com/hupe1980/percolator/internal/analysis"
	"github.com/hupe1980/percolator/query"
)

// TermHighlighter highlights the analyzed terms of the staged query.
// Prefix terms (reported with a trailing '*') highlight every token they prefix.
type TermHighlighter struct{}

// NewTermHighlighter returns a TermHighlighter.
func NewTermHighlighter() *TermHighlighter {
	return &TermHighlighter{}
}

type termSet struct {
	exact    map[string]struct{}
	prefixes []string
}

func (s *termSet) matches(term string) bool {
	if _, ok := s.exact[term]; ok {
		return true
	}
	for _, p := range s.prefixes {
		if strings.HasPrefix(term, p) {
			return true
		}
	}
	return false
}

// Highlight implements Highlighter.
func (h *TermHighlighter) Highlight(hc *HitContext) (map[string]Field, error) {
	q := hc.Query()
	if q == nil {
		return nil, nil
	}

	terms := make(map[string]*termSet)
	var order []string
	query.VisitTerms(q, func(field, term string) {
		set, ok := terms[field]
		if !ok {
			set = &termSet{exact: make(map[string]struct{})}
			terms[field] = set
			order = append(order, field)
		}
		if p, isPrefix := strings.CutSuffix(term, "*"); isPrefix {
			set.prefixes = append(set.prefixes, p)
			return
		}
		for _, t := range analysis.Terms(term) {
			set.exact[t] = struct{}{}
		}
	})

	opts := hc.Options()
	fields := opts.Fields
	if len(fields) == 0 {
		fields = order
	}

	var out map[string]Field
	for _, field := range fields {
		set, ok := terms[field]
		if !ok {
			continue
		}
		frags := h.fragments(hc, field, set, opts)
		if len(frags) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string]Field)
		}
		out[field] = Field{Name: field, Fragments: frags}
	}
	return out, nil
}

type fieldText struct {
	text   string
	tokens []analysis.Token
}

func (h *TermHighlighter) analyzed(hc *HitContext, field string) []fieldText {
	key := "tokens:" + field
	if cached, ok := hc.Cache()[key]; ok {
		return cached.([]fieldText)
	}

	var texts []fieldText
	if v, ok := hc.Document()[field]; ok {
		for _, e := range v.Elements() {
			s, isString := e.AsString()
			if !isString {
				continue
			}
			texts = append(texts, fieldText{text: s, tokens: analysis.Tokenize(s)})
		}
	}
	hc.Cache()[key] = texts
	return texts
}

func (h *TermHighlighter) fragments(hc *HitContext, field string, set *termSet, opts Options) []string {
	var frags []string
	for _, ft := range h.analyzed(hc, field) {
		var hits []analysis.Token
		for _, tok := range ft.tokens {
			if set.matches(tok.Term) {
				hits = append(hits, tok)
			}
		}
		if len(hits) == 0 {
			continue
		}

		for _, span := range spans(ft.text, ft.tokens, hits, opts.FragmentSize) {
			frags = append(frags, mark(ft.text, span, hits, opts))
			if len(frags) == opts.Fragments {
				return frags
			}
		}
	}
	return frags
}

type span struct{ start, end int }

// spans groups hits into fragments of roughly size bytes aligned to token
// boundaries. A negative size yields the whole text.
func spans(text string, tokens, hits []analysis.Token, size int) []span {
	if size < 0 || len(text) <= size {
		return []span{{0, len(text)}}
	}

	var out []span
	for _, hit := range hits {
		if n := len(out); n > 0 && hit.End <= out[n-1].end {
			continue
		}

		// Centre the fragment on the hit, then snap to token boundaries.
		pad := max(0, (size-(hit.End-hit.Start))/2)
		start := max(0, hit.Start-pad)
		end := min(len(text), hit.End+pad)

		i, _ := slices.BinarySearchFunc(tokens, start, func(t analysis.Token, off int) int { return t.Start - off })
		if i < len(tokens) && tokens[i].Start < hit.Start {
			start = tokens[i].Start
		} else {
			start = hit.Start
		}
		for j := len(tokens) - 1; j >= 0; j-- {
			if tokens[j].End <= end && tokens[j].End >= hit.End {
				end = tokens[j].End
				break
			}
		}

		if n := len(out); n > 0 && start < out[n-1].end {
			start = out[n-1].end
		}
		out = append(out, span{start, end})
	}
	return out
}

func mark(text string, sp span, hits []analysis.Token, opts Options) string {
	var b strings.Builder
	pos := sp.start
	for _, hit := range hits {
		if hit.Start < sp.start || hit.End > sp.end {
			continue
		}
		b.WriteString(text[pos:hit.Start])
		b.WriteString(opts.PreTag)
		b.WriteString(text[hit.Start:hit.End])
		b.WriteString(opts.PostTag)
		pos = hit.End
	}
	b.WriteString(text[pos:sp.end])
	return strings.TrimSpace(b.String())
}

var _ Highlighter = (*TermHighlighter)(nil)
