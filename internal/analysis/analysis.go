// Package analysis tokenizes field text for match queries and highlighting.
//
// Text is run through bleve's standard analyzer (unicode segmentation,
// lowercasing, English stop words), the same analyzer the bleve target indexes
// with, so both targets agree on which terms a text contains.
package analysis

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/registry"
)

// Analyzer is the name of the bleve analyzer used for text fields.
const Analyzer = standard.Name

// Token is a lowercased term with its byte offsets in the source text.
type Token struct {
	Term  string
	Start int
	End   int
}

var analyzer = sync.OnceValue(func() analysis.Analyzer {
	a, err := registry.NewCache().AnalyzerNamed(Analyzer)
	if err != nil {
		panic(fmt.Sprintf("analysis: %s analyzer: %v", Analyzer, err))
	}
	return a
})

// Tokenize analyzes text and returns its tokens in source order.
// Stop words produce no token.
func Tokenize(text string) []Token {
	if text == "" {
		return nil
	}
	stream := analyzer().Analyze([]byte(text))
	if len(stream) == 0 {
		return nil
	}
	tokens := make([]Token, len(stream))
	for i, t := range stream {
		tokens[i] = Token{Term: string(t.Term), Start: t.Start, End: t.End}
	}
	return tokens
}

// Terms returns only the terms of Tokenize.
func Terms(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, len(tokens))
	for i := range tokens {
		terms[i] = tokens[i].Term
	}
	return terms
}
