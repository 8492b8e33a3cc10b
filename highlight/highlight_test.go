package highlight

import (
	"testing"

	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHitContextStage(t *testing.T) {
	hc := NewHitContext(document.Document{}, Options{})
	assert.Equal(t, DefaultPreTag, hc.Options().PreTag)
	assert.Equal(t, DefaultFragments, hc.Options().Fragments)

	hc.Cache()["k"] = 1
	q := query.MatchAll()
	hc.Stage(q)

	assert.Same(t, q, hc.Query())
	assert.Empty(t, hc.Cache())
	assert.Equal(t, 1, hc.Version())
}

func TestTermHighlighter(t *testing.T) {
	doc := document.Document{
		"body":  document.String("The quick brown fox jumps over the lazy dog"),
		"title": document.Strings("Fox news", "Nothing here"),
		"n":     document.Int(3),
	}
	h := NewTermHighlighter()

	t.Run("WholeValue", func(t *testing.T) {
		hc := NewHitContext(doc, Options{FragmentSize: -1})
		hc.Stage(query.Match("body", "FOX dog"))

		got, err := h.Highlight(hc)
		require.NoError(t, err)
		assert.Equal(t, map[string]Field{
			"body": {Name: "body", Fragments: []string{"The quick brown <em>fox</em> jumps over the lazy <em>dog</em>"}},
		}, got)
	})

	t.Run("CustomTags", func(t *testing.T) {
		hc := NewHitContext(doc, Options{PreTag: "[", PostTag: "]"})
		hc.Stage(query.Term("title", document.String("fox")))

		got, err := h.Highlight(hc)
		require.NoError(t, err)
		assert.Equal(t, []string{"[Fox] news"}, got["title"].Fragments)
	})

	t.Run("Prefix", func(t *testing.T) {
		hc := NewHitContext(doc, Options{})
		hc.Stage(query.Prefix("body", "qu"))

		got, err := h.Highlight(hc)
		require.NoError(t, err)
		assert.Equal(t, []string{"The <em>quick</em> brown fox jumps over the lazy dog"}, got["body"].Fragments)
	})

	t.Run("BoolVisitsClauses", func(t *testing.T) {
		hc := NewHitContext(doc, Options{})
		hc.Stage(query.Bool().
			Must(query.Match("body", "lazy")).
			Should(query.Match("title", "news")).
			MustNot(query.Match("body", "quick")))

		got, err := h.Highlight(hc)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, []string{"The quick brown fox jumps over the <em>lazy</em> dog"}, got["body"].Fragments)
		assert.Equal(t, []string{"Fox <em>news</em>"}, got["title"].Fragments)
	})

	t.Run("FieldsOption", func(t *testing.T) {
		hc := NewHitContext(doc, Options{Fields: []string{"title"}})
		hc.Stage(query.Match("body", "fox"))

		got, err := h.Highlight(hc)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("NoQuery", func(t *testing.T) {
		got, err := h.Highlight(NewHitContext(doc, Options{}))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("NonStringField", func(t *testing.T) {
		hc := NewHitContext(doc, Options{})
		hc.Stage(query.Term("n", document.Int(3)))

		got, err := h.Highlight(hc)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CachesTokensPerStagedQuery", func(t *testing.T) {
		hc := NewHitContext(doc, Options{})
		hc.Stage(query.Match("body", "fox"))
		_, err := h.Highlight(hc)
		require.NoError(t, err)
		assert.Contains(t, hc.Cache(), "tokens:body")

		hc.Stage(query.Match("title", "fox"))
		assert.NotContains(t, hc.Cache(), "tokens:body")
	})
}

func TestFragments(t *testing.T) {
	doc := document.Document{
		"body": document.String("alpha beta gamma delta epsilon zeta eta theta"),
	}
	h := NewTermHighlighter()

	hc := NewHitContext(doc, Options{FragmentSize: 20})
	hc.Stage(query.Match("body", "alpha theta"))

	got, err := h.Highlight(hc)
	require.NoError(t, err)
	assert.Equal(t, []string{"<em>alpha</em> beta", "eta <em>theta</em>"}, got["body"].Fragments)

	hc = NewHitContext(doc, Options{FragmentSize: 20, Fragments: 1})
	hc.Stage(query.Match("body", "alpha theta"))

	got, err = h.Highlight(hc)
	require.NoError(t, err)
	assert.Equal(t, []string{"<em>alpha</em> beta"}, got["body"].Fragments)
}
