// Package document provides the typed field model shared by target documents
// and candidate metadata.
//
// # Values
//
// Field values are small tagged unions:
//
//   - String: document.String("red")
//   - Int: document.Int(2024)
//   - Float: document.Float(0.9)
//   - Bool: document.Bool(true)
//   - Array: document.Array([]document.Value{...})
//
// A Document maps field names to values:
//
//	doc := document.Document{
//	    "title": document.String("the quick brown fox"),
//	    "year":  document.Int(2024),
//	}
//
// Legacy map[string]any input can be converted with FromAny / FromMap.
package document
