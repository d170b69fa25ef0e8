package search

import (
	"context"
	"strings"
)

const (
	EntityFolder = "folder"
	EntityFile   = "file"
)

// Hit is one indexed entity matched by a name lookup.
type Hit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Index is the name-token index port: a per-name set of entity ids keyed by
// lowercased name. Like the cache it is a derived projection, rebuildable
// from the relational store at any time.
type Index interface {
	Add(ctx context.Context, entityType string, id string, name string) error
	Remove(ctx context.Context, entityType string, id string, name string) error
	// Lookup returns the ids indexed under the exact normalized name.
	Lookup(ctx context.Context, entityType string, name string) ([]string, error)
	// Search returns every entity whose indexed name contains the query.
	Search(ctx context.Context, query string) ([]Hit, error)
	// Clear drops the whole index ahead of a rebuild.
	Clear(ctx context.Context) error
}

// NormalizeName lowercases and trims a name before it is used as an index
// token. Both the indexer and the query path must apply it.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func indexKey(entityType string, name string) string {
	return "search:" + entityType + "s:" + NormalizeName(name)
}
