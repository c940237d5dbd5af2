// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package catalog loads the movie catalog and resolves free-text titles to
// catalog items.
//
// The catalog artifact is produced by the offline feature pipeline. It holds
// one entry per movie (title and ranking attributes) and one vector per
// movie, index-aligned. It is immutable once loaded.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/storage"
)

// ErrMisaligned is returned when the catalog and its vectors disagree in
// length or the vectors disagree in dimension.
var ErrMisaligned = errors.New("catalog and vectors are misaligned")

// Catalog is the loaded movie catalog with its vector space.
type Catalog struct {
	items   []recommend.CatalogItem
	vectors [][]float32

	// titles maps normalized titles to item IDs; last write wins.
	titles map[string]int

	// keys holds the distinct normalized titles in first-seen order.
	keys []string
}

// jsonCatalog is the JSON form of the catalog artifact.
type jsonCatalog struct {
	Items []struct {
		Title      string             `json:"title"`
		Attributes map[string]float64 `json:"attributes"`
	} `json:"items"`
	Vectors [][]float32 `json:"vectors"`
}

// Load reads a catalog artifact. Files ending in .json are read as JSON;
// anything else as a gob artifact (see package storage).
func Load(path string) (*Catalog, error) {
	var state storage.CatalogState

	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		var jc jsonCatalog
		if err := json.Unmarshal(data, &jc); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		for _, it := range jc.Items {
			state.Titles = append(state.Titles, it.Title)
			state.Attributes = append(state.Attributes, it.Attributes)
		}
		state.Vectors = jc.Vectors
	} else {
		meta, err := storage.ReadArtifact(path, &state)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		if meta.Kind != "" && meta.Kind != storage.KindCatalog {
			return nil, fmt.Errorf("read catalog: %s holds a %q artifact", path, meta.Kind)
		}
	}

	return New(state)
}

// New builds a catalog from its serialized state. Vectors are normalized to
// unit length so that cosine similarity is a dot product.
//
//nolint:gocritic // hugeParam: state is consumed once at load
func New(state storage.CatalogState) (*Catalog, error) {
	n := len(state.Titles)
	if len(state.Vectors) != n {
		return nil, fmt.Errorf("%w: %d titles, %d vectors", ErrMisaligned, n, len(state.Vectors))
	}
	if state.Attributes != nil && len(state.Attributes) != n {
		return nil, fmt.Errorf("%w: %d titles, %d attribute rows", ErrMisaligned, n, len(state.Attributes))
	}

	dim := -1
	c := &Catalog{
		items:   make([]recommend.CatalogItem, n),
		vectors: make([][]float32, n),
		titles:  make(map[string]int, n),
	}
	for i, title := range state.Titles {
		v := state.Vectors[i]
		if dim == -1 {
			dim = len(v)
		} else if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrMisaligned, i, len(v), dim)
		}

		item := recommend.CatalogItem{ID: i, Title: title}
		if state.Attributes != nil {
			item.Attributes = state.Attributes[i]
		}
		c.items[i] = item
		c.vectors[i] = unit(v)

		key := Normalize(title)
		if _, seen := c.titles[key]; !seen {
			c.keys = append(c.keys, key)
		}
		c.titles[key] = i
	}
	return c, nil
}

// Item returns the item with the given ID.
func (c *Catalog) Item(id int) (recommend.CatalogItem, bool) {
	if id < 0 || id >= len(c.items) {
		return recommend.CatalogItem{}, false
	}
	return c.items[id], true
}

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// Vectors returns the unit-normalized vector space, index-aligned with the
// items. Callers must not modify it.
func (c *Catalog) Vectors() [][]float32 { return c.vectors }

// Lookup returns the ID for an already normalized title.
func (c *Catalog) Lookup(normalized string) (int, bool) {
	id, ok := c.titles[normalized]
	return id, ok
}

// Keys returns the distinct normalized titles. Callers must not modify it.
func (c *Catalog) Keys() []string { return c.keys }

func unit(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	scale := float32(1 / math.Sqrt(sum))
	for i, x := range v {
		out[i] = x * scale
	}
	return out
}
