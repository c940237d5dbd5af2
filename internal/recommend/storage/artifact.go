// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package storage

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/renameio"
)

// Artifact kinds.
const (
	KindRanker  = "ranker"
	KindCatalog = "catalog"
)

// ArtifactExt is the file extension of every gob artifact.
const ArtifactExt = ".gob.gz"

// ErrChecksumMismatch is returned when an artifact's payload does not match
// its recorded checksum.
var ErrChecksumMismatch = errors.New("artifact checksum mismatch")

// ArtifactMetadata describes a stored artifact.
type ArtifactMetadata struct {
	// Kind is KindRanker or KindCatalog.
	Kind string `json:"kind"`

	// Name is a human-readable identifier, usually the file base name.
	Name string `json:"name"`

	// Family is the model family of a ranker artifact ("logistic", "extra_trees").
	Family string `json:"family,omitempty"`

	// Features lists the feature columns a ranker consumes, in order.
	Features []string `json:"features,omitempty"`

	// ItemCount is the number of catalog items in a catalog artifact.
	ItemCount int `json:"item_count,omitempty"`

	TrainedAt time.Time `json:"trained_at"`
	SavedAt   time.Time `json:"saved_at"`

	// Checksum is the SHA-256 checksum of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`
}

// storedFile is the on-disk format of an artifact.
type storedFile struct {
	Metadata       ArtifactMetadata
	CompressedData []byte
}

// EncodeArtifact serializes data with gob, checksums and compresses it, and
// writes the framed artifact to w. It returns the completed metadata.
//
//nolint:gocritic // meta passed by value; the completed copy is returned
func EncodeArtifact(w io.Writer, data interface{}, meta ArtifactMetadata) (ArtifactMetadata, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(data); err != nil {
		return meta, fmt.Errorf("encode payload: %w", err)
	}

	sum := sha256.Sum256(raw.Bytes())
	meta.Checksum = hex.EncodeToString(sum[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return meta, fmt.Errorf("compress payload: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return meta, fmt.Errorf("finalize compression: %w", err)
	}

	meta.SizeBytes = int64(compressed.Len())
	if meta.SavedAt.IsZero() {
		meta.SavedAt = time.Now().UTC()
	}

	sf := storedFile{Metadata: meta, CompressedData: compressed.Bytes()}
	if err := gob.NewEncoder(w).Encode(sf); err != nil {
		return meta, fmt.Errorf("write artifact: %w", err)
	}
	return meta, nil
}

// DecodeArtifact reads a framed artifact from r into target after verifying
// its checksum.
func DecodeArtifact(r io.Reader, target interface{}) (*ArtifactMetadata, error) {
	var sf storedFile
	if err := gob.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // close after full read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed payload: %w", err)
	}

	sum := sha256.Sum256(raw)
	if got := hex.EncodeToString(sum[:]); got != sf.Metadata.Checksum {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, sf.Metadata.Checksum, got)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &sf.Metadata, nil
}

// WriteArtifact atomically writes an artifact file at path.
//
//nolint:gocritic // meta passed by value; the completed copy is returned
func WriteArtifact(path string, data interface{}, meta ArtifactMetadata) (ArtifactMetadata, error) {
	var buf bytes.Buffer
	meta, err := EncodeArtifact(&buf, data, meta)
	if err != nil {
		return meta, err
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o640); err != nil {
		return meta, fmt.Errorf("write %s: %w", path, err)
	}
	return meta, nil
}

// ReadArtifact loads and verifies the artifact at path into target.
func ReadArtifact(path string, target interface{}) (*ArtifactMetadata, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configured model directories
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // close after read is not actionable

	meta, err := DecodeArtifact(f, target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return meta, nil
}

// ReadArtifactMetadata returns the metadata of the artifact at path without
// decoding its payload.
func ReadArtifactMetadata(path string) (*ArtifactMetadata, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configured model directories
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return &sf.Metadata, nil
}

// RankerState is the serializable state of a scoring model.
type RankerState struct {
	Family   string
	Features []string

	// Logistic is set for the "logistic" family.
	Logistic *LogisticState

	// Ensemble is set for the "extra_trees" family.
	Ensemble *EnsembleState
}

// LogisticState holds a logistic regression. Mean and Scale, when present,
// standardize each feature before the dot product.
type LogisticState struct {
	Weights   []float64
	Intercept float64
	Mean      []float64
	Scale     []float64
}

// EnsembleState holds an averaged ensemble of binary decision trees.
type EnsembleState struct {
	Trees []TreeState
}

// TreeState is one decision tree in array form. Node 0 is the root. A node
// whose Left is -1 is a leaf carrying Value, the positive-class probability.
type TreeState struct {
	Feature   []int
	Threshold []float64
	Left      []int
	Right     []int
	Value     []float64
}

// CatalogState is the serializable state of the movie catalog and its
// vector space. Vectors[i] belongs to Titles[i].
type CatalogState struct {
	Titles     []string
	Attributes []map[string]float64
	Vectors    [][]float32
}

//nolint:gochecknoinits // gob.Register must be called in init for type registration
func init() {
	gob.Register(RankerState{})
	gob.Register(CatalogState{})
	gob.Register(ArtifactMetadata{})
	gob.Register(storedFile{})
}
