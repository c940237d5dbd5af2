// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package ranking

import (
	"errors"
	"fmt"
	"math"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend/storage"
)

// Model families stored in the ranker artifact's Family field.
const (
	FamilyLogistic   = "logistic"
	FamilyExtraTrees = "extra_trees"
)

var (
	// ErrUnknownFamily is returned for a ranker artifact of an unsupported family.
	ErrUnknownFamily = errors.New("unknown model family")

	// ErrInvalidModel is returned when a ranker state is structurally unusable.
	ErrInvalidModel = errors.New("invalid model state")

	// ErrRowWidth is returned when a feature row does not match the model's
	// declared features.
	ErrRowWidth = errors.New("feature row width mismatch")
)

// Model predicts the positive-class probability of each feature row.
// Rows carry the columns named by Features, in that order.
type Model interface {
	Family() string
	Features() []string
	PredictProba(rows [][]float64) ([]float64, error)
}

// FromState builds a model from its serialized state.
func FromState(state *storage.RankerState) (Model, error) {
	if len(state.Features) == 0 {
		return nil, fmt.Errorf("%w: no features declared", ErrInvalidModel)
	}

	switch state.Family {
	case FamilyLogistic:
		return newLogistic(state)
	case FamilyExtraTrees:
		return newEnsemble(state)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, state.Family)
	}
}

// logistic is a (optionally standardized) logistic regression.
type logistic struct {
	features  []string
	weights   []float64
	intercept float64
	mean      []float64
	scale     []float64
}

func newLogistic(state *storage.RankerState) (*logistic, error) {
	ls := state.Logistic
	if ls == nil {
		return nil, fmt.Errorf("%w: logistic state missing", ErrInvalidModel)
	}
	n := len(state.Features)
	if len(ls.Weights) != n {
		return nil, fmt.Errorf("%w: %d weights for %d features", ErrInvalidModel, len(ls.Weights), n)
	}
	if (ls.Mean != nil && len(ls.Mean) != n) || (ls.Scale != nil && len(ls.Scale) != n) {
		return nil, fmt.Errorf("%w: standardization width mismatch", ErrInvalidModel)
	}
	return &logistic{
		features:  state.Features,
		weights:   ls.Weights,
		intercept: ls.Intercept,
		mean:      ls.Mean,
		scale:     ls.Scale,
	}, nil
}

func (m *logistic) Family() string     { return FamilyLogistic }
func (m *logistic) Features() []string { return m.features }

func (m *logistic) PredictProba(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(m.weights) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRowWidth, i, len(row), len(m.weights))
		}
		z := m.intercept
		for j, x := range row {
			if m.mean != nil {
				x -= m.mean[j]
			}
			if m.scale != nil && m.scale[j] != 0 {
				x /= m.scale[j]
			}
			z += m.weights[j] * x
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// ensemble averages the leaf probabilities of binary decision trees.
type ensemble struct {
	features []string
	trees    []storage.TreeState
}

func newEnsemble(state *storage.RankerState) (*ensemble, error) {
	es := state.Ensemble
	if es == nil || len(es.Trees) == 0 {
		return nil, fmt.Errorf("%w: ensemble has no trees", ErrInvalidModel)
	}
	for t := range es.Trees {
		if err := validateTree(&es.Trees[t], len(state.Features)); err != nil {
			return nil, fmt.Errorf("%w: tree %d: %w", ErrInvalidModel, t, err)
		}
	}
	return &ensemble{features: state.Features, trees: es.Trees}, nil
}

// validateTree checks array widths and child bounds. Children must point
// forward so traversal always terminates.
func validateTree(tree *storage.TreeState, nFeatures int) error {
	n := len(tree.Left)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(tree.Right) != n || len(tree.Feature) != n || len(tree.Threshold) != n || len(tree.Value) != n {
		return errors.New("node array length mismatch")
	}
	for i := 0; i < n; i++ {
		if tree.Left[i] == -1 {
			continue
		}
		l, r := tree.Left[i], tree.Right[i]
		if l <= i || r <= i || l >= n || r >= n {
			return fmt.Errorf("node %d has out-of-range children %d/%d", i, l, r)
		}
		if f := tree.Feature[i]; f < 0 || f >= nFeatures {
			return fmt.Errorf("node %d splits on unknown feature %d", i, f)
		}
	}
	return nil
}

func (m *ensemble) Family() string     { return FamilyExtraTrees }
func (m *ensemble) Features() []string { return m.features }

func (m *ensemble) PredictProba(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(m.features) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRowWidth, i, len(row), len(m.features))
		}
		var sum float64
		for t := range m.trees {
			sum += leafValue(&m.trees[t], row)
		}
		out[i] = sum / float64(len(m.trees))
	}
	return out, nil
}

func leafValue(tree *storage.TreeState, row []float64) float64 {
	node := 0
	for tree.Left[node] != -1 {
		if row[tree.Feature[node]] <= tree.Threshold[node] {
			node = tree.Left[node]
		} else {
			node = tree.Right[node]
		}
	}
	return tree.Value[node]
}
