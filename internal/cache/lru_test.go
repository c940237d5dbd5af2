// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[int](3)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		got, found := c.Get(key)
		if !found || got != want {
			t.Errorf("Get(%q) = %d/%v, want %d/true", key, got, found, want)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[int](3)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	// Touch a so b becomes least recently used.
	c.Get("a")
	c.Add("d", 4)

	if _, found := c.Get("b"); found {
		t.Error("expected b to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, found := c.Get(key); !found {
			t.Errorf("expected %s to be present", key)
		}
	}
}

func TestLRU_Update(t *testing.T) {
	c := NewLRU[string](2)
	c.Add("a", "x")
	c.Add("a", "y")

	if got, _ := c.Get("a"); got != "y" {
		t.Errorf("Get(a) = %q, want y", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRU[int](2)
	c.Add("a", 1)
	c.Get("a")
	c.Get("missing")

	hits, misses, size := c.Stats()
	if hits != 1 || misses != 1 || size != 1 {
		t.Errorf("Stats() = %d/%d/%d, want 1/1/1", hits, misses, size)
	}
}

func TestLRU_DefaultCapacity(t *testing.T) {
	c := NewLRU[int](0)
	if c.capacity != 1024 {
		t.Errorf("capacity = %d, want 1024", c.capacity)
	}
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := NewLRU[int](100)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k%d", (g*500+i)%250)
				c.Add(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("Len() = %d, exceeds capacity", c.Len())
	}
}
