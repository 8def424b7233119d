// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rng provides the single explicitly-seeded pseudo-random stream
// shared by the CTW predictor, the search tree, and the agent's own
// sampling. The original implementation drew from a global, implicitly
// seeded stream; this package replaces that with an explicit,
// constructor-injected dependency so that an entire agent trajectory is
// reproducible from one seed, as the concurrency model requires.
package rng

import "math/rand"

// Source is a single random stream. It is not safe for concurrent use:
// every consumer (CTW, search, agent) is driven from the same
// single-threaded cycle loop and shares one Source instance.
type Source struct {
	r *rand.Rand
}

// New returns a Source seeded deterministically from seed. The same seed
// always produces the same sequence of draws.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// Float64 returns a pseudo-random number in [0, 1), corresponding to the
// spec's r01().
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// IntN returns a pseudo-random integer in [0, n), corresponding to the
// spec's rand_range(n). Panics if n <= 0.
func (s *Source) IntN(n int) int {
	return s.r.Intn(n)
}
