// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package generator produces random input pairs for a run.
package generator

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/specialistvlad/stagegrid/internal/table"
)

// DefaultModulo bounds generated values to single digits.
const DefaultModulo = 10

// Random returns n pairs with both values in [0, modulo). A zero seed picks one
// from the clock; any other seed makes the output reproducible.
func Random(n, modulo int, seed uint64) ([]table.Pair, error) {
	if n < 0 {
		return nil, fmt.Errorf("pair count must not be negative, got %d", n)
	}
	if modulo < 1 {
		return nil, fmt.Errorf("modulo must be positive, got %d", modulo)
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	pairs := make([]table.Pair, n)
	for i := range pairs {
		pairs[i] = table.Pair{X: rng.IntN(modulo), Y: rng.IntN(modulo)}
	}
	return pairs, nil
}
