// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package pipeline

// Product is the stage A formula.
func Product(x, y int) int {
	return x * y
}

// Affine is the stage B formula.
func Affine(x, y int) int {
	return 2*x + 2*y + 1
}

// Ratio is the stage C formula. A zero a yields 0 instead of a division by
// zero; otherwise the result is the untruncated quotient b / a.
func Ratio(a, b int) float64 {
	if a == 0 {
		return 0
	}
	return float64(b) / float64(a)
}
