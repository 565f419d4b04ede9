// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model loads run definitions ("grids") from HCL files.
//
// A grid describes what a run computes: its capacity limit, pacing, output
// format and, most importantly, its input pairs. Pairs come either from
// explicit `pair` blocks and `pairs` lists, or from a `generate` block that
// asks for random input. A grid may be split over several files in a
// directory; list-valued content is concatenated in file order while scalar
// settings may be set in one file only.
//
// Expressions are evaluated with a small function library (range, concat,
// min, max, abs), which makes generated-but-deterministic inputs easy:
//
//	pairs = [for i in range(4) : [i, 2 * i]]
package model
