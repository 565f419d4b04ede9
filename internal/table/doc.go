// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package table holds the shared record table that the pipeline workers fill in.
//
// # Ownership
//
// Every derived field of a Record has exactly one owning stage. Stage A writes
// A, stage B writes B and stage C writes C. Each field has a completion flag
// that flips false->true once, right next to the write, and only the owning
// stage ever flips it. Other stages may read a field only after they have
// observed its flag set.
//
// The table itself does no locking. All mutation and every read during the
// concurrent phase must happen under the gate (see package gate). Once the
// workers have joined, Snapshot hands out an immutable copy for reporting.
package table
