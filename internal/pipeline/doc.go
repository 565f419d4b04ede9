// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package pipeline runs the three-stage computation over a shared table.
//
// # How It Works
//
// Two producers and one consumer run as independent goroutines:
//
//   - Stage A writes a = x * y for every record.
//   - Stage B writes b = 2x + 2y + 1 for every record.
//   - Stage C waits, record by record, until both a and b are complete and then
//     writes c = b / a, or 0 when a is 0.
//
// Producers publish each value together with its completion flag and a
// broadcast, all inside one critical section of the gate. The consumer holds
// the gate while it checks flags and releases it only inside the wait itself,
// so a publication can never slip between a check and the wait that follows.
//
// Run is the only entry point callers need. It validates the record count,
// loads the table, starts the stages and returns once all of them have joined.
package pipeline
