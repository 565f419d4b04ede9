// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package segment hands out keyed, attachable tables, mirroring the
// create/attach/detach/remove lifecycle of a System V shared memory segment
// inside a single process.
//
// # Lifecycle
//
//   - Attach with Create makes the segment on first use and returns the
//     existing one afterwards, so every attachment of a key shares one table.
//   - Detach drops a single attachment. Calling it twice on the same handle
//     is harmless.
//   - Destroy unlinks the key at once; the table itself lives on until its
//     last attachment detaches, after which it is gone.
//
// With wraps attach and detach around a function so the attachment is
// released on every path, including errors and panics.
package segment
