// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package table

import (
	"errors"
	"fmt"
)

// ErrCapacity is returned when more pairs are loaded than the table can hold.
var ErrCapacity = errors.New("table capacity exceeded")

// Stage identifies one of the three derived fields of a Record.
type Stage int

const (
	// StageA owns Record.A.
	StageA Stage = iota
	// StageB owns Record.B.
	StageB
	// StageC owns Record.C and depends on StageA and StageB.
	StageC
)

// StageCount is the number of derived fields per record.
const StageCount = 3

// Stages lists every stage in dependency order.
var Stages = [StageCount]Stage{StageA, StageB, StageC}

func (s Stage) String() string {
	switch s {
	case StageA:
		return "a"
	case StageB:
		return "b"
	case StageC:
		return "c"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Pair is the immutable input of a single record.
type Pair struct {
	X int
	Y int
}

// Record is one row of the shared table.
type Record struct {
	// X and Y are set by Load and never change afterwards.
	X int
	Y int

	A int
	B int
	C float64

	// done holds the completion flag of each derived field, indexed by Stage.
	done [StageCount]bool
}

// Done reports whether the given stage has committed its field.
func (r *Record) Done(s Stage) bool {
	return r.done[s]
}

// SetA writes A and marks it complete. It must only be called by stage A.
func (r *Record) SetA(v int) {
	r.A = v
	r.done[StageA] = true
}

// SetB writes B and marks it complete. It must only be called by stage B.
func (r *Record) SetB(v int) {
	r.B = v
	r.done[StageB] = true
}

// SetC writes C and marks it complete. It must only be called by stage C,
// after both A and B are done.
func (r *Record) SetC(v float64) {
	r.C = v
	r.done[StageC] = true
}

// Table is a fixed-capacity array of records. Its capacity never changes after
// New; Load decides how many of the slots are in use for a run.
type Table struct {
	records []Record
	n       int
}

// New allocates a zeroed table able to hold capacity records.
func New(capacity int) *Table {
	if capacity < 0 {
		panic("table: negative capacity")
	}
	return &Table{records: make([]Record, capacity)}
}

// Capacity returns the number of record slots.
func (t *Table) Capacity() int {
	return len(t.records)
}

// Len returns the number of records loaded for the current run.
func (t *Table) Len() int {
	return t.n
}

// Load resets every slot to its zero value and fills the first len(pairs)
// records with the given inputs. It must be called before any worker starts.
func (t *Table) Load(pairs []Pair) error {
	if len(pairs) > len(t.records) {
		return fmt.Errorf("%w: %d pairs for %d slots", ErrCapacity, len(pairs), len(t.records))
	}
	clear(t.records)
	for i, p := range pairs {
		t.records[i].X = p.X
		t.records[i].Y = p.Y
	}
	t.n = len(pairs)
	return nil
}

// At returns a pointer to record i. The caller must hold the gate while it
// touches the record during the concurrent phase.
func (t *Table) At(i int) *Record {
	if i < 0 || i >= t.n {
		panic(fmt.Sprintf("table: index %d out of range [0, %d)", i, t.n))
	}
	return &t.records[i]
}

// Snapshot copies the loaded records into a read-only View.
func (t *Table) Snapshot() View {
	rows := make([]Record, t.n)
	copy(rows, t.records[:t.n])
	return View{rows: rows}
}
