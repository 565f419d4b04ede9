// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package table

// View is an immutable copy of a completed table.
type View struct {
	rows []Record
}

// NewView builds a View over a copy of the given records.
func NewView(records []Record) View {
	rows := make([]Record, len(records))
	copy(rows, records)
	return View{rows: rows}
}

// Len returns the number of records in the view.
func (v View) Len() int {
	return len(v.rows)
}

// At returns a copy of record i.
func (v View) At(i int) Record {
	return v.rows[i]
}

// Records returns a copy of every record in the view.
func (v View) Records() []Record {
	out := make([]Record, len(v.rows))
	copy(out, v.rows)
	return out
}

// Complete reports whether every stage has committed for every record.
func (v View) Complete() bool {
	for i := range v.rows {
		for _, s := range Stages {
			if !v.rows[i].done[s] {
				return false
			}
		}
	}
	return true
}
