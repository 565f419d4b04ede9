// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package pipeline

import "github.com/specialistvlad/stagegrid/internal/table"

// Observer receives stage events. Its methods are called while the gate is
// held, so they must be quick and must not call back into the pipeline.
type Observer interface {
	// Committed is called right after a stage wrote its field for index.
	Committed(stage table.Stage, index int)
	// Waited is called after stage C has waited for an upstream stage on
	// index; wakes is how often it was woken before the flag was set.
	Waited(upstream table.Stage, index int, wakes int)
}

type nopObserver struct{}

func (nopObserver) Committed(table.Stage, int)   {}
func (nopObserver) Waited(table.Stage, int, int) {}

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) Committed(stage table.Stage, index int) {
	for _, ob := range o {
		ob.Committed(stage, index)
	}
}

func (o Observers) Waited(upstream table.Stage, index int, wakes int) {
	for _, ob := range o {
		ob.Waited(upstream, index, wakes)
	}
}
