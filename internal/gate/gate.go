// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package gate serializes access to the shared table and lets each stage wait
// on the specific field it depends on.
//
// A Gate is one mutex plus one condition variable per stage. Waiters always
// re-check their predicate in a loop, so a broadcast for an unrelated index,
// or a spurious wake, only costs a re-check.
package gate

import (
	"sync"

	"github.com/specialistvlad/stagegrid/internal/table"
)

// Gate guards every read and write of the shared table.
type Gate struct {
	mu    sync.Mutex
	conds [table.StageCount]*sync.Cond
}

// New returns a ready-to-use Gate.
func New() *Gate {
	g := &Gate{}
	for _, s := range table.Stages {
		g.conds[s] = sync.NewCond(&g.mu)
	}
	return g
}

// Lock enters the critical section.
func (g *Gate) Lock() {
	g.mu.Lock()
}

// Unlock leaves the critical section.
func (g *Gate) Unlock() {
	g.mu.Unlock()
}

// Notify wakes every goroutine waiting on stage s. The caller must hold the
// gate, and must have set the stage's completion flag before calling.
func (g *Gate) Notify(s table.Stage) {
	g.conds[s].Broadcast()
}

// WaitUntil blocks until ready returns true. The caller must hold the gate;
// it is released while blocked and held again when WaitUntil returns.
// ready is evaluated under the gate. It returns how many times the waiter was
// woken before ready held, which is zero when no blocking was needed.
func (g *Gate) WaitUntil(s table.Stage, ready func() bool) int {
	wakes := 0
	for !ready() {
		g.conds[s].Wait()
		wakes++
	}
	return wakes
}

// Publish runs commit inside the critical section and then notifies stage s
// before releasing it. commit must write the stage's value together with its
// completion flag, so a flag is never visible without its notification.
func (g *Gate) Publish(s table.Stage, commit func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	commit()
	g.conds[s].Broadcast()
}
