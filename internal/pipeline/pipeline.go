// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/gate"
	"github.com/specialistvlad/stagegrid/internal/table"
)

// DefaultMaxCapacity is the record limit used when Options.MaxCapacity is 0.
const DefaultMaxCapacity = 100

// Pacer returns how long a stage pauses after finishing index. The pause is
// always taken outside the gate.
type Pacer func(stage table.Stage, index int) time.Duration

// FixedDelay returns a Pacer that pauses every stage for d after every record.
func FixedDelay(d time.Duration) Pacer {
	return func(table.Stage, int) time.Duration { return d }
}

// Options tune a pipeline run.
type Options struct {
	// MaxCapacity bounds the number of records a run accepts.
	MaxCapacity int
	// Pacer injects pauses between records to make interleaving observable.
	// Nil means no pauses.
	Pacer Pacer
	// Observer receives stage events. Nil means none.
	Observer Observer
}

func (o Options) maxCapacity() int {
	if o.MaxCapacity <= 0 {
		return DefaultMaxCapacity
	}
	return o.MaxCapacity
}

// Pipeline binds a loaded table to the gate that guards it. It is the only
// state the three stages share.
type Pipeline struct {
	table    *table.Table
	gate     *gate.Gate
	pacer    Pacer
	observer Observer
}

// New prepares a pipeline over tbl. The table must already be loaded.
func New(tbl *table.Table, opts Options) *Pipeline {
	p := &Pipeline{
		table:    tbl,
		gate:     gate.New(),
		pacer:    opts.Pacer,
		observer: opts.Observer,
	}
	if p.observer == nil {
		p.observer = nopObserver{}
	}
	return p
}

// Run validates the pairs, loads them into tbl, runs all three stages and
// returns a copy of the completed table. No stage is running when it returns.
// An invalid count is reported as a *ConfigError before anything is touched.
func Run(ctx context.Context, tbl *table.Table, pairs []table.Pair, opts Options) (table.View, error) {
	logger := ctxlog.FromContext(ctx)

	limit := opts.maxCapacity()
	n := len(pairs)
	if n < 1 || n > limit {
		return table.View{}, &ConfigError{Count: n, Max: limit}
	}
	if tbl.Capacity() < n {
		return table.View{}, fmt.Errorf("%w: capacity %d, need %d", ErrCapacity, tbl.Capacity(), n)
	}
	if err := tbl.Load(pairs); err != nil {
		return table.View{}, fmt.Errorf("failed to load table: %w", err)
	}

	logger.Info("Pipeline started.", "records", n, "capacity", tbl.Capacity())
	start := time.Now()
	New(tbl, opts).Execute(ctx)
	logger.Info("Pipeline finished.", "records", n, "elapsed", time.Since(start))

	return tbl.Snapshot(), nil
}

// Execute runs the three stages over every loaded record and blocks until all
// of them have finished. An empty table finishes immediately.
func (p *Pipeline) Execute(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(len(producers) + 1)
	for _, prod := range producers {
		go func() {
			defer wg.Done()
			p.produce(ctx, prod)
		}()
	}
	go func() {
		defer wg.Done()
		p.consume(ctx)
	}()
	wg.Wait()
}

// pause sleeps for the paced duration. Callers must not hold the gate.
func (p *Pipeline) pause(stage table.Stage, index int) {
	if p.pacer == nil {
		return
	}
	if d := p.pacer(stage, index); d > 0 {
		time.Sleep(d)
	}
}
