// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package pipeline

import (
	"context"

	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/table"
)

// producer is an independent stage that derives its field from the record's
// inputs alone.
type producer struct {
	stage  table.Stage
	commit func(r *table.Record)
}

var producers = [...]producer{
	{stage: table.StageA, commit: func(r *table.Record) { r.SetA(Product(r.X, r.Y)) }},
	{stage: table.StageB, commit: func(r *table.Record) { r.SetB(Affine(r.X, r.Y)) }},
}

// produce fills the producer's field for every record in index order.
func (p *Pipeline) produce(ctx context.Context, prod producer) {
	logger := ctxlog.FromContext(ctx).With("stage", prod.stage.String())
	n := p.table.Len()
	logger.Debug("Producer started.", "records", n)

	for i := range n {
		p.gate.Publish(prod.stage, func() {
			prod.commit(p.table.At(i))
			p.observer.Committed(prod.stage, i)
		})
		p.pause(prod.stage, i)
	}

	logger.Debug("Producer finished.")
}

// consume computes stage C record by record. For each index it keeps the gate
// held from the first flag check to the final notify; the only place it lets
// go is inside WaitUntil.
func (p *Pipeline) consume(ctx context.Context) {
	logger := ctxlog.FromContext(ctx).With("stage", table.StageC.String())
	n := p.table.Len()
	logger.Debug("Consumer started.", "records", n)

	for i := range n {
		p.gate.Lock()
		rec := p.table.At(i)

		wakes := p.gate.WaitUntil(table.StageA, func() bool { return rec.Done(table.StageA) })
		p.observer.Waited(table.StageA, i, wakes)
		wakes = p.gate.WaitUntil(table.StageB, func() bool { return rec.Done(table.StageB) })
		p.observer.Waited(table.StageB, i, wakes)

		rec.SetC(Ratio(rec.A, rec.B))
		p.observer.Committed(table.StageC, i)
		p.gate.Notify(table.StageC)
		p.gate.Unlock()

		p.pause(table.StageC, i)
	}

	logger.Debug("Consumer finished.")
}
