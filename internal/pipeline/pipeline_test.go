package pipeline

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return ctxlog.Discard(context.Background())
}

// event is one Committed call captured by recorder.
type event struct {
	stage table.Stage
	index int
	seq   int
	at    time.Time
}

// recorder captures every observer call. All calls arrive under the gate, the
// mutex only guards reads made by the test after Run returns.
type recorder struct {
	mu      sync.Mutex
	seq     int
	commits map[table.Stage]map[int]event
	wakes   map[table.Stage]int
}

func newRecorder() *recorder {
	r := &recorder{
		commits: make(map[table.Stage]map[int]event),
		wakes:   make(map[table.Stage]int),
	}
	for _, s := range table.Stages {
		r.commits[s] = make(map[int]event)
	}
	return r
}

func (r *recorder) Committed(stage table.Stage, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.commits[stage][index] = event{stage: stage, index: index, seq: r.seq, at: time.Now()}
}

func (r *recorder) Waited(upstream table.Stage, index int, wakes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wakes[upstream] += wakes
}

func expected(pairs []table.Pair) []table.Record {
	out := make([]table.Record, len(pairs))
	for i, p := range pairs {
		a, b := Product(p.X, p.Y), Affine(p.X, p.Y)
		out[i] = table.Record{X: p.X, Y: p.Y, A: a, B: b, C: Ratio(a, b)}
	}
	return out
}

var recordCmp = cmp.Options{
	cmpopts.IgnoreUnexported(table.Record{}),
	cmpopts.EquateApprox(0, 1e-12),
}

func TestRun_EndToEndExample(t *testing.T) {
	pairs := []table.Pair{{X: 2, Y: 3}, {X: 0, Y: 5}, {X: 4, Y: 4}}

	view, err := Run(testContext(), table.New(DefaultMaxCapacity), pairs, Options{})
	require.NoError(t, err)
	require.Equal(t, 3, view.Len())
	require.True(t, view.Complete())

	var a, b []int
	var c []float64
	for _, r := range view.Records() {
		a = append(a, r.A)
		b = append(b, r.B)
		c = append(c, r.C)
	}
	assert.Equal(t, []int{6, 0, 16}, a)
	assert.Equal(t, []int{11, 11, 17}, b)
	assert.InDelta(t, 11.0/6.0, c[0], 1e-12)
	assert.Equal(t, 0.0, c[1])
	assert.Equal(t, 1.0625, c[2])
}

// TestRun_ValuesIndependentOfInterleaving runs the same inputs under random
// per-record pauses and expects identical results every time.
func TestRun_ValuesIndependentOfInterleaving(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	pairs := make([]table.Pair, 60)
	for i := range pairs {
		pairs[i] = table.Pair{X: rng.IntN(21) - 10, Y: rng.IntN(21) - 10}
	}
	want := expected(pairs)

	for run := range 5 {
		jitter := rand.New(rand.NewPCG(uint64(run), 99))
		var mu sync.Mutex
		pacer := func(table.Stage, int) time.Duration {
			mu.Lock()
			defer mu.Unlock()
			return time.Duration(jitter.IntN(200)) * time.Microsecond
		}

		view, err := Run(testContext(), table.New(len(pairs)), pairs, Options{MaxCapacity: len(pairs), Pacer: pacer})
		require.NoError(t, err)
		if diff := cmp.Diff(want, view.Records(), recordCmp); diff != "" {
			t.Fatalf("run %d: records mismatch (-want +got):\n%s", run, diff)
		}
	}
}

func TestRun_ConsumerCommitsAfterBothProducers(t *testing.T) {
	pairs := make([]table.Pair, 30)
	for i := range pairs {
		pairs[i] = table.Pair{X: i, Y: i + 1}
	}
	rec := newRecorder()
	// Slow B down on odd indices and A on even ones so the producers leapfrog.
	pacer := func(stage table.Stage, index int) time.Duration {
		switch {
		case stage == table.StageA && index%2 == 0:
			return 300 * time.Microsecond
		case stage == table.StageB && index%2 == 1:
			return 300 * time.Microsecond
		}
		return 0
	}

	_, err := Run(testContext(), table.New(DefaultMaxCapacity), pairs, Options{Pacer: pacer, Observer: rec})
	require.NoError(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i := range pairs {
		a, okA := rec.commits[table.StageA][i]
		b, okB := rec.commits[table.StageB][i]
		c, okC := rec.commits[table.StageC][i]
		require.True(t, okA && okB && okC, "index %d missing a commit", i)

		assert.Greater(t, c.seq, a.seq, "index %d: c committed before a", i)
		assert.Greater(t, c.seq, b.seq, "index %d: c committed before b", i)
		assert.False(t, c.at.Before(a.at), "index %d: c timestamp precedes a", i)
		assert.False(t, c.at.Before(b.at), "index %d: c timestamp precedes b", i)
		if i > 0 {
			assert.Greater(t, c.seq, rec.commits[table.StageC][i-1].seq, "stage c went out of order at %d", i)
		}
	}
}

func TestRun_ZeroProductYieldsZeroRatio(t *testing.T) {
	pairs := []table.Pair{{X: 0, Y: 0}, {X: 0, Y: 9}, {X: 7, Y: 0}, {X: -3, Y: 0}, {X: 1, Y: 1}}

	view, err := Run(testContext(), table.New(DefaultMaxCapacity), pairs, Options{})
	require.NoError(t, err)
	for i, r := range view.Records() {
		if r.A == 0 {
			assert.Equal(t, 0.0, r.C, "index %d", i)
			assert.NotZero(t, r.B, "index %d: b must still be computed", i)
		}
	}
	assert.Equal(t, 5.0, view.At(4).C)
}

// TestRun_DelayedProducersDoNotStarveConsumer slows both producers down so the
// consumer has to block on nearly every record, and expects it to finish.
func TestRun_DelayedProducersDoNotStarveConsumer(t *testing.T) {
	pairs := make([]table.Pair, 40)
	for i := range pairs {
		pairs[i] = table.Pair{X: i % 7, Y: i % 5}
	}
	rec := newRecorder()
	pacer := func(stage table.Stage, _ int) time.Duration {
		switch stage {
		case table.StageA:
			return time.Millisecond
		case table.StageB:
			return 2 * time.Millisecond
		}
		return 0
	}

	type result struct {
		view table.View
		err  error
	}
	done := make(chan result, 1)
	go func() {
		v, err := Run(testContext(), table.New(DefaultMaxCapacity), pairs, Options{Pacer: pacer, Observer: rec})
		done <- result{v, err}
	}()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.True(t, res.view.Complete())
		assert.Equal(t, len(pairs), res.view.Len())
	case <-time.After(30 * time.Second):
		t.Fatal("consumer did not finish; a wakeup was lost")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Positive(t, rec.wakes[table.StageB], "consumer never had to wait for the slow producer")
}

func TestRun_CountBoundaries(t *testing.T) {
	const limit = 5
	pairsOf := func(n int) []table.Pair {
		out := make([]table.Pair, n)
		for i := range out {
			out[i] = table.Pair{X: i + 1, Y: 2}
		}
		return out
	}

	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{name: "zero", count: 0, wantErr: true},
		{name: "one", count: 1},
		{name: "max", count: limit},
		{name: "max plus one", count: limit + 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := table.New(limit + 1)
			view, err := Run(testContext(), tbl, pairsOf(tt.count), Options{MaxCapacity: limit})
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCount)
				var cfgErr *ConfigError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, tt.count, cfgErr.Count)
				assert.Equal(t, limit, cfgErr.Max)
				assert.Zero(t, view.Len(), "no partial table may be exposed")
				assert.Zero(t, tbl.Len(), "table must not be loaded on a rejected count")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.count, view.Len())
			assert.True(t, view.Complete())
		})
	}
}

func TestRun_DefaultCapacityLimit(t *testing.T) {
	pairs := make([]table.Pair, DefaultMaxCapacity+1)
	_, err := Run(testContext(), table.New(len(pairs)), pairs, Options{})
	require.ErrorIs(t, err, ErrInvalidCount)
	assert.EqualError(t, err, "number of pairs must be between 1 and 100, got 101")
}

func TestRun_TableTooSmall(t *testing.T) {
	pairs := []table.Pair{{X: 1, Y: 1}, {X: 2, Y: 2}}
	_, err := Run(testContext(), table.New(1), pairs, Options{})
	require.ErrorIs(t, err, ErrCapacity)
}

func TestExecute_EmptyTableFinishesImmediately(t *testing.T) {
	tbl := table.New(4)
	require.NoError(t, tbl.Load(nil))
	rec := newRecorder()

	done := make(chan struct{})
	go func() {
		New(tbl, Options{Observer: rec}).Execute(testContext())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("empty pipeline did not finish")
	}
	assert.Zero(t, rec.seq)
}

func TestFormulas(t *testing.T) {
	assert.Equal(t, 6, Product(2, 3))
	assert.Equal(t, 11, Affine(2, 3))
	assert.Equal(t, 2.5, Ratio(2, 5), "division must not truncate")
	assert.Equal(t, 0.0, Ratio(0, 11))
	assert.Equal(t, -0.5, Ratio(-4, 2))
}

func TestObservers_FanOut(t *testing.T) {
	first, second := newRecorder(), newRecorder()
	obs := Observers{first, second}
	obs.Committed(table.StageA, 3)
	obs.Waited(table.StageB, 3, 2)

	for _, r := range []*recorder{first, second} {
		assert.Contains(t, r.commits[table.StageA], 3)
		assert.Equal(t, 2, r.wakes[table.StageB])
	}
}
