// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package segment

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/stagegrid/internal/table"
)

var (
	// ErrNotExist is returned when attaching a missing key without Create,
	// or destroying a key that is not there.
	ErrNotExist = errors.New("segment does not exist")
	// ErrExist is returned by Attach with Create|Exclusive on an existing key.
	ErrExist = errors.New("segment already exists")
	// ErrSize is returned when a segment is smaller than the requested capacity.
	ErrSize = errors.New("segment smaller than requested capacity")
)

// namespace seeds KeyFor so that keys are stable across processes.
var namespace = uuid.MustParse("6f1c2d9e-4b7a-5c3e-9a21-7d4e8b0f3c55")

// Key identifies a segment.
type Key uuid.UUID

// KeyFor derives the key for a segment name. The same name always yields the
// same key.
func KeyFor(name string) Key {
	return Key(uuid.NewSHA1(namespace, []byte(name)))
}

func (k Key) String() string {
	return uuid.UUID(k).String()
}

// Flag controls Attach.
type Flag int

const (
	// Create makes the segment if it does not exist.
	Create Flag = 1 << iota
	// Exclusive, combined with Create, fails if the segment already exists.
	Exclusive
)

// entry is the shared state behind every attachment of one segment.
type entry struct {
	key      Key
	table    *table.Table
	attached int
	removed  bool
}

// Stats is a point-in-time view of a registry.
type Stats struct {
	// Segments counts keys that can still be attached.
	Segments int
	// Orphans counts destroyed segments that still have attachments.
	Orphans int
	// Attachments counts live attachments across all segments.
	Attachments int
}

// Registry owns every segment of a process.
type Registry struct {
	mu       sync.Mutex
	segments map[Key]*entry
	orphans  map[*entry]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		segments: make(map[Key]*entry),
		orphans:  make(map[*entry]struct{}),
	}
}

// Attach returns a handle to the segment for key. With Create a missing
// segment is made with room for capacity records; an existing one must be at
// least that large.
func (r *Registry) Attach(key Key, capacity int, flags Flag) (*Segment, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("segment %s: capacity must be positive, got %d", key, capacity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.segments[key]
	switch {
	case !ok && flags&Create == 0:
		return nil, fmt.Errorf("segment %s: %w", key, ErrNotExist)
	case !ok:
		e = &entry{key: key, table: table.New(capacity)}
		r.segments[key] = e
	case flags&Create != 0 && flags&Exclusive != 0:
		return nil, fmt.Errorf("segment %s: %w", key, ErrExist)
	case e.table.Capacity() < capacity:
		return nil, fmt.Errorf("segment %s: %w: has %d, want %d", key, ErrSize, e.table.Capacity(), capacity)
	}

	e.attached++
	return &Segment{reg: r, entry: e}, nil
}

// Destroy unlinks key. Existing attachments keep working until they detach.
func (r *Registry) Destroy(key Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.segments[key]
	if !ok {
		return fmt.Errorf("segment %s: %w", key, ErrNotExist)
	}
	delete(r.segments, key)
	e.removed = true
	if e.attached > 0 {
		r.orphans[e] = struct{}{}
	}
	return nil
}

// Stats reports the registry's current contents.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stats{Segments: len(r.segments), Orphans: len(r.orphans)}
	for _, e := range r.segments {
		st.Attachments += e.attached
	}
	for e := range r.orphans {
		st.Attachments += e.attached
	}
	return st
}

func (r *Registry) detach(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.attached--
	if e.attached == 0 && e.removed {
		delete(r.orphans, e)
	}
}

// Segment is one attachment to a segment.
type Segment struct {
	reg   *Registry
	entry *entry
	once  sync.Once
}

// Key returns the segment's key.
func (s *Segment) Key() Key {
	return s.entry.key
}

// Table returns the shared table. It must not be used after Detach.
func (s *Segment) Table() *table.Table {
	return s.entry.table
}

// Detach releases this attachment.
func (s *Segment) Detach() {
	s.once.Do(func() { s.reg.detach(s.entry) })
}

// With attaches to key, creating it if needed, calls fn with the shared table
// and detaches afterwards no matter how fn returns.
func With(r *Registry, key Key, capacity int, fn func(*table.Table) error) error {
	seg, err := r.Attach(key, capacity, Create)
	if err != nil {
		return err
	}
	defer seg.Detach()
	return fn(seg.Table())
}
