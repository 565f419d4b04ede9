// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/fsutil"
	"github.com/specialistvlad/stagegrid/internal/table"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ErrConflict is returned when grid content cannot be merged.
var ErrConflict = errors.New("conflicting grid settings")

// Grid is the merged content of every grid file of a run. Unset scalar
// settings are nil so callers can layer them over other configuration.
type Grid struct {
	MaxCapacity *int
	Delay       *time.Duration
	Format      *string
	Segment     *string

	// Generate asks for random pairs. It is never set together with Pairs.
	Generate *Generate
	// Pairs are the explicit inputs, in file order.
	Pairs []table.Pair

	// Files lists the files the grid was loaded from.
	Files []string
}

// Generate describes random input.
type Generate struct {
	Count  int
	Modulo *int
	Seed   *uint64
}

// HasInput reports whether the grid defines any input.
func (g *Grid) HasInput() bool {
	return g.Generate != nil || len(g.Pairs) > 0
}

// hclGridFile is the decoding target for a single grid file.
type hclGridFile struct {
	MaxCapacity *int           `hcl:"max_capacity,optional"`
	Delay       *string        `hcl:"delay,optional"`
	Format      *string        `hcl:"format,optional"`
	Segment     *string        `hcl:"segment,optional"`
	Generate    *hclGenerate   `hcl:"generate,block"`
	PairBlocks  []*hclPair     `hcl:"pair,block"`
	Pairs       hcl.Expression `hcl:"pairs,optional"`
}

type hclGenerate struct {
	Count  int    `hcl:"count"`
	Modulo *int   `hcl:"modulo,optional"`
	Seed   *int64 `hcl:"seed,optional"`
}

type hclPair struct {
	X int `hcl:"x"`
	Y int `hcl:"y"`
}

// evalContext exposes the functions grid expressions may call.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"abs":    stdlib.AbsoluteFunc,
			"concat": stdlib.ConcatFunc,
			"max":    stdlib.MaxFunc,
			"min":    stdlib.MinFunc,
			"range":  stdlib.RangeFunc,
		},
	}
}

// LoadGrid finds every .hcl file under path (or path itself) and merges them
// into one Grid.
func LoadGrid(ctx context.Context, path string) (*Grid, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading grid from path.", "path", path)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find grid files in %s: %w", path, err)
	}

	grid := &Grid{}
	if len(files) == 0 {
		logger.Warn("No .hcl grid files found in path, returning empty grid.", "path", path)
		return grid, nil
	}

	parser := hclparse.NewParser()
	for _, file := range files {
		parsed, err := decodeGridFile(file, parser)
		if err != nil {
			return nil, err
		}
		if err := grid.merge(file, parsed); err != nil {
			return nil, err
		}
		logger.Debug("Grid file merged.", "file", file)
	}

	if grid.Generate != nil && len(grid.Pairs) > 0 {
		return nil, fmt.Errorf("%w: a grid uses either a generate block or explicit pairs, not both", ErrConflict)
	}
	logger.Debug("Grid loaded.", "files", len(files), "pairs", len(grid.Pairs), "generate", grid.Generate != nil)
	return grid, nil
}

// ParseGrid decodes a single in-memory grid file. filename is only used in
// diagnostics.
func ParseGrid(filename string, src []byte) (*Grid, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	parsed, err := decodeBody(filename, f.Body)
	if err != nil {
		return nil, err
	}
	grid := &Grid{}
	if err := grid.merge(filename, parsed); err != nil {
		return nil, err
	}
	if grid.Generate != nil && len(grid.Pairs) > 0 {
		return nil, fmt.Errorf("%w: a grid uses either a generate block or explicit pairs, not both", ErrConflict)
	}
	return grid, nil
}

// fileContent is one decoded file before merging.
type fileContent struct {
	raw   hclGridFile
	delay *time.Duration
	pairs []table.Pair
}

func decodeGridFile(filePath string, parser *hclparse.Parser) (*fileContent, error) {
	f, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}
	return decodeBody(filePath, f.Body)
}

func decodeBody(filePath string, body hcl.Body) (*fileContent, error) {
	var content fileContent
	diags := gohcl.DecodeBody(body, evalContext(), &content.raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}

	if content.raw.Delay != nil {
		d, err := time.ParseDuration(*content.raw.Delay)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid delay: %w", filePath, err)
		}
		content.delay = &d
	}

	for _, p := range content.raw.PairBlocks {
		content.pairs = append(content.pairs, table.Pair{X: p.X, Y: p.Y})
	}
	listed, err := decodePairs(content.raw.Pairs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	content.pairs = append(content.pairs, listed...)

	return &content, nil
}

// decodePairs evaluates a `pairs` expression into pairs. A missing attribute
// evaluates to null and yields no pairs.
func decodePairs(expr hcl.Expression) ([]table.Pair, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(evalContext())
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid pairs expression: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, errors.New("pairs must be known at load time")
	}

	listVal, err := convert.Convert(val, cty.List(cty.List(cty.Number)))
	if err != nil {
		return nil, fmt.Errorf("pairs must be a list of [x, y] number lists: %w", err)
	}
	var raw [][]int
	if err := gocty.FromCtyValue(listVal, &raw); err != nil {
		return nil, fmt.Errorf("pairs must hold whole numbers: %w", err)
	}

	pairs := make([]table.Pair, 0, len(raw))
	for i, p := range raw {
		if len(p) != 2 {
			return nil, fmt.Errorf("pairs[%d] must have exactly 2 elements, got %d", i, len(p))
		}
		pairs = append(pairs, table.Pair{X: p[0], Y: p[1]})
	}
	return pairs, nil
}

// merge folds one file into the grid.
func (g *Grid) merge(file string, c *fileContent) error {
	raw := c.raw
	if err := setOnce(&g.MaxCapacity, raw.MaxCapacity, "max_capacity", file); err != nil {
		return err
	}
	if err := setOnce(&g.Delay, c.delay, "delay", file); err != nil {
		return err
	}
	if err := setOnce(&g.Format, raw.Format, "format", file); err != nil {
		return err
	}
	if err := setOnce(&g.Segment, raw.Segment, "segment", file); err != nil {
		return err
	}

	if raw.Generate != nil {
		if g.Generate != nil {
			return fmt.Errorf("%w: generate block defined more than once (again in %s)", ErrConflict, file)
		}
		gen := &Generate{Count: raw.Generate.Count, Modulo: raw.Generate.Modulo}
		if raw.Generate.Seed != nil {
			if *raw.Generate.Seed < 0 {
				return fmt.Errorf("%s: generate.seed must not be negative", file)
			}
			seed := uint64(*raw.Generate.Seed)
			gen.Seed = &seed
		}
		g.Generate = gen
	}

	g.Pairs = append(g.Pairs, c.pairs...)
	g.Files = append(g.Files, file)
	return nil
}

func setOnce[T any](dst **T, v *T, name, file string) error {
	if v == nil {
		return nil
	}
	if *dst != nil {
		return fmt.Errorf("%w: %s set more than once (again in %s)", ErrConflict, name, file)
	}
	*dst = v
	return nil
}
