// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package report renders a completed table for humans or machines.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/specialistvlad/stagegrid/internal/table"
	"gonum.org/v1/gonum/stat"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatJSON, FormatYAML}

// ParseFormat validates a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q: must be one of %v", s, Formats)
}

// Row is one record as it appears in machine-readable output.
type Row struct {
	X int     `json:"x" yaml:"x"`
	Y int     `json:"y" yaml:"y"`
	A int     `json:"a" yaml:"a"`
	B int     `json:"b" yaml:"b"`
	C float64 `json:"c" yaml:"c"`
}

// Summary aggregates a whole table.
type Summary struct {
	Count   int     `json:"count" yaml:"count"`
	ZeroA   int     `json:"zero_a" yaml:"zero_a"`
	SumA    int     `json:"sum_a" yaml:"sum_a"`
	SumB    int     `json:"sum_b" yaml:"sum_b"`
	MeanC   float64 `json:"mean_c" yaml:"mean_c"`
	StdDevC float64 `json:"stddev_c" yaml:"stddev_c"`
}

// Document is the full machine-readable report.
type Document struct {
	Records []Row   `json:"records" yaml:"records"`
	Summary Summary `json:"summary" yaml:"summary"`
}

// Build converts a view into a Document.
func Build(view table.View) Document {
	doc := Document{Records: make([]Row, 0, view.Len())}
	cs := make([]float64, 0, view.Len())
	for _, r := range view.Records() {
		doc.Records = append(doc.Records, Row{X: r.X, Y: r.Y, A: r.A, B: r.B, C: r.C})
		doc.Summary.SumA += r.A
		doc.Summary.SumB += r.B
		if r.A == 0 {
			doc.Summary.ZeroA++
		}
		cs = append(cs, r.C)
	}
	doc.Summary.Count = len(cs)
	if len(cs) > 0 {
		doc.Summary.MeanC = stat.Mean(cs, nil)
	}
	// The sample deviation is undefined for a single value.
	if len(cs) > 1 {
		doc.Summary.StdDevC = stat.StdDev(cs, nil)
	}
	return doc
}

// Write renders view to w in the given format.
func Write(w io.Writer, view table.View, format Format) error {
	doc := Build(view)
	switch format {
	case FormatTable:
		return writeTable(w, doc)
	case FormatJSON:
		out, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode json report: %w", err)
		}
		return writeLine(w, out)
	case FormatYAML:
		out, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode yaml report: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeTable(w io.Writer, doc Document) error {
	var b strings.Builder
	b.WriteString("Pairs(X,Y) | A | B | C\n")
	b.WriteString("-------------------------------\n")
	for _, r := range doc.Records {
		fmt.Fprintf(&b, "(%d,%d) | %d | %d | %.2f\n", r.X, r.Y, r.A, r.B, r.C)
	}
	s := doc.Summary
	fmt.Fprintf(&b, "-------------------------------\n")
	fmt.Fprintf(&b, "records: %d | a=0: %d | mean(C): %.4f | stddev(C): %.4f\n", s.Count, s.ZeroA, s.MeanC, s.StdDevC)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeLine(w io.Writer, p []byte) error {
	if _, err := w.Write(p); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
