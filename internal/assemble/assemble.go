package assemble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cleave-tools/cleave/internal/boundary"
	"github.com/cleave-tools/cleave/internal/category"
	"github.com/cleave-tools/cleave/internal/rewrite"
	"github.com/cleave-tools/cleave/internal/scanner"
)

var (
	// ErrBalance indicates an emitted unit (or the whole) is not brace-balanced
	ErrBalance = errors.New("balance error")
)

// Unit is one fully rendered output file, held in memory until every unit
// of the run has passed verification. Nothing is written before then.
type Unit struct {
	// Name is the partition id this unit was built from.
	Name string
	// FileName is the output file name (TypeName.swift for the primary
	// unit, TypeName+Name.swift for companions).
	FileName string
	// Content is the complete file text.
	Content string
	// Primary marks the unit that carries the original header, the reopened
	// type declaration, and the trailer.
	Primary bool
	// DeclCount is the number of declarations the unit carries.
	DeclCount int
}

// LineCount returns the number of lines in the rendered unit.
func (u *Unit) LineCount() int {
	return len(scanner.SplitLines(u.Content))
}

// Assemble renders one output unit per partition from the parsed source.
// The first partition in the assignment is the primary one. Every unit is
// verified balanced, and so is the logical concatenation of all units; any
// imbalance aborts before a single byte reaches disk.
func Assemble(src *SourceUnit, a *category.Assignment) ([]Unit, error) {
	if len(a.Partitions) == 0 {
		return nil, fmt.Errorf("%w: no partitions to assemble", ErrBalance)
	}

	units := make([]Unit, 0, len(a.Partitions))
	for i, p := range a.Partitions {
		var u Unit
		if i == 0 {
			u = renderPrimary(src, p)
		} else {
			u = renderCompanion(src, p)
		}
		units = append(units, u)
	}

	if err := VerifyBalance(units); err != nil {
		return nil, err
	}
	return units, nil
}

// renderPrimary emits the unit that keeps the original file's shape:
// header, the reopened type declaration, the resident declarations, the
// closing brace, and the trailing sibling types.
func renderPrimary(src *SourceUnit, p category.Partition) Unit {
	var body []string
	for _, d := range p.Decls {
		body = append(body, d.Lines(src.Body)...)
	}
	return framePrimary(src, p.ID, body, len(p.Decls))
}

// renderCompanion wraps a partition's declarations in an extension of the
// original type, replicating the header imports so the file stands alone.
// Restricted members moving out of the primary file are relaxed to default
// visibility on the way through.
func renderCompanion(src *SourceUnit, p category.Partition) Unit {
	var body []string
	for _, d := range p.Decls {
		body = append(body, rewrite.Relax(d, d.Lines(src.Body))...)
	}
	return frameCompanion(src, p.ID, body, len(p.Decls))
}

// framePrimary wraps body lines in the original file's outer shape.
func framePrimary(src *SourceUnit, id string, body []string, declCount int) Unit {
	var lines []string
	lines = append(lines, src.Header...)
	lines = append(lines, src.BodyOpen)
	lines = append(lines, body...)
	lines = append(lines, "}")
	if len(src.Trailer) > 0 {
		lines = append(lines, "")
		lines = append(lines, src.Trailer...)
	}
	return Unit{
		Name:      id,
		FileName:  src.TypeName + ".swift",
		Content:   scanner.Join(lines),
		Primary:   true,
		DeclCount: declCount,
	}
}

// frameCompanion wraps body lines in an extension of the original type,
// with a file comment and the replicated header imports.
func frameCompanion(src *SourceUnit, id string, body []string, declCount int) Unit {
	fileName := fmt.Sprintf("%s+%s.swift", src.TypeName, id)

	var lines []string
	lines = append(lines, fmt.Sprintf("// %s", fileName))
	lines = append(lines, fmt.Sprintf("// %s declarations split out of %s.swift.", id, src.TypeName))
	lines = append(lines, "")
	if imports := src.ImportLines(); len(imports) > 0 {
		lines = append(lines, imports...)
		lines = append(lines, "")
	}
	lines = append(lines, fmt.Sprintf("extension %s {", src.TypeName))
	lines = append(lines, body...)
	lines = append(lines, "}")

	return Unit{
		Name:      id,
		FileName:  fileName,
		Content:   scanner.Join(lines),
		DeclCount: declCount,
	}
}

// VerifyBalance rescans every unit end-to-end and requires final depth zero,
// then does the same for the concatenation of all units. A unit that fails
// to scan at all (unterminated comment or string) is equally fatal.
func VerifyBalance(units []Unit) error {
	var all strings.Builder
	for i := range units {
		u := &units[i]
		tr, err := scanner.Scan(u.Content)
		if err != nil {
			return fmt.Errorf("unit %s: %w", u.FileName, err)
		}
		if d := tr.FinalDepth(); d != 0 {
			return fmt.Errorf("%w: unit %s has final depth %d", ErrBalance, u.FileName, d)
		}
		all.WriteString(u.Content)
	}
	tr, err := scanner.Scan(all.String())
	if err != nil {
		return err
	}
	if d := tr.FinalDepth(); d != 0 {
		return fmt.Errorf("%w: concatenated units have final depth %d", ErrBalance, d)
	}
	return nil
}

// VerifyRoundTrip reassembles the units into a single logical file and
// re-runs the scanner and boundary detector over it. The reconstruction
// must parse to the same declaration count and body coverage as the
// original single-unit parse; anything else means a span was corrupted on
// the way through.
func VerifyRoundTrip(src *SourceUnit, units []Unit, originalDecls []boundary.Declaration) error {
	text, err := Reassemble(units, src.TypeName)
	if err != nil {
		return err
	}
	unit, err := ParseSource(text, src.TypeName)
	if err != nil {
		return fmt.Errorf("round-trip parse: %w", err)
	}
	decls, err := unit.Declarations()
	if err != nil {
		return fmt.Errorf("round-trip detect: %w", err)
	}
	if len(decls) != len(originalDecls) {
		return fmt.Errorf("%w: round trip found %d declarations, original had %d",
			ErrBalance, len(decls), len(originalDecls))
	}
	orig := coverage(originalDecls)
	got := coverage(decls)
	if got != orig {
		return fmt.Errorf("%w: round trip covers %d body lines, original covered %d",
			ErrBalance, got, orig)
	}
	return nil
}

func coverage(decls []boundary.Declaration) int {
	total := 0
	for _, d := range decls {
		total += d.End - d.Start
	}
	return total
}
