package assemble

import (
	"fmt"

	"github.com/cleave-tools/cleave/internal/rewrite"
)

// Slice is one contiguous chunk of the body produced by the depth-target
// strategy, already cut at clean top-level lines.
type Slice struct {
	ID    string
	Lines []string
	// DeclCount is the member census for the manifest; the slice strategy
	// does not route per declaration, but the count is still reported.
	DeclCount int
}

// AssembleSlices renders one unit per slice; slices[0] is the primary one.
// Companion slices were never categorized per member, so every line is run
// through the member-scope qualifier relaxation on the way out, mirroring
// how whole sections move between files under this strategy. The same
// balance guarantees as Assemble apply.
func AssembleSlices(src *SourceUnit, slices []Slice) ([]Unit, error) {
	if len(slices) == 0 {
		return nil, fmt.Errorf("%w: no slices to assemble", ErrBalance)
	}

	units := make([]Unit, 0, len(slices))
	for i, s := range slices {
		if i == 0 {
			units = append(units, framePrimary(src, s.ID, s.Lines, s.DeclCount))
			continue
		}
		relaxed := make([]string, len(s.Lines))
		for j, line := range s.Lines {
			relaxed[j] = rewrite.RelaxLine(line)
		}
		units = append(units, frameCompanion(src, s.ID, relaxed, s.DeclCount))
	}

	if err := VerifyBalance(units); err != nil {
		return nil, err
	}
	return units, nil
}
