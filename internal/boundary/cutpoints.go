package boundary

import (
	"fmt"
	"strings"
)

// CutPoint is a body line index where the text may be sliced cleanly: the
// line sits at the enclosing type's top level and carries no code.
type CutPoint struct {
	Line   int // body line index; the slice boundary is after this line
	Target int // the requested target this cut satisfies
}

// FindCutPoints locates, for each target body line, the nearest line within
// ±window lines whose end-of-line depth equals baseDepth and which is blank
// or comment-only. A target with no such line inside the window is a hard
// error: slicing anywhere else would cut through a member.
//
// Targets must be in ascending order; the resulting cuts are strictly
// increasing so the slices they induce are non-empty and non-overlapping.
func FindCutPoints(body []string, depths []int, baseDepth int, targets []int, window int) ([]CutPoint, error) {
	if len(body) != len(depths) {
		return nil, fmt.Errorf("%w: body has %d lines but trace has %d", ErrBoundary, len(body), len(depths))
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: search window must be positive, got %d", ErrBoundary, window)
	}

	cuts := make([]CutPoint, 0, len(targets))
	prev := -1
	for _, target := range targets {
		if target < 0 || target >= len(body) {
			return nil, fmt.Errorf("%w: cut target %d outside body of %d lines", ErrBoundary, target, len(body))
		}
		best := -1
		bestDist := window + 1
		lo := max(0, target-window)
		hi := min(len(body)-1, target+window)
		for i := lo; i <= hi; i++ {
			if i <= prev {
				continue
			}
			if depths[i] != baseDepth {
				continue
			}
			if !isCleanLine(body[i]) {
				continue
			}
			dist := target - i
			if dist < 0 {
				dist = -dist
			}
			if dist < bestDist {
				bestDist = dist
				best = i
			}
		}
		if best < 0 {
			return nil, fmt.Errorf("%w: no clean cut point within %d lines of target %d", ErrBoundary, window, target)
		}
		cuts = append(cuts, CutPoint{Line: best, Target: target})
		prev = best
	}
	return cuts, nil
}

// SliceAtCuts splits body into len(cuts)+1 contiguous chunks. Chunk i ends
// just after cuts[i].Line; the final chunk runs to the end of body.
func SliceAtCuts(body []string, cuts []CutPoint) [][]string {
	chunks := make([][]string, 0, len(cuts)+1)
	prev := 0
	for _, c := range cuts {
		chunks = append(chunks, body[prev:c.Line+1])
		prev = c.Line + 1
	}
	chunks = append(chunks, body[prev:])
	return chunks
}

// isCleanLine reports whether a line is safe to cut after: blank or
// comment-only.
func isCleanLine(line string) bool {
	s := strings.TrimSpace(line)
	return s == "" || strings.HasPrefix(s, "//")
}
