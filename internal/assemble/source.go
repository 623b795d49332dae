package assemble

import (
	"fmt"
	"strings"

	"github.com/cleave-tools/cleave/internal/boundary"
	"github.com/cleave-tools/cleave/internal/scanner"
)

// SourceUnit is one loaded input file carved into its logical regions:
// everything before the enclosing type opens, the line that opens it, the
// body between the braces, the closing line, and any trailing siblings
// (supporting types after the class). Immutable once parsed; a run never
// edits a SourceUnit in place.
type SourceUnit struct {
	Trace *scanner.Trace

	// TypeName is the enclosing type's identifier as found on the open line.
	TypeName string

	Header   []string // lines before the type opens
	BodyOpen string   // the line that opens the type (depth 0 -> 1)
	Body     []string // lines strictly inside the type's braces
	Trailer  []string // lines after the type closes

	// BodyStart is the whole-file index of the first body line; the body's
	// depth trace is Trace.Depths[BodyStart : BodyStart+len(Body)].
	BodyStart int
}

// BodyDepths returns the end-of-line depths for the body region.
func (u *SourceUnit) BodyDepths() []int {
	return u.Trace.Depths[u.BodyStart : u.BodyStart+len(u.Body)]
}

// ParseSource scans text and locates the enclosing type body to split.
// When typeName is empty the first top-level type body found is used;
// otherwise the open line must name the requested type. The text must be
// balanced: an unbalanced input cannot be carved safely.
func ParseSource(text, typeName string) (*SourceUnit, error) {
	tr, err := scanner.Scan(text)
	if err != nil {
		return nil, err
	}
	if d := tr.FinalDepth(); d != 0 {
		return nil, fmt.Errorf("%w: input has final depth %d, expected 0", ErrBalance, d)
	}

	openLine := -1
	prev := 0
	for i, depth := range tr.Depths {
		if prev == 0 && depth == 1 && opensType(tr.Lines[i], typeName) {
			openLine = i
			break
		}
		prev = depth
	}
	if openLine < 0 {
		if typeName != "" {
			return nil, fmt.Errorf("%w: no top-level type body named %q found", boundary.ErrBoundary, typeName)
		}
		return nil, fmt.Errorf("%w: no top-level type body found", boundary.ErrBoundary)
	}

	closeLine := -1
	for i := openLine + 1; i < tr.LineCount(); i++ {
		if tr.Depths[i] == 0 {
			closeLine = i
			break
		}
	}
	if closeLine < 0 {
		return nil, fmt.Errorf("%w: type body opened at line %d never returns to depth 0", ErrBalance, openLine+1)
	}

	name := typeName
	if name == "" {
		name = extractTypeName(tr.Lines[openLine])
	}

	return &SourceUnit{
		Trace:     tr,
		TypeName:  name,
		Header:    tr.Lines[:openLine],
		BodyOpen:  tr.Lines[openLine],
		Body:      tr.Lines[openLine+1 : closeLine],
		Trailer:   tr.Lines[closeLine+1:],
		BodyStart: openLine + 1,
	}, nil
}

// Declarations runs boundary detection over the unit's body.
func (u *SourceUnit) Declarations() ([]boundary.Declaration, error) {
	return boundary.Detect(u.Body, u.BodyDepths(), 1)
}

// ImportLines returns the header's import statements, replicated into every
// companion unit so they compile standalone.
func (u *SourceUnit) ImportLines() []string {
	var imports []string
	for _, line := range u.Header {
		if strings.HasPrefix(strings.TrimSpace(line), "import ") {
			imports = append(imports, line)
		}
	}
	return imports
}

var typeKeywords = []string{"class", "struct", "enum", "actor", "extension"}

// opensType reports whether a depth-0 line opens a type body, optionally
// requiring a specific name.
func opensType(line, typeName string) bool {
	s := strings.TrimSpace(line)
	if !strings.HasSuffix(s, "{") {
		return false
	}
	fields := strings.Fields(s)
	for i, f := range fields {
		for _, kw := range typeKeywords {
			if f != kw || i+1 >= len(fields) {
				continue
			}
			if typeName == "" {
				return true
			}
			name := strings.TrimRight(fields[i+1], ":{")
			if name == typeName {
				return true
			}
		}
	}
	return false
}

// extractTypeName pulls the identifier following the type keyword.
func extractTypeName(line string) string {
	fields := strings.Fields(strings.TrimSpace(line))
	for i, f := range fields {
		for _, kw := range typeKeywords {
			if f == kw && i+1 < len(fields) {
				return strings.TrimRight(fields[i+1], ":{")
			}
		}
	}
	return ""
}
