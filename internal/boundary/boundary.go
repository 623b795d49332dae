package boundary

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cleave-tools/cleave/internal/scanner"
)

var (
	// ErrBoundary indicates declaration spans do not exactly cover the body
	ErrBoundary = errors.New("boundary error")
)

// Kind classifies a top-level declaration of the enclosing type.
type Kind int

const (
	KindFunction Kind = iota
	KindStoredState
	KindInitializer
	KindLifecycleHook
	KindNestedType
	KindDocumentationOnly
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindStoredState:
		return "stored-state"
	case KindInitializer:
		return "initializer"
	case KindLifecycleHook:
		return "lifecycle-hook"
	case KindNestedType:
		return "nested-type"
	case KindDocumentationOnly:
		return "documentation-only"
	}
	return "unknown"
}

// Visibility is the access qualifier parsed from a declaration's first
// code line.
type Visibility int

const (
	// VisibilityDefault is the language default (internal): reachable from
	// sibling files in the same target.
	VisibilityDefault Visibility = iota
	// VisibilityRestricted is a plain private qualifier.
	VisibilityRestricted
	// VisibilityRestrictedWithException is a compound qualifier such as
	// private(set): the restriction applies to writes only and must survive
	// a move across file boundaries.
	VisibilityRestrictedWithException
)

// Declaration is one top-level member of the enclosing type: a contiguous
// half-open line span [Start, End) into the body, including any leading
// documentation or section-marker lines folded in front of the first code
// line.
type Declaration struct {
	Start      int
	End        int
	Kind       Kind
	Name       string
	Visibility Visibility
	// DocLines counts the leading comment/blank lines folded into the span
	// before the declaration-introducing line.
	DocLines int
}

// Lines returns the declaration's slice of body lines.
func (d Declaration) Lines(body []string) []string {
	return body[d.Start:d.End]
}

// FirstCodeLine returns the declaration-introducing line (the first line
// after the folded documentation prefix).
func (d Declaration) FirstCodeLine(body []string) string {
	return body[d.Start+d.DocLines]
}

var (
	funcRe   = regexp.MustCompile(`\bfunc\s+(` + "`" + `?[A-Za-z_][A-Za-z0-9_]*` + "`" + `?)`)
	storedRe = regexp.MustCompile(`\b(?:var|let)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	typeRe   = regexp.MustCompile(`\b(?:enum|struct|class|actor|protocol|typealias)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	initRe   = regexp.MustCompile(`\binit\s*[(<]`)
)

// declKeywords are the tokens that may introduce a top-level member once
// leading modifiers and attributes are stripped.
var declKeywords = map[string]bool{
	"func": true, "var": true, "let": true,
	"enum": true, "struct": true, "class": true, "actor": true,
	"protocol": true, "typealias": true,
	"init": true, "deinit": true, "subscript": true,
	"case": false, // enum cases never appear at depth 1 of a class body
}

// declModifiers may prefix a declaration keyword and are skipped when
// classifying a line.
var declModifiers = map[string]bool{
	"private": true, "fileprivate": true, "internal": true, "public": true,
	"open": true, "static": true, "final": true, "lazy": true,
	"weak": true, "unowned": true, "nonisolated": true, "override": true,
	"convenience": true, "required": true, "mutating": true,
	"dynamic": true, "indirect": true,
}

// Detect segments body (the lines strictly between the enclosing type's
// opening and closing braces) into declaration spans. depths holds the
// end-of-line depth for each body line, measured relative to the whole file,
// so a body line sits at the type's top level when the depth at its start
// equals baseDepth.
//
// The returned spans are an exact partition of body: span[0].Start == 0,
// each span ends where the next begins, and the last span ends at len(body).
// Any gap or overlap is a hard error.
func Detect(body []string, depths []int, baseDepth int) ([]Declaration, error) {
	if len(body) != len(depths) {
		return nil, fmt.Errorf("%w: body has %d lines but trace has %d", ErrBoundary, len(body), len(depths))
	}
	if len(body) == 0 {
		return nil, nil
	}

	// Collect the start line of every declaration. The depth at the start of
	// line i is the depth at the end of line i-1 (baseDepth for line 0).
	var starts []int
	for i := range body {
		startDepth := baseDepth
		if i > 0 {
			startDepth = depths[i-1]
		}
		if startDepth != baseDepth {
			continue
		}
		if !introducesDeclaration(body[i]) {
			continue
		}
		// Fold contiguous leading documentation and marker comments into
		// this declaration rather than leaving them dangling at the tail of
		// the previous one.
		start := i
		for start > 0 && isDocLine(body[start-1]) {
			prevDepth := baseDepth
			if start-1 > 0 {
				prevDepth = depths[start-2]
			}
			if prevDepth != baseDepth {
				break
			}
			start--
		}
		if len(starts) > 0 && start <= starts[len(starts)-1] {
			// The doc prefix would swallow the previous declaration's start
			// line; keep the boundary at the introducing line instead.
			start = i
		}
		starts = append(starts, start)
	}

	// Everything before the first declaration belongs to the first span.
	if len(starts) == 0 {
		starts = []int{0}
	}
	starts[0] = 0

	decls := make([]Declaration, 0, len(starts))
	for n, start := range starts {
		end := len(body)
		if n+1 < len(starts) {
			end = starts[n+1]
		}
		decls = append(decls, classify(body, start, end))
	}

	if err := checkPartition(decls, len(body)); err != nil {
		return nil, err
	}
	return decls, nil
}

// checkPartition verifies the spans exactly cover [0, bodyLen) in order.
func checkPartition(decls []Declaration, bodyLen int) error {
	if len(decls) == 0 {
		if bodyLen == 0 {
			return nil
		}
		return fmt.Errorf("%w: %d body lines uncovered", ErrBoundary, bodyLen)
	}
	if decls[0].Start != 0 {
		return fmt.Errorf("%w: first span starts at line %d, not 0", ErrBoundary, decls[0].Start)
	}
	for i := 1; i < len(decls); i++ {
		if decls[i].Start != decls[i-1].End {
			return fmt.Errorf("%w: gap or overlap between spans at line %d", ErrBoundary, decls[i].Start)
		}
	}
	if last := decls[len(decls)-1].End; last != bodyLen {
		return fmt.Errorf("%w: last span ends at line %d, body has %d lines", ErrBoundary, last, bodyLen)
	}
	return nil
}

// classify builds the Declaration for span [start, end), locating the first
// code line past the doc prefix and extracting kind, name and visibility.
func classify(body []string, start, end int) Declaration {
	d := Declaration{Start: start, End: end}

	code := -1
	for i := start; i < end; i++ {
		s := strings.TrimSpace(body[i])
		if s == "" || strings.HasPrefix(s, "//") {
			continue
		}
		code = i
		break
	}
	if code < 0 {
		d.Kind = KindDocumentationOnly
		d.DocLines = end - start
		return d
	}
	d.DocLines = code - start

	line := strings.TrimSpace(body[code])
	// A property wrapper or attribute may sit alone on the line above its
	// declaration; classify from the line that carries the keyword.
	for strings.HasPrefix(line, "@") && stripAttributes(line) == "" && code+1 < end {
		code++
		line = strings.TrimSpace(body[code])
	}
	d.Visibility = parseVisibility(line)
	d.Kind, d.Name = parseKindAndName(line)
	return d
}

func parseVisibility(line string) Visibility {
	stripped := stripAttributes(line)
	for _, tok := range strings.Fields(stripped) {
		switch {
		case strings.HasPrefix(tok, "private("):
			return VisibilityRestrictedWithException
		case tok == "private":
			return VisibilityRestricted
		case declModifiers[tok]:
			continue
		}
		break
	}
	return VisibilityDefault
}

func parseKindAndName(line string) (Kind, string) {
	stripped := stripAttributes(line)

	if initRe.MatchString(stripped) && leadingKeyword(stripped) == "init" {
		return KindInitializer, "init"
	}
	switch leadingKeyword(stripped) {
	case "deinit":
		return KindLifecycleHook, "deinit"
	case "func":
		if m := funcRe.FindStringSubmatch(stripped); m != nil {
			return KindFunction, strings.Trim(m[1], "`")
		}
		return KindFunction, ""
	case "var", "let":
		if m := storedRe.FindStringSubmatch(stripped); m != nil {
			return KindStoredState, m[1]
		}
		return KindStoredState, ""
	case "enum", "struct", "class", "actor", "protocol", "typealias":
		if m := typeRe.FindStringSubmatch(stripped); m != nil {
			return KindNestedType, m[1]
		}
		return KindNestedType, ""
	case "subscript":
		return KindFunction, "subscript"
	}

	// Fallback: best-effort name from the first identifier-ish token.
	if f := strings.Fields(stripped); len(f) > 0 {
		return KindFunction, f[0]
	}
	return KindDocumentationOnly, ""
}

// leadingKeyword returns the first declaration keyword after skipping
// modifiers, or "" when the line does not introduce a declaration.
func leadingKeyword(line string) string {
	for _, tok := range strings.Fields(line) {
		if declModifiers[tok] || strings.HasPrefix(tok, "private(") {
			continue
		}
		base := tok
		if i := strings.IndexAny(base, "(<:{"); i > 0 {
			base = base[:i]
		}
		if allowed, known := declKeywords[base]; known && allowed {
			return base
		}
		return ""
	}
	return ""
}

// introducesDeclaration reports whether a raw body line opens a new
// top-level member. A bare attribute line (a property wrapper sitting alone
// above its declaration) does not introduce; it folds forward like a doc
// comment instead.
func introducesDeclaration(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" || strings.HasPrefix(s, "//") || strings.HasPrefix(s, "/*") {
		return false
	}
	return leadingKeyword(stripAttributes(s)) != ""
}

// stripAttributes removes leading @attribute tokens, including a
// parenthesized argument list, so modifier scanning sees the keyword.
func stripAttributes(line string) string {
	s := strings.TrimSpace(line)
	for strings.HasPrefix(s, "@") {
		end := len(s)
		depth := 0
		for i := 0; i < len(s); i++ {
			c := s[i]
			if c == '(' {
				depth++
			} else if c == ')' {
				depth--
			} else if c == ' ' && depth == 0 {
				end = i
				break
			}
		}
		if end == len(s) {
			return ""
		}
		s = strings.TrimSpace(s[end:])
	}
	return s
}

// isDocLine reports whether a line may be folded forward into the next
// declaration's span: documentation comments, section markers, plain
// comments, and bare attribute lines directly above a declaration.
func isDocLine(line string) bool {
	s := strings.TrimSpace(line)
	if strings.HasPrefix(s, "//") {
		return true
	}
	return strings.HasPrefix(s, "@") && stripAttributes(s) == ""
}

// BodyTrace slices a whole-file trace down to the body region
// [bodyStart, bodyEnd) and returns the matching lines and depths.
func BodyTrace(tr *scanner.Trace, bodyStart, bodyEnd int) ([]string, []int) {
	return tr.Lines[bodyStart:bodyEnd], tr.Depths[bodyStart:bodyEnd]
}
