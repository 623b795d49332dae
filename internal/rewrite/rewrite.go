package rewrite

import (
	"regexp"

	"github.com/cleave-tools/cleave/internal/boundary"
)

// The rewriter relaxes access qualifiers on declarations that move out of
// their original file. A plain restricted qualifier would make the member
// unreachable from sibling files, so it drops to the language default.
// A restricted-with-exception qualifier (private(set)) is an intentional
// write-protection and is preserved unchanged.

// memberPrivateRe matches a member-scope private qualifier opening a
// declaration line: indented, the bare token "private" (not private(set),
// not fileprivate), followed by another modifier or declaration keyword.
var memberPrivateRe = regexp.MustCompile(`^(\s+)((?:@[A-Za-z_][A-Za-z0-9_]*(?:\([^)]*\))?\s+)*)private\s+(func|var|let|enum|struct|class|actor|typealias|init|deinit|subscript|lazy|static|final|weak|unowned|nonisolated|override|convenience|required|mutating|dynamic|indirect)\b`)

// filePrivateRe is the file-scope form: no indent, private or fileprivate
// opening a top-level declaration.
var filePrivateRe = regexp.MustCompile(`^((?:@[A-Za-z_][A-Za-z0-9_]*(?:\([^)]*\))?\s+)*)(?:private|fileprivate)\s+(func|var|let|enum|struct|class|actor|protocol|typealias|extension|final)\b`)

// RelaxLine removes a member-scope private qualifier from the start of a
// declaration-introducing line. Occurrences of the word inside comments,
// strings, or in a compound qualifier are left untouched. Relaxing a line
// that carries no plain private qualifier is a no-op, so the rewrite is
// idempotent.
func RelaxLine(line string) string {
	loc := memberPrivateRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return line
	}
	// Groups: 1 indent, 2 attributes, 3 following keyword. Drop exactly the
	// "private " run between group 2's end and group 3's start.
	return line[:loc[5]] + line[loc[6]:]
}

// RelaxFileScope removes a private or fileprivate qualifier from a
// file-scope declaration line, with the same private(set) exception.
// The split pipeline keeps trailer types with the primary file and never
// calls this itself; it is surface for callers that distribute file-scope
// declarations across files.
func RelaxFileScope(line string) string {
	if containsSetterException(line) {
		return line
	}
	loc := filePrivateRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return line
	}
	return line[:loc[3]] + line[loc[4]:]
}

var setterExceptionRe = regexp.MustCompile(`^\s*(?:@[A-Za-z_][A-Za-z0-9_]*(?:\([^)]*\))?\s+)*private\(`)

func containsSetterException(line string) bool {
	return setterExceptionRe.MatchString(line)
}

// Relax rewrites the qualifier of a declaration that is leaving the primary
// file. Only the declaration-introducing line changes; the doc prefix and
// the member's body are untouched. Returns the (possibly shared) line slice.
func Relax(d boundary.Declaration, lines []string) []string {
	if d.Visibility != boundary.VisibilityRestricted {
		return lines
	}
	idx := d.DocLines
	if idx >= len(lines) {
		return lines
	}
	relaxed := RelaxLine(lines[idx])
	if relaxed == lines[idx] {
		return lines
	}
	out := make([]string, len(lines))
	copy(out, lines)
	out[idx] = relaxed
	return out
}
