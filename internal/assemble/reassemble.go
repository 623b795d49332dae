package assemble

import (
	"fmt"
	"strings"

	"github.com/cleave-tools/cleave/internal/boundary"
	"github.com/cleave-tools/cleave/internal/scanner"
)

// Reassemble reconstructs the single logical file from a set of units: the
// primary unit's header and type declaration, its resident members, every
// companion's extension body in unit order, then the closing brace and the
// primary trailer. The result is the inverse of Assemble up to member
// ordering and the whitespace the tool itself inserts.
func Reassemble(units []Unit, typeName string) (string, error) {
	var primary *Unit
	var companions []*Unit
	for i := range units {
		if units[i].Primary {
			if primary != nil {
				return "", fmt.Errorf("%w: more than one primary unit", ErrBalance)
			}
			primary = &units[i]
		} else {
			companions = append(companions, &units[i])
		}
	}
	if primary == nil {
		return "", fmt.Errorf("%w: no primary unit", ErrBalance)
	}

	core, err := ParseSource(primary.Content, typeName)
	if err != nil {
		return "", fmt.Errorf("primary unit %s: %w", primary.FileName, err)
	}

	var lines []string
	lines = append(lines, core.Header...)
	lines = append(lines, core.BodyOpen)
	lines = append(lines, core.Body...)
	for _, c := range companions {
		body, err := ExtensionBody(c.Content, typeName)
		if err != nil {
			return "", fmt.Errorf("companion unit %s: %w", c.FileName, err)
		}
		lines = append(lines, body...)
	}
	lines = append(lines, "}")
	if len(core.Trailer) > 0 {
		lines = append(lines, "")
		lines = append(lines, core.Trailer...)
	}
	return scanner.Join(lines), nil
}

// ExtensionBody extracts the lines strictly inside `extension <typeName> {`
// and its matching close. The extension must open at the top level and be
// balanced.
func ExtensionBody(content, typeName string) ([]string, error) {
	tr, err := scanner.Scan(content)
	if err != nil {
		return nil, err
	}

	want := fmt.Sprintf("extension %s {", typeName)
	open := -1
	prev := 0
	for i, line := range tr.Lines {
		if prev == 0 && tr.Depths[i] == 1 && strings.TrimSpace(line) == want {
			open = i
			break
		}
		prev = tr.Depths[i]
	}
	if open < 0 {
		return nil, fmt.Errorf("%w: no %q block found", boundary.ErrBoundary, want)
	}

	for i := open + 1; i < tr.LineCount(); i++ {
		if tr.Depths[i] == 0 {
			return tr.Lines[open+1 : i], nil
		}
	}
	return nil, fmt.Errorf("%w: extension block opened at line %d never closes", ErrBalance, open+1)
}

// ReassembleFiles is the file-content flavor used by the reassemble
// command: the first content is the primary file, the rest are companions.
func ReassembleFiles(primary string, companions []string, typeName string) (string, error) {
	units := make([]Unit, 0, len(companions)+1)
	units = append(units, Unit{Content: primary, Primary: true, FileName: typeName + ".swift"})
	for i, c := range companions {
		units = append(units, Unit{Content: c, FileName: fmt.Sprintf("companion-%d", i+1)})
	}
	return Reassemble(units, typeName)
}
