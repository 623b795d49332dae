package scanner

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLex indicates the input could not be tokenized to completion
	ErrLex = errors.New("lex error")
)

// Trace is the per-line brace depth profile of a source text.
// Depths[i] is the nesting depth measured at the end of Lines[i],
// counting only braces that occur outside comments and string literals.
type Trace struct {
	Lines  []string
	Depths []int
}

// FinalDepth returns the depth at end of input (0 for balanced text).
func (t *Trace) FinalDepth() int {
	if len(t.Depths) == 0 {
		return 0
	}
	return t.Depths[len(t.Depths)-1]
}

// LineCount returns the number of scanned lines.
func (t *Trace) LineCount() int {
	return len(t.Lines)
}

// lexState carries tokenizer state across lines.
type lexState int

const (
	stateCode lexState = iota
	stateBlockComment
	stateMultilineString
)

// Scan computes the depth trace for text. It is a pure function: the same
// text always yields the same trace.
//
// The tokenizer understands:
//   - line comments (// to end of line)
//   - block comments (/* ... */, state carried across lines)
//   - quoted strings with backslash escapes
//   - triple-quoted multi-line strings (content ignored until the closing
//     delimiter, even across many lines)
//
// A block comment or multi-line string left open at end of input is a fatal
// lex error: the caller must not emit output derived from a partial trace.
func Scan(text string) (*Trace, error) {
	lines := SplitLines(text)
	depths := make([]int, len(lines))

	depth := 0
	state := stateCode
	openLine := 0 // line where the current block comment / multiline string opened

	for n, line := range lines {
		i := 0
		for i < len(line) {
			switch state {
			case stateBlockComment:
				if strings.HasPrefix(line[i:], "*/") {
					state = stateCode
					i += 2
					continue
				}
				i++

			case stateMultilineString:
				if strings.HasPrefix(line[i:], `"""`) {
					state = stateCode
					i += 3
					continue
				}
				if line[i] == '\\' {
					i += 2
					continue
				}
				i++

			default: // stateCode
				if strings.HasPrefix(line[i:], "/*") {
					state = stateBlockComment
					openLine = n
					i += 2
					continue
				}
				if strings.HasPrefix(line[i:], "//") {
					i = len(line) // rest of line is comment
					continue
				}
				if strings.HasPrefix(line[i:], `"""`) {
					state = stateMultilineString
					openLine = n
					i += 3
					continue
				}
				switch line[i] {
				case '"':
					j, ok := scanString(line, i+1)
					if !ok {
						// Unterminated single-line string: treat the rest of
						// the line as string content. Swift does not allow a
						// plain string to span lines, so the quote closes at
						// end of line rather than poisoning the next line.
						i = len(line)
						continue
					}
					i = j
				case '{':
					depth++
					i++
				case '}':
					depth--
					i++
				default:
					i++
				}
			}
		}
		depths[n] = depth
	}

	switch state {
	case stateBlockComment:
		return nil, fmt.Errorf("%w: block comment opened at line %d is never closed", ErrLex, openLine+1)
	case stateMultilineString:
		return nil, fmt.Errorf("%w: multi-line string opened at line %d is never closed", ErrLex, openLine+1)
	}

	return &Trace{Lines: lines, Depths: depths}, nil
}

// scanString consumes a regular quoted string starting just after the opening
// quote. Returns the index after the closing quote and whether it was found
// on this line. A backslash escapes the next character, so an escaped quote
// does not terminate the string.
func scanString(line string, start int) (int, bool) {
	i := start
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1, true
		default:
			i++
		}
	}
	return i, false
}

// SplitLines splits text into lines without the trailing newline characters.
// A trailing newline does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// Join reassembles lines into a single text, terminated by a newline.
func Join(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
