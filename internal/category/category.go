package category

import (
	"errors"
	"fmt"

	"github.com/gobwas/glob"

	"github.com/cleave-tools/cleave/internal/boundary"
)

var (
	// ErrCategory indicates a malformed rule table
	ErrCategory = errors.New("category error")
)

// Rule maps a declaration name pattern to a destination partition id.
// Patterns use glob syntax; the final rule must be a catch-all so every
// declaration has a home.
type Rule struct {
	Pattern   string
	Partition string

	g glob.Glob
}

// Table is an ordered, compiled rule set plus the always-resident policy for
// the primary partition. A Table is immutable after Compile and safe to
// reuse across runs: the same declaration list always produces the same
// assignment.
type Table struct {
	Primary string
	rules   []Rule
	pinned  map[string]bool
}

// Compile validates and compiles a rule table. The last rule must be a
// universal catch-all ("*" or "**"): a table that can leave a declaration
// unassigned is rejected up front rather than failing mid-run.
func Compile(primary string, rules []Rule, alwaysResident []string) (*Table, error) {
	if primary == "" {
		return nil, fmt.Errorf("%w: primary partition id is required", ErrCategory)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: rule table is empty", ErrCategory)
	}
	last := rules[len(rules)-1].Pattern
	if last != "*" && last != "**" {
		return nil, fmt.Errorf("%w: last rule %q is not a catch-all", ErrCategory, last)
	}

	compiled := make([]Rule, len(rules))
	for i, r := range rules {
		if r.Partition == "" {
			return nil, fmt.Errorf("%w: rule %q has no partition id", ErrCategory, r.Pattern)
		}
		g, err := glob.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrCategory, r.Pattern, err)
		}
		compiled[i] = Rule{Pattern: r.Pattern, Partition: r.Partition, g: g}
	}

	pinned := make(map[string]bool, len(alwaysResident))
	for _, name := range alwaysResident {
		pinned[name] = true
	}

	return &Table{Primary: primary, rules: compiled, pinned: pinned}, nil
}

// Partition holds the declarations routed to one output unit, in their
// original source order.
type Partition struct {
	ID    string
	Decls []boundary.Declaration
}

// Assignment is the result of categorizing a declaration list. Partitions
// are ordered primary first, then by first appearance in source order.
type Assignment struct {
	Partitions []Partition
	// Pinned lists declaration names that were forced to the primary
	// partition even though a name rule also matched them. Surfaced so an
	// operator can see the pinning policy override, not guess at it.
	Pinned []string
}

// Lookup returns the partition holding the named declaration, or nil.
func (a *Assignment) Lookup(name string) *Partition {
	for i := range a.Partitions {
		for _, d := range a.Partitions[i].Decls {
			if d.Name == name {
				return &a.Partitions[i]
			}
		}
	}
	return nil
}

// Categorize assigns every declaration to exactly one partition.
//
// Stored state, initializers, lifecycle hooks, and documentation-only spans
// are always resident in the primary partition, as are names in the pinned
// set; this takes precedence over every name rule. Remaining declarations
// match name rules in table order, first match wins. The trailing catch-all
// guarantees totality, so Categorize cannot fail.
func (t *Table) Categorize(decls []boundary.Declaration) *Assignment {
	byID := map[string]*Partition{}
	order := []string{t.Primary}
	byID[t.Primary] = &Partition{ID: t.Primary}

	a := &Assignment{}
	for _, d := range decls {
		id := t.Primary
		if !t.resident(d) {
			id = t.route(d.Name)
		} else if t.pinned[d.Name] && t.nameRuleMatches(d.Name) {
			a.Pinned = append(a.Pinned, d.Name)
		}
		p, ok := byID[id]
		if !ok {
			p = &Partition{ID: id}
			byID[id] = p
			order = append(order, id)
		}
		p.Decls = append(p.Decls, d)
	}

	for _, id := range order {
		a.Partitions = append(a.Partitions, *byID[id])
	}
	return a
}

// resident reports whether a declaration is pinned to the primary partition
// regardless of name rules.
func (t *Table) resident(d boundary.Declaration) bool {
	switch d.Kind {
	case boundary.KindStoredState, boundary.KindInitializer,
		boundary.KindLifecycleHook, boundary.KindDocumentationOnly:
		return true
	}
	return t.pinned[d.Name]
}

// route returns the first matching rule's partition. The compiled table
// always ends in a catch-all, so a match is guaranteed.
func (t *Table) route(name string) string {
	for _, r := range t.rules {
		if r.g.Match(name) {
			return r.Partition
		}
	}
	return t.rules[len(t.rules)-1].Partition
}

// nameRuleMatches reports whether any non-catch-all rule matches name.
func (t *Table) nameRuleMatches(name string) bool {
	for _, r := range t.rules[:len(t.rules)-1] {
		if r.g.Match(name) {
			return true
		}
	}
	return false
}
