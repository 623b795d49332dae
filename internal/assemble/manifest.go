package assemble

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Manifest records what a run produced, for operator visibility. It is
// printed after a successful split and written alongside the output units.
type Manifest struct {
	RunID      string          `json:"run_id"`
	TypeName   string          `json:"type_name"`
	Strategy   string          `json:"strategy"`
	Partitions []ManifestEntry `json:"partitions"`
	// PinnedOverrides lists declarations kept in the primary partition even
	// though a name rule also matched them.
	PinnedOverrides []string `json:"pinned_overrides,omitempty"`
}

// ManifestEntry is one partition's census.
type ManifestEntry struct {
	Partition    string `json:"partition"`
	FileName     string `json:"file_name"`
	Declarations int    `json:"declarations"`
	Lines        int    `json:"lines"`
}

// runIDNamespace scopes the content-derived run ids.
var runIDNamespace = uuid.MustParse("9f2d5b1c-7e4a-4c8b-b1d0-3a6f8e2c5d91")

// NewManifest builds the census for a verified unit set. The run id is a
// SHA1-derived uuid over the unit contents and the routing inputs, so a
// rerun over unchanged input and configuration writes a byte-identical
// manifest.
func NewManifest(typeName, strategy string, units []Unit, pinned []string) *Manifest {
	var digest strings.Builder
	digest.WriteString(typeName)
	digest.WriteByte(0)
	digest.WriteString(strategy)
	digest.WriteByte(0)
	for _, name := range pinned {
		digest.WriteString(name)
		digest.WriteByte(0)
	}
	for i := range units {
		digest.WriteString(units[i].FileName)
		digest.WriteByte(0)
		digest.WriteString(units[i].Content)
		digest.WriteByte(0)
	}

	m := &Manifest{
		RunID:           uuid.NewSHA1(runIDNamespace, []byte(digest.String())).String(),
		TypeName:        typeName,
		Strategy:        strategy,
		PinnedOverrides: pinned,
	}
	for i := range units {
		u := &units[i]
		m.Partitions = append(m.Partitions, ManifestEntry{
			Partition:    u.Name,
			FileName:     u.FileName,
			Declarations: u.DeclCount,
			Lines:        u.LineCount(),
		})
	}
	return m
}

// JSON renders the manifest for the output directory.
func (m *Manifest) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// String renders the distribution report printed to the operator.
func (m *Manifest) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Split %s (%s strategy, run %s)\n", m.TypeName, m.Strategy, m.RunID)
	for _, e := range m.Partitions {
		fmt.Fprintf(&b, "  %s: %d declarations, %d lines\n", e.FileName, e.Declarations, e.Lines)
	}
	if len(m.PinnedOverrides) > 0 {
		fmt.Fprintf(&b, "  pinned to primary despite matching rules: %s\n", strings.Join(m.PinnedOverrides, ", "))
	}
	return b.String()
}
