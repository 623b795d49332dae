package assemble

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleave-tools/cleave/internal/category"
	"github.com/cleave-tools/cleave/internal/scanner"
)

// Test Plan for Assembler & Round-trip Verifier:
// - ParseSource carves header / body open / body / trailer correctly
// - ParseSource rejects unbalanced input and missing type bodies
// - ImportLines collects header imports
// - Assemble: always-resident member stays in primary, name-ruled member
//   lands in its companion, both units balanced, concatenation balanced
// - Companion units relax private members on the way through
// - VerifyBalance rejects a corrupted unit and the corrupted whole
// - VerifyRoundTrip holds for a straightforward split
// - Reassemble rebuilds a single balanced file; re-splitting it finds the
//   same declaration count
// - ExtensionBody extracts exactly the block interior and rejects a
//   missing or unterminated block
// - WriteUnits is all-or-nothing: an unbalanced unit writes no files
// - Manifest reports per-partition declaration and line counts

const classFixture = `import Foundation
import Combine

final class ChatService: ObservableObject {
  @Published private(set) var conversations: [Conversation] = []
  private let apiClient = APIClient()

  init() {
    configure()
  }

  /// Fetches anything new since the last sync.
  func fetchNewMessages() {
    apiClient.fetch()
  }

  private func configure() {
    // setup
  }
}

private struct SyncCursor {
  let offset: Int
}
`

func parseFixture(t *testing.T) *SourceUnit {
	t.Helper()
	src, err := ParseSource(classFixture, "ChatService")
	require.NoError(t, err)
	return src
}

func splitFixture(t *testing.T) (*SourceUnit, *category.Assignment, []Unit) {
	t.Helper()
	src := parseFixture(t)
	decls, err := src.Declarations()
	require.NoError(t, err)

	tbl, err := category.Compile("Core", []category.Rule{
		{Pattern: "fetch*", Partition: "Fetching"},
		{Pattern: "*", Partition: "Helpers"},
	}, nil)
	require.NoError(t, err)

	a := tbl.Categorize(decls)
	units, err := Assemble(src, a)
	require.NoError(t, err)
	return src, a, units
}

func TestParseSource_Regions(t *testing.T) {
	src := parseFixture(t)

	assert.Equal(t, "ChatService", src.TypeName)
	assert.Len(t, src.Header, 3)
	assert.Equal(t, "final class ChatService: ObservableObject {", src.BodyOpen)
	assert.Equal(t, []string{"import Foundation", "import Combine"}, src.ImportLines())

	// Trailer keeps the sibling struct.
	require.NotEmpty(t, src.Trailer)
	assert.Contains(t, strings.Join(src.Trailer, "\n"), "struct SyncCursor")

	// Body depths all sit at >= 1.
	for _, d := range src.BodyDepths() {
		assert.GreaterOrEqual(t, d, 1)
	}
}

func TestParseSource_NamedTypeNotFound(t *testing.T) {
	_, err := ParseSource(classFixture, "Missing")
	require.Error(t, err)
}

func TestParseSource_UnbalancedInput(t *testing.T) {
	_, err := ParseSource("class T {\n  func f() {\n}\n", "T")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBalance)
}

func TestParseSource_FirstTypeWhenUnnamed(t *testing.T) {
	src, err := ParseSource("class First {\n}\nclass Second {\n}\n", "")
	require.NoError(t, err)
	assert.Equal(t, "First", src.TypeName)
}

func TestAssemble_SplitsAndBalances(t *testing.T) {
	_, _, units := splitFixture(t)

	require.Len(t, units, 3)
	core, fetching, helpers := units[0], units[1], units[2]

	assert.True(t, core.Primary)
	assert.Equal(t, "ChatService.swift", core.FileName)
	assert.Contains(t, core.Content, "private(set) var conversations")
	assert.Contains(t, core.Content, "init() {")
	assert.Contains(t, core.Content, "struct SyncCursor")
	assert.NotContains(t, core.Content, "fetchNewMessages")

	assert.Equal(t, "ChatService+Fetching.swift", fetching.FileName)
	assert.Contains(t, fetching.Content, "extension ChatService {")
	assert.Contains(t, fetching.Content, "func fetchNewMessages()")
	assert.Contains(t, fetching.Content, "import Combine")
	// The doc comment travelled with its declaration.
	assert.Contains(t, fetching.Content, "/// Fetches anything new")

	// configure was private and moved out, so it relaxed.
	assert.Contains(t, helpers.Content, "  func configure() {")
	assert.NotContains(t, helpers.Content, "private func configure")

	for _, u := range units {
		tr, err := scanner.Scan(u.Content)
		require.NoError(t, err)
		assert.Equal(t, 0, tr.FinalDepth(), "unit %s", u.FileName)
	}
}

func TestAssemble_MinimalScenario(t *testing.T) {
	src, err := ParseSource("class T {\n  var a = 1\n  func f() { return a }\n}\n", "T")
	require.NoError(t, err)
	decls, err := src.Declarations()
	require.NoError(t, err)
	require.Len(t, decls, 2)

	tbl, err := category.Compile("Core", []category.Rule{
		{Pattern: "f", Partition: "extA"},
		{Pattern: "*", Partition: "extA"},
	}, []string{"a"})
	require.NoError(t, err)

	units, err := Assemble(src, tbl.Categorize(decls))
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Contains(t, units[0].Content, "var a = 1")
	assert.NotContains(t, units[0].Content, "func f")
	assert.Contains(t, units[1].Content, "func f() { return a }")

	// Each unit balanced, and the concatenation's depth trace is sound.
	require.NoError(t, VerifyBalance(units))
}

func TestVerifyBalance_RejectsCorruptedUnit(t *testing.T) {
	units := []Unit{{FileName: "bad.swift", Content: "extension T {\n  func f() {\n}\n"}}
	err := VerifyBalance(units)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBalance)
}

func TestVerifyBalance_RejectsUnscannableUnit(t *testing.T) {
	units := []Unit{{FileName: "bad.swift", Content: "/* never closed\n"}}
	err := VerifyBalance(units)
	require.Error(t, err)
	assert.ErrorIs(t, err, scanner.ErrLex)
}

func TestVerifyRoundTrip(t *testing.T) {
	src, _, units := splitFixture(t)
	decls, err := src.Declarations()
	require.NoError(t, err)

	require.NoError(t, VerifyRoundTrip(src, units, decls))
}

func TestReassemble_RebuildsBalancedWhole(t *testing.T) {
	src, _, units := splitFixture(t)

	text, err := Reassemble(units, src.TypeName)
	require.NoError(t, err)

	rebuilt, err := ParseSource(text, "ChatService")
	require.NoError(t, err)

	origDecls, err := src.Declarations()
	require.NoError(t, err)
	rebuiltDecls, err := rebuilt.Declarations()
	require.NoError(t, err)
	assert.Equal(t, len(origDecls), len(rebuiltDecls))

	// Same total member lines either way.
	assert.Equal(t, len(src.Body), len(rebuilt.Body))
}

func TestExtensionBody_Extracts(t *testing.T) {
	content := "// header\n\nextension T {\n  func f() {\n  }\n}\n"
	body, err := ExtensionBody(content, "T")
	require.NoError(t, err)
	assert.Equal(t, []string{"  func f() {", "  }"}, body)
}

func TestExtensionBody_MissingBlock(t *testing.T) {
	_, err := ExtensionBody("func loose() {\n}\n", "T")
	require.Error(t, err)
}

func TestWriteUnits_AllOrNothing(t *testing.T) {
	dir := t.TempDir()

	bad := []Unit{
		{FileName: "ok.swift", Content: "extension T {\n}\n"},
		{FileName: "bad.swift", Content: "extension T {\n"},
	}
	err := WriteUnits(dir, bad, nil)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed run must not leave files behind")
}

func TestWriteUnits_WritesUnitsAndManifest(t *testing.T) {
	dir := t.TempDir()
	_, a, units := splitFixture(t)

	m := NewManifest("ChatService", "declaration-based", units, a.Pinned)
	require.NoError(t, WriteUnits(dir, units, m))

	for _, u := range units {
		data, err := os.ReadFile(filepath.Join(dir, u.FileName))
		require.NoError(t, err)
		assert.Equal(t, u.Content, string(data))
	}
	data, readErr := os.ReadFile(filepath.Join(dir, ManifestFileName))
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "\"run_id\"")

	// No stray staging files.
	entries, readDirErr := os.ReadDir(dir)
	require.NoError(t, readDirErr)
	assert.Len(t, entries, len(units)+1)
}

func TestManifest_Report(t *testing.T) {
	_, a, units := splitFixture(t)
	m := NewManifest("ChatService", "declaration-based", units, a.Pinned)

	require.Len(t, m.Partitions, 3)
	assert.Equal(t, "Core", m.Partitions[0].Partition)
	assert.Positive(t, m.Partitions[0].Declarations)
	assert.Positive(t, m.Partitions[0].Lines)

	report := m.String()
	assert.Contains(t, report, "ChatService+Fetching.swift")
	assert.Contains(t, report, "declarations")
}

func TestManifest_RunIDDerivedFromContent(t *testing.T) {
	_, a, units := splitFixture(t)

	first := NewManifest("ChatService", "declaration-based", units, a.Pinned)
	second := NewManifest("ChatService", "declaration-based", units, a.Pinned)
	assert.Equal(t, first.RunID, second.RunID)

	changed := make([]Unit, len(units))
	copy(changed, units)
	changed[0].Content += "// edited\n"
	third := NewManifest("ChatService", "declaration-based", changed, a.Pinned)
	assert.NotEqual(t, first.RunID, third.RunID)
}
