package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleave-tools/cleave/internal/boundary"
)

// Test Plan for Categorizer:
// - Compile() rejects empty table, missing catch-all, empty partition id,
//   bad glob pattern, empty primary id
// - Stored state, initializers, and lifecycle hooks pin to primary
// - Pinned names beat matching name rules, and the override is reported
// - First matching rule wins over later rules
// - Unmatched names land in the catch-all partition
// - Partition order is primary first, then rule-table appearance order
// - Original declaration order is preserved inside each partition
// - Categorize is deterministic across repeated runs

func mustTable(t *testing.T, primary string, rules []Rule, pinned []string) *Table {
	t.Helper()
	tbl, err := Compile(primary, rules, pinned)
	require.NoError(t, err)
	return tbl
}

func fn(name string) boundary.Declaration {
	return boundary.Declaration{Kind: boundary.KindFunction, Name: name}
}

func TestCompile_RequiresCatchAll(t *testing.T) {
	_, err := Compile("Core", []Rule{{Pattern: "fetch*", Partition: "Fetching"}}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCategory)
}

func TestCompile_RejectsEmptyTable(t *testing.T) {
	_, err := Compile("Core", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCategory)
}

func TestCompile_RejectsEmptyPrimary(t *testing.T) {
	_, err := Compile("", []Rule{{Pattern: "*", Partition: "Rest"}}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCategory)
}

func TestCompile_RejectsRuleWithoutPartition(t *testing.T) {
	_, err := Compile("Core", []Rule{{Pattern: "*", Partition: ""}}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCategory)
}

func TestCompile_RejectsBadPattern(t *testing.T) {
	_, err := Compile("Core", []Rule{
		{Pattern: "[", Partition: "A"},
		{Pattern: "*", Partition: "Rest"},
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCategory)
}

func TestCategorize_KindsPinToPrimary(t *testing.T) {
	tbl := mustTable(t, "Core", []Rule{{Pattern: "*", Partition: "Rest"}}, nil)

	decls := []boundary.Declaration{
		{Kind: boundary.KindStoredState, Name: "conversations"},
		{Kind: boundary.KindInitializer, Name: "init"},
		{Kind: boundary.KindLifecycleHook, Name: "deinit"},
		fn("helper"),
	}
	a := tbl.Categorize(decls)

	require.Len(t, a.Partitions, 2)
	assert.Equal(t, "Core", a.Partitions[0].ID)
	require.Len(t, a.Partitions[0].Decls, 3)
	assert.Equal(t, "Rest", a.Partitions[1].ID)
	require.Len(t, a.Partitions[1].Decls, 1)
	assert.Equal(t, "helper", a.Partitions[1].Decls[0].Name)
}

func TestCategorize_PinnedNameBeatsRule(t *testing.T) {
	tbl := mustTable(t, "Core", []Rule{
		{Pattern: "observe*", Partition: "Sync"},
		{Pattern: "*", Partition: "Rest"},
	}, []string{"observeConversationCount"})

	a := tbl.Categorize([]boundary.Declaration{
		fn("observeConversationCount"),
		fn("observePingLatency"),
	})

	core := a.Lookup("observeConversationCount")
	require.NotNil(t, core)
	assert.Equal(t, "Core", core.ID)

	sync := a.Lookup("observePingLatency")
	require.NotNil(t, sync)
	assert.Equal(t, "Sync", sync.ID)

	// The override is surfaced, not silent.
	assert.Equal(t, []string{"observeConversationCount"}, a.Pinned)
}

func TestCategorize_FirstMatchWins(t *testing.T) {
	tbl := mustTable(t, "Core", []Rule{
		{Pattern: "fetch*", Partition: "Fetching"},
		{Pattern: "fetchPayment*", Partition: "Payments"},
		{Pattern: "*", Partition: "Rest"},
	}, nil)

	a := tbl.Categorize([]boundary.Declaration{fn("fetchPaymentByTxId")})
	p := a.Lookup("fetchPaymentByTxId")
	require.NotNil(t, p)
	assert.Equal(t, "Fetching", p.ID)
}

func TestCategorize_UnmatchedFallsToCatchAll(t *testing.T) {
	tbl := mustTable(t, "Core", []Rule{
		{Pattern: "send*", Partition: "Sending"},
		{Pattern: "*", Partition: "Persistence"},
	}, nil)

	a := tbl.Categorize([]boundary.Declaration{fn("decodeMessagePayload")})
	p := a.Lookup("decodeMessagePayload")
	require.NotNil(t, p)
	assert.Equal(t, "Persistence", p.ID)
}

func TestCategorize_OrderAndDeterminism(t *testing.T) {
	tbl := mustTable(t, "Core", []Rule{
		{Pattern: "send*", Partition: "Sending"},
		{Pattern: "fetch*", Partition: "Fetching"},
		{Pattern: "*", Partition: "Rest"},
	}, nil)

	decls := []boundary.Declaration{
		fn("fetchNewMessages"),
		fn("sendMessage"),
		fn("sendPayment"),
		{Kind: boundary.KindStoredState, Name: "store"},
		fn("fetchHandshakesOnly"),
	}

	first := tbl.Categorize(decls)
	for i := 0; i < 10; i++ {
		again := tbl.Categorize(decls)
		assert.Equal(t, first, again)
	}

	// Primary first, then partitions in the order they first appear in the
	// source: the fetch declaration precedes the send ones.
	ids := make([]string, 0, len(first.Partitions))
	for _, p := range first.Partitions {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"Core", "Fetching", "Sending"}, ids)

	// Source order preserved inside a partition.
	sending := first.Partitions[2]
	assert.Equal(t, "sendMessage", sending.Decls[0].Name)
	assert.Equal(t, "sendPayment", sending.Decls[1].Name)
}
