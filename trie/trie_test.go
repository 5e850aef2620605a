package trie

import (
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAdd(t *testing.T, trie *Trie, sequences ...string) {
	t.Helper()
	for _, s := range sequences {
		require.NoError(t, trie.AddSequence(s))
	}
}

func TestNewSeedAlphabet(t *testing.T) {
	trie, err := New("ACGTN")
	require.NoError(t, err)
	expect.EQ(t, trie.Alphabet(), "ACGTN")

	_, err = New("ACGTA")
	assert.Equal(t, ErrBadInput, errors.Cause(err))

	_, err = New("AC\x80")
	assert.Equal(t, ErrBadInput, errors.Cause(err))
}

func TestAddAndContains(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "ACGT", "ACGT", "ACGA")

	expect.EQ(t, trie.NumberOfSequences(), int64(3))
	expect.EQ(t, trie.Alphabet(), "ACGT")

	for _, s := range []string{"ACGT", "ACGA"} {
		ok, err := trie.ContainsSequence(s, 0, false)
		require.NoError(t, err)
		expect.True(t, ok, "sequence %q", s)
	}
	for _, s := range []string{"", "A", "AC", "ACG", "ACGC", "ACGTA", "TTTT"} {
		ok, err := trie.ContainsSequence(s, 0, false)
		require.NoError(t, err)
		expect.False(t, ok, "sequence %q", s)
	}
}

func TestAddBadInput(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	err = trie.AddSequence("ACG\xffT")
	assert.Equal(t, ErrBadInput, errors.Cause(err))
	expect.EQ(t, trie.NumberOfSequences(), int64(0))
}

func TestEmptySequence(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "")
	ok, err := trie.ContainsSequence("", 0, false)
	require.NoError(t, err)
	expect.True(t, ok)

	cluster, err := trie.PopCluster(0, false)
	require.NoError(t, err)
	expect.EQ(t, cluster, []ClusterMember{{Count: 1, Sequence: ""}})
	expect.EQ(t, trie.NumberOfSequences(), int64(0))
}

func TestPopClusterExactDuplicates(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "ACGT", "ACGT", "ACGA")

	// The seed is the sequence that sorts first in alphabet index
	// order, here ACGA.
	cluster, err := trie.PopCluster(0, false)
	require.NoError(t, err)
	expect.EQ(t, cluster, []ClusterMember{{Count: 1, Sequence: "ACGA"}})
	expect.EQ(t, trie.NumberOfSequences(), int64(2))

	cluster, err = trie.PopCluster(0, false)
	require.NoError(t, err)
	expect.EQ(t, cluster, []ClusterMember{{Count: 2, Sequence: "ACGT"}})
	expect.EQ(t, trie.NumberOfSequences(), int64(0))

	_, err = trie.PopCluster(0, false)
	assert.Equal(t, ErrEmpty, errors.Cause(err))
}

func TestPopClusterHamming(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "AAA", "AAC", "AAG", "TTT")

	cluster, err := trie.PopCluster(1, false)
	require.NoError(t, err)
	expect.EQ(t, cluster, []ClusterMember{
		{Count: 1, Sequence: "AAA"},
		{Count: 1, Sequence: "AAC"},
		{Count: 1, Sequence: "AAG"},
	})
	expect.EQ(t, trie.NumberOfSequences(), int64(1))

	cluster, err = trie.PopCluster(1, false)
	require.NoError(t, err)
	expect.EQ(t, cluster, []ClusterMember{{Count: 1, Sequence: "TTT"}})
	expect.EQ(t, trie.NumberOfSequences(), int64(0))
}

// A chain of sequences each one mismatch apart must come out as a
// single connected cluster even though the ends are far apart.
func TestPopClusterTransitive(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "AAAA", "AAAT", "AATT", "ATTT", "TTTT", "GGGG")

	cluster, err := trie.PopCluster(1, false)
	require.NoError(t, err)
	got := map[string]bool{}
	for _, member := range cluster {
		got[member.Sequence] = true
	}
	expect.EQ(t, got, map[string]bool{
		"AAAA": true, "AAAT": true, "AATT": true, "ATTT": true, "TTTT": true,
	})

	cluster, err = trie.PopCluster(1, false)
	require.NoError(t, err)
	expect.EQ(t, cluster, []ClusterMember{{Count: 1, Sequence: "GGGG"}})
}

func TestContainsHammingLengthMismatch(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "AC", "ACG")

	tests := []struct {
		sequence    string
		maxDistance int
		want        bool
	}{
		{"AC", 0, true},
		{"ACG", 0, true},
		{"ACG", 1, true},
		{"AC", 1, true},
		{"ACGT", 1, false}, // no length-4 sequence stored
		{"AG", 0, false},
		{"AG", 1, true},
	}
	for _, test := range tests {
		got, err := trie.ContainsSequence(test.sequence, test.maxDistance, false)
		require.NoError(t, err)
		expect.EQ(t, got, test.want, "ContainsSequence(%q, %d)",
			test.sequence, test.maxDistance)
	}
}

func TestContainsEditDistance(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "ACGT")

	tests := []struct {
		sequence    string
		maxDistance int
		want        bool
	}{
		{"ACGT", 0, true},
		{"ACT", 0, false},
		{"ACT", 1, true},  // deletion in the query
		{"ACGGT", 1, true}, // insertion in the query
		{"AGGT", 1, true},  // substitution
		{"AT", 1, false},
		{"AT", 2, true},
		{"CA", 2, false},
		{"CA", 3, true},
	}
	for _, test := range tests {
		got, err := trie.ContainsSequence(test.sequence, test.maxDistance, true)
		require.NoError(t, err)
		expect.EQ(t, got, test.want, "ContainsSequence(%q, %d, edit)",
			test.sequence, test.maxDistance)
	}
}

func TestPopClusterEditDistance(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "ACGT", "ACGGT", "ACT", "TTTT")

	cluster, err := trie.PopCluster(1, true)
	require.NoError(t, err)
	got := map[string]bool{}
	for _, member := range cluster {
		expect.EQ(t, member.Count, int64(1))
		got[member.Sequence] = true
	}
	expect.EQ(t, got, map[string]bool{"ACGT": true, "ACGGT": true, "ACT": true})

	cluster, err = trie.PopCluster(1, true)
	require.NoError(t, err)
	expect.EQ(t, cluster, []ClusterMember{{Count: 1, Sequence: "TTTT"}})
}

// Popping all clusters returns every added count exactly once.
func TestPopClusterExhaustive(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	sequences := []string{
		"AACCGGTT", "AACCGGTA", "AACCGGAA", "TTGGCCAA",
		"TTGGCCAT", "CCCCCCCC", "AACCGGTT", "CCCCCCCC",
	}
	mustAdd(t, trie, sequences...)
	require.EqualValues(t, len(sequences), trie.NumberOfSequences())

	var total int64
	for trie.NumberOfSequences() > 0 {
		cluster, err := trie.PopCluster(1, false)
		require.NoError(t, err)
		require.NotEmpty(t, cluster)
		for _, member := range cluster {
			total += member.Count
		}
		// Cluster exhaustivity: nothing left in the trie may be within
		// distance 1 of a popped member.
		for _, member := range cluster {
			ok, err := trie.ContainsSequence(member.Sequence, 1, false)
			require.NoError(t, err)
			expect.False(t, ok, "sequence %q still has neighbours", member.Sequence)
		}
	}
	expect.EQ(t, total, int64(len(sequences)))
}

func TestPopClusterIdempotentDuplicates(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "GATTACA", "GATTACA")

	cluster, err := trie.PopCluster(0, false)
	require.NoError(t, err)
	expect.EQ(t, cluster, []ClusterMember{{Count: 2, Sequence: "GATTACA"}})
}

func TestPopClusterNegativeDistance(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "ACGT")
	_, err = trie.PopCluster(-1, false)
	assert.Equal(t, ErrBadInput, errors.Cause(err))
}

func TestDeletePrunesDeadBranches(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "A", "AB")

	// Removing AB leaves the interior node below A childless; it must
	// collapse back into a terminal carrying A's count.
	count, ok := deleteSequence(&trie.root, []byte("AB"), &trie.alphabet)
	require.True(t, ok)
	expect.EQ(t, count, uint32(1))

	ok2, err := trie.ContainsSequence("A", 0, false)
	require.NoError(t, err)
	expect.True(t, ok2)
	ok2, err = trie.ContainsSequence("AB", 0, false)
	require.NoError(t, err)
	expect.False(t, ok2)

	count, ok = deleteSequence(&trie.root, []byte("A"), &trie.alphabet)
	require.True(t, ok)
	expect.EQ(t, count, uint32(1))
	expect.True(t, trie.root == nil)
}

func TestDeleteAbsentSequence(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "ACGT", "ACGA")

	for _, s := range []string{"ACG", "ACGC", "ACGTT", "TTTT", ""} {
		_, ok := deleteSequence(&trie.root, []byte(s), &trie.alphabet)
		expect.False(t, ok, "delete %q", s)
	}
	expect.EQ(t, trie.NumberOfSequences(), int64(2))
}

// Counts above 1 on a terminal must survive the split into an interior
// chain.
func TestSplitPreservesCount(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "ACGTACGT", "ACGTACGT", "ACGTACGT", "ACGTAAAA")

	cluster, err := trie.PopCluster(0, false)
	require.NoError(t, err)
	expect.EQ(t, cluster, []ClusterMember{{Count: 1, Sequence: "ACGTAAAA"}})
	cluster, err = trie.PopCluster(0, false)
	require.NoError(t, err)
	expect.EQ(t, cluster, []ClusterMember{{Count: 3, Sequence: "ACGTACGT"}})
}
