package trie

import (
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func TestMemorySizeLeaf(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	expect.EQ(t, trie.MemorySize(), int64(0))

	mustAdd(t, trie, "ACGTACGT")
	// One terminal: 8 byte header plus count, 8 suffix bytes.
	expect.EQ(t, trie.MemorySize(), int64(16))
}

func TestMemorySizeAfterSplit(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "ACGTACGT", "ACGTAAAA")

	// The shared prefix ACGTA becomes an interior chain with arities
	// 1, 2, 3, 4, 1, 2 and two 2-byte terminals below it:
	//   6*8 + (1+2+3+4+1+2)*8 + 2*(8+2) = 172.
	expect.EQ(t, trie.MemorySize(), int64(172))

	ok, err := trie.ContainsSequence("ACGTACGT", 0, false)
	require.NoError(t, err)
	expect.True(t, ok)
	ok, err = trie.ContainsSequence("ACGTAAAA", 0, false)
	require.NoError(t, err)
	expect.True(t, ok)
}

func TestMemorySizeAfterDelete(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "ACGTACGT", "ACGTAAAA")

	before := trie.MemorySize()
	count, ok := deleteSequence(&trie.root, []byte("ACGTACGT"), &trie.alphabet)
	require.True(t, ok)
	expect.EQ(t, count, uint32(1))
	// Exactly the removed terminal's bytes are released; interior
	// arities never shrink.
	expect.EQ(t, trie.MemorySize(), before-10)

	count, ok = deleteSequence(&trie.root, []byte("ACGTAAAA"), &trie.alphabet)
	require.True(t, ok)
	expect.EQ(t, count, uint32(1))
	expect.EQ(t, trie.MemorySize(), int64(0))
}

func TestResizeKeepsChildren(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "AA", "CA", "GA", "TA", "NA")

	expect.EQ(t, trie.Alphabet(), "ACGTN")
	for _, s := range []string{"AA", "CA", "GA", "TA", "NA"} {
		ok, err := trie.ContainsSequence(s, 0, false)
		require.NoError(t, err)
		expect.True(t, ok, "sequence %q", s)
	}
	// Root interior of arity 5 plus five 1-byte terminals.
	expect.EQ(t, trie.MemorySize(), int64(8+5*8+5*9))
}

func TestRawStats(t *testing.T) {
	trie, err := New("")
	require.NoError(t, err)
	mustAdd(t, trie, "ACGT", "ACGA")

	// Rows are depths 0..4; buckets are terminal count, then interior
	// node count per arity 1..4.
	expect.EQ(t, trie.RawStats(), [][]int64{
		{0, 1, 0, 0, 0}, // root branches only on A
		{0, 0, 1, 0, 0}, // C, sized for index 1
		{0, 0, 0, 1, 0}, // G
		{0, 0, 0, 0, 1}, // T
		{2, 0, 0, 0, 0}, // the two suffix terminals
	})
}

func TestRawStatsEmpty(t *testing.T) {
	trie, err := New("ACGT")
	require.NoError(t, err)
	expect.EQ(t, trie.RawStats(), [][]int64{{0, 0, 0, 0, 0}})
}
