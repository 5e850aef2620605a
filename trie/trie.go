// Package trie implements a radix-compressed trie over short ASCII
// sequences. The trie stores a multiplicity count per sequence and
// answers approximate membership queries under a Hamming or edit
// distance budget. Its main use is deduplicating UMI-carrying
// sequencing reads: near-identical sequences are popped off the trie
// one connected cluster at a time.
//
// Interior nodes size their child arrays to the locally observed
// alphabet, and unique tails are radix-compressed into terminal
// suffixes, which keeps the memory image compact for the very skewed
// character distributions of sequencing data.
package trie

import (
	"bytes"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

var (
	// ErrBadInput is returned when a sequence or alphabet is not 7-bit
	// ASCII, repeats a seed character, or exceeds the size limit.
	ErrBadInput = errors.New("invalid sequence or alphabet")
	// ErrAlphabetFull is returned when a new character would grow the
	// alphabet past its maximum size.
	ErrAlphabetFull = errors.New("maximum alphabet size exceeded")
	// ErrEmpty is returned by PopCluster when the trie holds no
	// sequences.
	ErrEmpty = errors.New("no sequences left in trie")
)

// Trie indexes ASCII sequences with per-sequence multiplicity counts.
// The zero value is not usable; call New.
//
// A Trie must not be mutated concurrently. A single reader calling
// ContainsSequence while no mutator runs is safe.
type Trie struct {
	alphabet        alphabet
	root            *node
	numSequences    int64
	maxSequenceSize int
	seqBuf          []byte
}

// New creates an empty trie. The seed alphabet, which may be empty,
// establishes the initial character indices in seed order and thereby
// the order in which approximate searches try siblings. Characters in
// the seed must be unique.
func New(seedAlphabet string) (*Trie, error) {
	t := &Trie{}
	if err := t.alphabet.init(seedAlphabet); err != nil {
		return nil, err
	}
	return t, nil
}

// Alphabet returns the alphabet observed so far, in index order.
func (t *Trie) Alphabet() string {
	return t.alphabet.String()
}

// NumberOfSequences returns the number of sequences currently stored:
// successful AddSequence calls minus the counts removed by PopCluster.
func (t *Trie) NumberOfSequences() int64 {
	return t.numSequences
}

// MaxSequenceSize returns the length of the longest added sequence.
func (t *Trie) MaxSequenceSize() int {
	return t.maxSequenceSize
}

func validateSequence(sequence string) error {
	if len(sequence) > maxSuffixSize {
		return errors.Wrapf(ErrBadInput,
			"sequences larger than %d can not be stored", maxSuffixSize)
	}
	for i := 0; i < len(sequence); i++ {
		if sequence[i] >= 128 {
			return errors.Wrapf(ErrBadInput,
				"sequence must consist only of ASCII characters, got %q at position %d",
				sequence[i], i)
		}
	}
	return nil
}

// AddSequence stores one occurrence of sequence in the trie.
func (t *Trie) AddSequence(sequence string) error {
	if err := validateSequence(sequence); err != nil {
		return err
	}
	if err := addSequence(&t.root, []byte(sequence), 1, &t.alphabet); err != nil {
		return err
	}
	t.numSequences++
	if len(sequence) > t.maxSequenceSize {
		t.maxSequenceSize = len(sequence)
	}
	return nil
}

// addSequence inserts sequence into the node held by slot, creating,
// splitting and resizing nodes as needed. slot may hold nil. On return
// slot holds the updated subtree.
func addSequence(slot **node, sequence []byte, count uint32, ab *alphabet) error {
	n := *slot
	if n == nil {
		*slot = newLeaf(sequence, count)
		return nil
	}
	if n.isTerminal() {
		if len(sequence) == n.suffixSize() && bytes.Equal(sequence, n.suffix) {
			n.count += count
			return nil
		}
		// The compressed suffix has to be split up. Convert the node
		// in place to an empty interior node and re-insert the suffix
		// through the normal interior path below it. The stored count
		// must survive the transient state.
		suffix := n.suffix
		storedCount := n.count
		n.setInterior(0)
		n.count = 0
		n.suffix = nil
		if err := addSequence(slot, suffix, storedCount, ab); err != nil {
			return err
		}
		n = *slot
	}
	if len(sequence) == 0 {
		// The sequence ends exactly at this interior node.
		n.count += count
		return nil
	}

	c := sequence[0]
	index := ab.toIndex[c]
	if index == unknownIndex {
		var err error
		if index, err = ab.grow(c); err != nil {
			return err
		}
	}
	if int(index) >= n.arity() {
		if err := n.resize(int(index) + 1); err != nil {
			return err
		}
	}
	return addSequence(&n.children[index], sequence[1:], count, ab)
}

// deleteSequence removes sequence from the node held by slot and
// returns the count that was stored for it. It returns ok=false when
// the sequence is not present. After a successful recursive delete the
// node is pruned: an interior node whose children are all empty is
// replaced by a terminal with an empty suffix when it carries a count,
// or removed entirely when it does not. Arity never shrinks.
func deleteSequence(slot **node, sequence []byte, ab *alphabet) (count uint32, ok bool) {
	n := *slot
	if n.isTerminal() {
		if len(sequence) != n.suffixSize() || !bytes.Equal(sequence, n.suffix) {
			return 0, false
		}
		count = n.count
		*slot = nil
		return count, true
	}

	if len(sequence) == 0 {
		if n.count == 0 {
			return 0, false
		}
		count = n.count
		n.count = 0
		return count, true
	}

	index := ab.toIndex[sequence[0]]
	if index == unknownIndex || int(index) >= n.arity() || n.children[index] == nil {
		return 0, false
	}
	count, ok = deleteSequence(&n.children[index], sequence[1:], ab)
	if !ok {
		return 0, false
	}
	// Prune dead ends so the search algorithms never walk into an
	// interior node with nothing below it.
	for _, child := range n.children {
		if child != nil {
			return count, true
		}
	}
	if n.count > 0 {
		*slot = newLeaf(nil, n.count)
	} else {
		*slot = nil
	}
	return count, true
}

// ContainsSequence reports whether any stored sequence lies within
// maxDistance of sequence. With maxDistance 0 this is an exact
// membership test. Hamming distance is used unless useEdit is set, in
// which case sequences of unequal length may also match.
func (t *Trie) ContainsSequence(sequence string, maxDistance int, useEdit bool) (bool, error) {
	if err := validateSequence(sequence); err != nil {
		return false, err
	}
	if t.root == nil {
		return false, nil
	}
	var count uint32
	if useEdit {
		count, _ = findNearestEdit(t.root, []byte(sequence), maxDistance, &t.alphabet, nil)
	} else {
		count = findNearestHamming(t.root, []byte(sequence), maxDistance, &t.alphabet, nil)
	}
	return count > 0, nil
}

// ClusterMember is one member of a popped cluster: a stored sequence
// and the number of times it was added.
type ClusterMember struct {
	Count    int64
	Sequence string
}

// PopCluster removes and returns a maximal set of stored sequences that
// form a connected component under the "within maxDistance" relation,
// grown greedily around a seed sequence. The seed is the sequence that
// sorts first by alphabet index order. With maxDistance 0 the cluster
// is the exact-duplicate bucket of the seed.
func (t *Trie) PopCluster(maxDistance int, useEdit bool) ([]ClusterMember, error) {
	if maxDistance < 0 {
		return nil, errors.Wrap(ErrBadInput, "max distance must not be negative")
	}
	if t.root == nil {
		return nil, ErrEmpty
	}
	if len(t.seqBuf) < t.maxSequenceSize {
		t.seqBuf = make([]byte, t.maxSequenceSize)
	}
	buf := t.seqBuf

	seedSize, ok := getSequence(t.root, &t.alphabet, buf)
	if !ok {
		log.Panicf("trie: could not extract a sequence from a non-empty trie")
	}
	seed := string(buf[:seedSize])
	count, ok := deleteSequence(&t.root, buf[:seedSize], &t.alphabet)
	if !ok {
		log.Panicf("trie: retrieved undeletable sequence %q", seed)
	}
	t.numSequences -= int64(count)
	cluster := []ClusterMember{{Count: int64(count), Sequence: seed}}
	if maxDistance == 0 {
		return cluster, nil
	}

	// Breadth expansion: keep collecting neighbours of the current
	// template until it has none left, then move to the next cluster
	// member. Every found sequence is deleted before the search
	// continues, so the loop terminates when the component is
	// exhausted.
	for i := 0; i < len(cluster) && t.root != nil; {
		template := []byte(cluster[i].Sequence)
		var found uint32
		var foundSize int
		if useEdit {
			found, foundSize = findNearestEdit(t.root, template, maxDistance, &t.alphabet, buf)
		} else {
			found = findNearestHamming(t.root, template, maxDistance, &t.alphabet, buf)
			foundSize = len(template)
		}
		if found == 0 {
			i++
			continue
		}
		neighbour := string(buf[:foundSize])
		deleted, ok := deleteSequence(&t.root, buf[:foundSize], &t.alphabet)
		if !ok {
			log.Panicf("trie: retrieved undeletable sequence %q", neighbour)
		}
		t.numSequences -= int64(deleted)
		cluster = append(cluster, ClusterMember{Count: int64(found), Sequence: neighbour})
	}
	return cluster, nil
}

// MemorySize returns the byte cost of the trie's nodes under the
// packed node layout.
func (t *Trie) MemorySize() int64 {
	return t.root.memorySize()
}

// RawStats returns a table with one row per depth from 0 through
// MaxSequenceSize. Each row has alphabet size + 1 buckets: bucket 0
// counts terminal nodes at that depth, bucket k counts interior nodes
// of arity k.
func (t *Trie) RawStats() [][]int64 {
	layerSize := t.alphabet.size + 1
	numLayers := t.maxSequenceSize + 1
	stats := make([]int64, numLayers*layerSize)
	t.root.gatherStats(0, layerSize, stats)
	rows := make([][]int64, numLayers)
	for i := range rows {
		rows[i] = stats[i*layerSize : (i+1)*layerSize]
	}
	return rows
}
