package trie

// findNearestHamming returns the count of the first stored sequence
// within maxDistance Hamming mismatches of sequence, searching the
// matching child before the other children in alphabet index order.
// It returns 0 when no such sequence exists. Sequences of unequal
// length never match. When buffer is non-nil the located sequence is
// written into it; it must hold at least len(sequence) bytes.
func findNearestHamming(n *node, sequence []byte, maxDistance int, ab *alphabet, buffer []byte) uint32 {
	if n.isTerminal() {
		if len(sequence) != n.suffixSize() {
			return 0
		}
		for i, c := range n.suffix {
			if sequence[i] != c {
				maxDistance--
				if maxDistance < 0 {
					return 0
				}
			}
		}
		copy(buffer, n.suffix)
		return n.count
	}
	if len(sequence) == 0 {
		// A non-zero count here is a stored sequence of exactly the
		// consumed length.
		return n.count
	}

	c := sequence[0]
	index := int(ab.toIndex[c])
	var childBuffer []byte
	if buffer != nil {
		childBuffer = buffer[1:]
	}
	if child := n.childAt(index); child != nil {
		// The matching child costs nothing from the budget.
		if buffer != nil {
			buffer[0] = c
		}
		if count := findNearestHamming(child, sequence[1:], maxDistance, ab, childBuffer); count > 0 {
			return count
		}
	}
	maxDistance--
	if maxDistance < 0 {
		return 0
	}
	for i := 0; i < n.arity(); i++ {
		if i == index || n.children[i] == nil {
			continue
		}
		if buffer != nil {
			buffer[0] = ab.fromIndex[i]
		}
		if count := findNearestHamming(n.children[i], sequence[1:], maxDistance, ab, childBuffer); count > 0 {
			return count
		}
	}
	return 0
}

// editWithin reports whether a and b are within maxDistance
// insertions, deletions and substitutions of each other.
func editWithin(a, b []byte, maxDistance int) bool {
	gap := len(a) - len(b)
	if gap < 0 {
		gap = -gap
	}
	if gap > maxDistance {
		return false
	}
	for len(a) > 0 && len(b) > 0 {
		if a[0] != b[0] {
			maxDistance--
			if maxDistance < 0 {
				return false
			}
			if editWithin(a, b[1:], maxDistance) {
				return true
			}
			if editWithin(a[1:], b, maxDistance) {
				return true
			}
			// Substitution: keep walking both.
		}
		a = a[1:]
		b = b[1:]
	}
	gap = len(a) + len(b) // one of the two is empty
	return gap <= maxDistance
}

// findNearestEdit is the edit distance counterpart of
// findNearestHamming. Stored sequences of a different length than
// sequence may match; the returned size is the length of the located
// sequence, which buffer, when non-nil, must be able to hold. The
// matching child is tried first at no cost, then the budget pays for
// deleting from sequence, substituting into a sibling, or inserting
// the sibling's character, in that order.
func findNearestEdit(n *node, sequence []byte, maxDistance int, ab *alphabet, buffer []byte) (count uint32, size int) {
	if n.isTerminal() {
		if !editWithin(sequence, n.suffix, maxDistance) {
			return 0, 0
		}
		copy(buffer, n.suffix)
		return n.count, n.suffixSize()
	}
	if len(sequence) == 0 && n.count > 0 {
		return n.count, 0
	}

	index := -1
	var childBuffer []byte
	if buffer != nil {
		childBuffer = buffer[1:]
	}
	if len(sequence) > 0 {
		index = int(ab.toIndex[sequence[0]])
		if child := n.childAt(index); child != nil {
			if buffer != nil {
				buffer[0] = sequence[0]
			}
			if count, size = findNearestEdit(child, sequence[1:], maxDistance, ab, childBuffer); count > 0 {
				return count, size + 1
			}
		}
	}
	maxDistance--
	if maxDistance < 0 {
		return 0, 0
	}
	if len(sequence) > 0 {
		// Deletion from the query: advance the sequence without
		// descending.
		if count, size = findNearestEdit(n, sequence[1:], maxDistance, ab, buffer); count > 0 {
			return count, size
		}
	}
	for i := 0; i < n.arity(); i++ {
		if n.children[i] == nil {
			continue
		}
		if buffer != nil {
			buffer[0] = ab.fromIndex[i]
		}
		if len(sequence) > 0 && i != index {
			// Substitution: descend and consume.
			if count, size = findNearestEdit(n.children[i], sequence[1:], maxDistance, ab, childBuffer); count > 0 {
				return count, size + 1
			}
		}
		// Insertion into the query: descend without consuming.
		if count, size = findNearestEdit(n.children[i], sequence, maxDistance, ab, childBuffer); count > 0 {
			return count, size + 1
		}
	}
	return 0, 0
}

// getSequence writes the stored sequence that sorts first by alphabet
// index order into buffer and returns its length. It returns ok=false
// when buffer is too small or the subtree stores nothing, which on a
// valid non-empty trie cannot happen.
func getSequence(n *node, ab *alphabet, buffer []byte) (size int, ok bool) {
	if n.isTerminal() {
		if n.suffixSize() > len(buffer) {
			return 0, false
		}
		copy(buffer, n.suffix)
		return n.suffixSize(), true
	}
	// A sequence ending here sorts before every sequence that extends
	// it.
	if n.count > 0 {
		return 0, true
	}
	if len(buffer) < 1 {
		return 0, false
	}
	for i := 0; i < n.arity(); i++ {
		child := n.children[i]
		if child == nil {
			continue
		}
		buffer[0] = ab.fromIndex[i]
		size, ok = getSequence(child, ab, buffer[1:])
		if !ok {
			return 0, false
		}
		return size + 1, true
	}
	return 0, false
}
