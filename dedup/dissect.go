package dedup

import (
	"sort"

	"github.com/grailbio/fastqdedup/trie"
)

// A DissectFunc decides which members of a popped cluster are distinct
// molecules and returns their sequences. within reports whether two
// sequences lie within the configured distance.
type DissectFunc func(cluster []trie.ClusterMember, within func(s1, s2 string) bool) []string

// DissectionMethods maps the command line names to the dissection
// strategies.
var DissectionMethods = map[string]DissectFunc{
	"highest_count": DissectHighestCount,
	"adjacency":     DissectAdjacency,
	"directional":   DissectDirectional,
}

// sortedDescending orders members by descending count, breaking ties
// by descending sequence so the result is deterministic.
func sortedDescending(cluster []trie.ClusterMember) []trie.ClusterMember {
	sorted := make([]trie.ClusterMember, len(cluster))
	copy(sorted, cluster)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Sequence > sorted[j].Sequence
	})
	return sorted
}

// DissectHighestCount keeps only the member with the highest count.
func DissectHighestCount(cluster []trie.ClusterMember, within func(s1, s2 string) bool) []string {
	if len(cluster) == 0 {
		return nil
	}
	return []string{sortedDescending(cluster)[0].Sequence}
}

// DissectAdjacency repeatedly keeps the remaining member with the
// highest count and discards every member directly within distance of
// it.
func DissectAdjacency(cluster []trie.ClusterMember, within func(s1, s2 string) bool) []string {
	remaining := sortedDescending(cluster)
	var kept []string
	for len(remaining) > 0 {
		template := remaining[0]
		kept = append(kept, template.Sequence)
		var distinct []trie.ClusterMember
		for _, member := range remaining[1:] {
			if !within(template.Sequence, member.Sequence) {
				distinct = append(distinct, member)
			}
		}
		remaining = distinct
	}
	return kept
}

// DissectDirectional applies the UMI-tools directional rule: a member
// within distance of a kept template is folded into it when its count
// is low enough that it can be explained as a PCR or sequencing
// artifact of the template, 2*count-1 <= template count. Folded
// members become templates themselves, so artifact chains collapse
// into their origin read.
func DissectDirectional(cluster []trie.ClusterMember, within func(s1, s2 string) bool) []string {
	remaining := sortedDescending(cluster)
	var kept []string
	for len(remaining) > 0 {
		original := remaining[0]
		remaining = remaining[1:]
		kept = append(kept, original.Sequence)
		templates := []trie.ClusterMember{original}
		for i := 0; i < len(templates) && len(remaining) > 0; i++ {
			template := templates[i]
			var distinct []trie.ClusterMember
			for _, member := range remaining {
				if 2*member.Count-1 <= template.Count &&
					within(template.Sequence, member.Sequence) {
					templates = append(templates, member)
					continue
				}
				distinct = append(distinct, member)
			}
			remaining = distinct
		}
	}
	return kept
}
