package layout

import "hash/fnv"

// StableNodeID returns a deterministic, non-cryptographic hash of a node
// id string, used as the numeric Source.id carried on every message so a
// variadic handler can disambiguate producers.
func StableNodeID(nodeID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(nodeID))
	return h.Sum64()
}

// detectHashCollisions returns the first pair of distinct node ids that
// hash equal, if any. Collisions within a plan are improbable but must
// be detected and rejected rather than silently aliased.
func detectHashCollisions(nodeIDs []string) (string, string, bool) {
	seen := make(map[uint64]string, len(nodeIDs))
	for _, id := range nodeIDs {
		h := StableNodeID(id)
		if prior, ok := seen[h]; ok && prior != id {
			return prior, id, true
		}
		seen[h] = id
	}
	return "", "", false
}
