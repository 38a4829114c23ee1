package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStableNodeIDDeterministic(t *testing.T) {
	assert.Equal(t, StableNodeID("strategy-1"), StableNodeID("strategy-1"))
	assert.NotEqual(t, StableNodeID("strategy-1"), StableNodeID("strategy-2"))
}

func TestDetectHashCollisionsNoneByDefault(t *testing.T) {
	_, _, collided := detectHashCollisions([]string{"a", "b", "c"})
	assert.False(t, collided)
}

func TestDetectHashCollisionsIgnoresDuplicateIDs(t *testing.T) {
	// The same id repeated is not a collision between distinct ids.
	_, _, collided := detectHashCollisions([]string{"a", "a"})
	assert.False(t, collided)
}
