package pointindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(6)
	for i := 0; i < 6; i++ {
		assert.Equal(t, i, uf.find(i))
		assert.Equal(t, 1, uf.setSize(i))
	}

	uf.union(0, 1)
	uf.union(1, 2)
	uf.union(3, 4)
	assert.Equal(t, uf.find(0), uf.find(2))
	assert.NotEqual(t, uf.find(0), uf.find(3))
	assert.Equal(t, 3, uf.setSize(2))
	assert.Equal(t, 2, uf.setSize(4))
	assert.Equal(t, 1, uf.setSize(5))

	root := uf.union(2, 4)
	assert.Equal(t, root, uf.find(3))
	assert.Equal(t, 5, uf.setSize(0))
	assert.Equal(t, root, uf.union(0, 3), "already joined")
}

func TestUnionFind_PathCompression(t *testing.T) {
	uf := newUnionFind(5)
	// build the chain 4 -> 3 -> 2 -> 1 -> 0 by hand
	for i := 1; i < 5; i++ {
		uf.parent[i] = i - 1
	}
	uf.size[0] = 5
	assert.Equal(t, 0, uf.find(4))
	for i := 1; i < 5; i++ {
		assert.Equal(t, 0, uf.parent[i], "element %d points at the root", i)
	}
}
