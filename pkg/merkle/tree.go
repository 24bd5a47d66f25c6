package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// Tree is a fixed-capacity hash tree over bucketed leaf digests. The root
// changes whenever any bucket changes, so comparing two roots is a constant
// time equality check over the whole keyspace.
//
// Nodes are stored as a flat heap array: root at 0, children of i at 2i+1 and
// 2i+2. An empty bucket is the empty string; a parent of two empty children is
// itself empty, so an empty tree has an empty root.
type Tree struct {
	mu      sync.RWMutex
	nodes   []string
	buckets int
}

// New creates a tree with the given number of leaf buckets.
// buckets must be a power of two, at least 2.
func New(buckets int) (*Tree, error) {
	if buckets < 2 || buckets&(buckets-1) != 0 {
		return nil, fmt.Errorf("bucket count must be a power of 2 and >= 2, got %d", buckets)
	}
	return &Tree{
		nodes:   make([]string, 2*buckets-1),
		buckets: buckets,
	}, nil
}

// SetBucket replaces one leaf digest and recomputes the path to the root.
func (t *Tree) SetBucket(bucket int, digest string) error {
	if bucket < 0 || bucket >= t.buckets {
		return fmt.Errorf("bucket %d out of range [0,%d)", bucket, t.buckets)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.buckets - 1 + bucket
	t.nodes[idx] = digest

	for idx > 0 {
		parent := (idx - 1) / 2
		t.nodes[parent] = combine(t.nodes[2*parent+1], t.nodes[2*parent+2])
		idx = parent
	}
	return nil
}

// Root returns the current root digest. Empty when no bucket is set.
func (t *Tree) Root() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes[0]
}

// Buckets returns the leaf capacity.
func (t *Tree) Buckets() int {
	return t.buckets
}

func combine(left, right string) string {
	if left == "" && right == "" {
		return ""
	}
	h := sha256.New()
	h.Write([]byte(left))
	h.Write([]byte(right))
	return hex.EncodeToString(h.Sum(nil))
}
