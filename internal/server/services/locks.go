package services

import (
	"hash/maphash"
	"sync"
)

const lockStripes = 64

// stripedLocks serializes writers of the same (owner, name) key. Distinct
// keys may share a stripe; that only costs parallelism.
type stripedLocks struct {
	seed    maphash.Seed
	stripes [lockStripes]sync.Mutex
}

func newStripedLocks() *stripedLocks {
	return &stripedLocks{seed: maphash.MakeSeed()}
}

func (l *stripedLocks) get(owner, name string) *sync.Mutex {
	var h maphash.Hash
	h.SetSeed(l.seed)
	h.WriteString(owner)
	h.WriteByte(0)
	h.WriteString(name)
	return &l.stripes[h.Sum64()&(lockStripes-1)]
}
