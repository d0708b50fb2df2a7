package kdtree

import "sync/atomic"

// Stats holds the query counters of a tree. Counters are owned by the tree
// instance and only ever increase; they are informational and have no
// behavioral effect.
type Stats struct {
	RaysTraced        uint64
	ShadowRaysTraced  uint64
	CoherentPackets   uint64
	IncoherentPackets uint64
}

// Get a snapshot of the tree query counters.
func (t *Tree) Stats() Stats {
	return Stats{
		RaysTraced:        atomic.LoadUint64(&t.stats.RaysTraced),
		ShadowRaysTraced:  atomic.LoadUint64(&t.stats.ShadowRaysTraced),
		CoherentPackets:   atomic.LoadUint64(&t.stats.CoherentPackets),
		IncoherentPackets: atomic.LoadUint64(&t.stats.IncoherentPackets),
	}
}
