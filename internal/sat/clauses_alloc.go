package sat

import (
	"math/bits"
	"sync"
)

// Number of slice pools.
const nPools = 4

// Capacities of at least lastCapa all go to the last pool.
const lastCapa = 1 << nPools

// Pools of slices with different capacities. pid files a capacity between 2^i
// and 2^(i+1)-1 inclusive under pool i, and every capacity of at least 2^k
// under the last pool k. Pool i creates new slices with a capacity of
// 2^(i+1); allocSlice replaces any pooled slice too small for the request.
//
// The pools are initiated by the init function below.
var pools = [nPools]sync.Pool{}

func init() {
	for i := 0; i < nPools; i++ {
		capa := 1 << (i + 1)
		pools[i].New = func() any {
			s := make([]Literal, 0, capa)
			return &s
		}
	}
}

// pid returns the ID of the pool responsible for slice of the given capacity.
func pid(capa int) int {
	if capa >= lastCapa {
		return nPools - 1
	}
	pid := bits.Len(uint(capa)) - 1
	if capa < (1 << pid) {
		pid--
	}
	return pid
}

// allocSlice returns an empty slice that has at least the requested capacity.
func allocSlice(capa int) *[]Literal {
	ref := pools[pid(capa)].Get().(*[]Literal)

	// A pooled slice can be smaller than requested: the last pool holds every
	// large capacity, and freeSlice files a slice by its own capacity, which
	// can sit below the top of its pool's band. Such a slice is dropped and
	// replaced with a newly allocated slice that has the requested capacity.
	if cap(*ref) < capa {
		s := make([]Literal, 0, capa)
		ref = &s
	}

	return ref
}

// freeSlice returns the reference slice so that it can be allocated to another
// clause via allocSlice.
func freeSlice(s *[]Literal) {
	*s = (*s)[:0] // reset the size
	pools[pid(cap(*s))].Put(s)
}
