package kdtree

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/transient/types"
)

// When enabled, query entry points assert that ray origins and directions
// are finite. Normal builds leave this off and inherit whatever the caller
// passes in.
const strictValidation = false

func checkRay(r *types.Ray) {
	for axis := 0; axis < 3; axis++ {
		if math32.IsNaN(r.Origin[axis]) || math32.IsInf(r.Origin[axis], 0) ||
			math32.IsNaN(r.Dir[axis]) || math32.IsInf(r.Dir[axis], 0) {
			panic("kdtree: non-finite ray origin or direction")
		}
	}
}
