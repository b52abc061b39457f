//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2024 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package geometry

import "github.com/weaviate/tilestore/entities/schema"

// OverlapKind classifies the intersection of two rectangles.
type OverlapKind uint8

const (
	// OverlapNone: the rectangles do not intersect.
	OverlapNone OverlapKind = iota
	// OverlapFull: b lies entirely inside a.
	OverlapFull
	// OverlapPartial: b sticks out of a, and the overlap does not form a
	// contiguous range under the cell order.
	OverlapPartial
	// OverlapPartialContig: b sticks out of a, but only along the
	// slowest-varying dimension, so the overlap is contiguous under the
	// cell order.
	OverlapPartialContig
)

func (k OverlapKind) String() string {
	switch k {
	case OverlapNone:
		return "none"
	case OverlapFull:
		return "full"
	case OverlapPartial:
		return "partial"
	case OverlapPartialContig:
		return "partial-contiguous"
	default:
		return "unknown"
	}
}

// SubarrayOverlap intersects rectangles a and b and classifies the result.
// The returned rectangle is only meaningful when the kind is not
// OverlapNone.
func (d *Domain[T]) SubarrayOverlap(a, b []T) (OverlapKind, []T, error) {
	if err := d.checkRect(a); err != nil {
		return OverlapNone, nil, err
	}
	if err := d.checkRect(b); err != nil {
		return OverlapNone, nil, err
	}

	overlap := make([]T, 2*d.dimNum)
	for i := 0; i < d.dimNum; i++ {
		overlap[2*i] = maxOf(a[2*i], b[2*i])
		overlap[2*i+1] = minOf(a[2*i+1], b[2*i+1])
		if overlap[2*i] > overlap[2*i+1] {
			return OverlapNone, nil, nil
		}
	}

	kind := OverlapFull
	for i := 0; i < 2*d.dimNum; i++ {
		if overlap[i] != b[i] {
			kind = OverlapPartial
			break
		}
	}

	// A partial overlap is contiguous when every dimension except the
	// slowest-varying one covers b entirely: the overlap is then one
	// unbroken range of b's cells under the cell order.
	if kind == OverlapPartial {
		kind = OverlapPartialContig
		switch d.cellOrder {
		case schema.LayoutRowMajor:
			for i := 1; i < d.dimNum; i++ {
				if overlap[2*i] != b[2*i] || overlap[2*i+1] != b[2*i+1] {
					kind = OverlapPartial
					break
				}
			}
		case schema.LayoutColMajor:
			for i := d.dimNum - 2; i >= 0; i-- {
				if overlap[2*i] != b[2*i] || overlap[2*i+1] != b[2*i+1] {
					kind = OverlapPartial
					break
				}
			}
		default:
			// a Hilbert order has no contiguous rectangle ranges
			kind = OverlapPartial
		}
	}

	return kind, overlap, nil
}

func maxOf[T schema.Scalar](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func minOf[T schema.Scalar](a, b T) T {
	if a < b {
		return a
	}
	return b
}
