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

package array

import (
	"context"

	"github.com/pkg/errors"

	"github.com/weaviate/tilestore/adapters/repos/array/consolidation"
	"github.com/weaviate/tilestore/adapters/repos/array/fragtree"
	"github.com/weaviate/tilestore/entities/schema"
)

// Handle is the datatype-erased view of an open array, for callers like
// the admin CLI that inspect arrays without knowing their coordinate type
// at compile time.
type Handle interface {
	ArrayName() string
	Datatype() schema.Datatype
	DimensionNames() []string
	AttributeNames() []string
	FragmentNames() []string
	NextFragmentName() string
	Tree() *fragtree.Tree
	CommitFragment(ctx context.Context) error
}

// OpenAny loads the array in dir, discovering the coordinate datatype
// from the persisted schema.
func OpenAny(dir string, opts ...Option) (Handle, error) {
	data, err := readSchema(dir)
	if err != nil {
		return nil, err
	}

	dt, err := schema.PeekDatatype(data)
	if err != nil {
		return nil, errors.Wrapf(err, "array %q", dir)
	}

	o := applyOptions(opts)
	switch dt {
	case schema.DatatypeInt8:
		return openHandle[int8](dir, data, o)
	case schema.DatatypeUint8:
		return openHandle[uint8](dir, data, o)
	case schema.DatatypeInt16:
		return openHandle[int16](dir, data, o)
	case schema.DatatypeUint16:
		return openHandle[uint16](dir, data, o)
	case schema.DatatypeInt32:
		return openHandle[int32](dir, data, o)
	case schema.DatatypeUint32:
		return openHandle[uint32](dir, data, o)
	case schema.DatatypeInt64:
		return openHandle[int64](dir, data, o)
	case schema.DatatypeUint64:
		return openHandle[uint64](dir, data, o)
	case schema.DatatypeFloat32:
		return openHandle[float32](dir, data, o)
	case schema.DatatypeFloat64:
		return openHandle[float64](dir, data, o)
	default:
		return nil, errors.Wrapf(schema.ErrInvalidSchema, "unknown datatype %d", dt)
	}
}

type handle[T schema.Scalar] struct {
	*consolidation.Array[T]
}

func openHandle[T schema.Scalar](dir string, data []byte, o options) (Handle, error) {
	a, err := open[T](dir, data, o)
	if err != nil {
		return nil, err
	}
	return handle[T]{a}, nil
}

func (h handle[T]) ArrayName() string {
	return h.Schema().ArrayName
}

func (h handle[T]) Datatype() schema.Datatype {
	return h.Schema().Datatype()
}

func (h handle[T]) DimensionNames() []string {
	dims := h.Schema().Dimensions
	out := make([]string, len(dims))
	for i, d := range dims {
		out[i] = d.Name
	}
	return out
}

func (h handle[T]) AttributeNames() []string {
	attrs := h.Schema().Attributes
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.Name
	}
	return out
}
