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

package schema

import "github.com/pkg/errors"

// Scalar is the closed set of coordinate and attribute kinds an array may
// use. Every dimension of a domain shares a single Scalar instantiation.
type Scalar interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

type Datatype uint8

const (
	DatatypeInt8 Datatype = iota
	DatatypeInt16
	DatatypeInt32
	DatatypeInt64
	DatatypeUint8
	DatatypeUint16
	DatatypeUint32
	DatatypeUint64
	DatatypeFloat32
	DatatypeFloat64
)

var datatypeNames = map[Datatype]string{
	DatatypeInt8:    "int8",
	DatatypeInt16:   "int16",
	DatatypeInt32:   "int32",
	DatatypeInt64:   "int64",
	DatatypeUint8:   "uint8",
	DatatypeUint16:  "uint16",
	DatatypeUint32:  "uint32",
	DatatypeUint64:  "uint64",
	DatatypeFloat32: "float32",
	DatatypeFloat64: "float64",
}

func (d Datatype) String() string {
	if name, ok := datatypeNames[d]; ok {
		return name
	}
	return "unknown"
}

func (d Datatype) Valid() bool {
	_, ok := datatypeNames[d]
	return ok
}

// Size returns the encoded size of one value in bytes.
func (d Datatype) Size() int {
	switch d {
	case DatatypeInt8, DatatypeUint8:
		return 1
	case DatatypeInt16, DatatypeUint16:
		return 2
	case DatatypeInt32, DatatypeUint32, DatatypeFloat32:
		return 4
	case DatatypeInt64, DatatypeUint64, DatatypeFloat64:
		return 8
	default:
		return 0
	}
}

func ParseDatatype(in string) (Datatype, error) {
	for d, name := range datatypeNames {
		if name == in {
			return d, nil
		}
	}
	return 0, errors.Errorf("unrecognized datatype %q", in)
}

func (d Datatype) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, errors.Errorf("cannot marshal unknown datatype %d", d)
	}
	return []byte(d.String()), nil
}

func (d *Datatype) UnmarshalText(text []byte) error {
	parsed, err := ParseDatatype(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DatatypeOf maps a Scalar instantiation back onto its Datatype tag. This is
// the single point where the static and the dynamic view of coordinate kinds
// meet.
func DatatypeOf[T Scalar]() Datatype {
	var zero T
	switch any(zero).(type) {
	case int8:
		return DatatypeInt8
	case int16:
		return DatatypeInt16
	case int32:
		return DatatypeInt32
	case int64:
		return DatatypeInt64
	case uint8:
		return DatatypeUint8
	case uint16:
		return DatatypeUint16
	case uint32:
		return DatatypeUint32
	case uint64:
		return DatatypeUint64
	case float32:
		return DatatypeFloat32
	case float64:
		return DatatypeFloat64
	default:
		// named types with a Scalar underlying kind are not supported as
		// on-disk coordinate kinds
		panic("schema: unsupported scalar instantiation")
	}
}
