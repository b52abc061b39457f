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

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// FileName is the name of the schema file inside an array directory.
const FileName = "schema.json"

// Bounds and extents round-trip through json.Number so that 64-bit integer
// coordinates survive without float64 precision loss.
type dimensionJSON struct {
	Name       string         `json:"name"`
	Domain     [2]json.Number `json:"domain"`
	TileExtent *json.Number   `json:"tile_extent,omitempty"`
}

type schemaJSON struct {
	ArrayName         string          `json:"array_name"`
	Datatype          Datatype        `json:"datatype"`
	Dimensions        []dimensionJSON `json:"dimensions"`
	Attributes        []Attribute     `json:"attributes"`
	CellOrder         Layout          `json:"cell_order"`
	TileOrder         Layout          `json:"tile_order"`
	Capacity          uint64          `json:"capacity"`
	ConsolidationStep int             `json:"consolidation_step"`
}

func Marshal[T Scalar](s *ArraySchema[T]) ([]byte, error) {
	out := schemaJSON{
		ArrayName:         s.ArrayName,
		Datatype:          DatatypeOf[T](),
		Attributes:        s.Attributes,
		CellOrder:         s.CellOrder,
		TileOrder:         s.TileOrder,
		Capacity:          s.Capacity,
		ConsolidationStep: s.ConsolidationStep,
	}
	for i := range s.Dimensions {
		dim := &s.Dimensions[i]
		dj := dimensionJSON{
			Name:   dim.Name,
			Domain: [2]json.Number{formatScalar(dim.Lo), formatScalar(dim.Hi)},
		}
		if dim.TileExtent != nil {
			extent := formatScalar(*dim.TileExtent)
			dj.TileExtent = &extent
		}
		out.Dimensions = append(out.Dimensions, dj)
	}
	return json.MarshalIndent(out, "", "  ")
}

func Unmarshal[T Scalar](data []byte) (*ArraySchema[T], error) {
	var in schemaJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errors.Wrap(err, "parse array schema")
	}

	if want := DatatypeOf[T](); in.Datatype != want {
		return nil, errors.Wrapf(ErrDatatypeMismatch,
			"schema declares %s, opened as %s", in.Datatype, want)
	}

	out := &ArraySchema[T]{
		ArrayName:         in.ArrayName,
		Attributes:        in.Attributes,
		CellOrder:         in.CellOrder,
		TileOrder:         in.TileOrder,
		Capacity:          in.Capacity,
		ConsolidationStep: in.ConsolidationStep,
	}
	for _, dj := range in.Dimensions {
		dim := Dimension[T]{Name: dj.Name}
		var err error
		if dim.Lo, err = parseScalar[T](dj.Domain[0]); err != nil {
			return nil, errors.Wrapf(err, "dimension %q lower bound", dj.Name)
		}
		if dim.Hi, err = parseScalar[T](dj.Domain[1]); err != nil {
			return nil, errors.Wrapf(err, "dimension %q upper bound", dj.Name)
		}
		if dj.TileExtent != nil {
			extent, err := parseScalar[T](*dj.TileExtent)
			if err != nil {
				return nil, errors.Wrapf(err, "dimension %q tile extent", dj.Name)
			}
			dim.TileExtent = &extent
		}
		out.Dimensions = append(out.Dimensions, dim)
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// PeekDatatype extracts only the datatype tag, so a caller can pick the
// right Scalar instantiation before unmarshalling the full schema.
func PeekDatatype(data []byte) (Datatype, error) {
	var peek struct {
		Datatype Datatype `json:"datatype"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return 0, errors.Wrap(err, "parse array schema")
	}
	return peek.Datatype, nil
}

func formatScalar[T Scalar](v T) json.Number {
	switch n := any(v).(type) {
	case int8:
		return json.Number(strconv.FormatInt(int64(n), 10))
	case int16:
		return json.Number(strconv.FormatInt(int64(n), 10))
	case int32:
		return json.Number(strconv.FormatInt(int64(n), 10))
	case int64:
		return json.Number(strconv.FormatInt(n, 10))
	case uint8:
		return json.Number(strconv.FormatUint(uint64(n), 10))
	case uint16:
		return json.Number(strconv.FormatUint(uint64(n), 10))
	case uint32:
		return json.Number(strconv.FormatUint(uint64(n), 10))
	case uint64:
		return json.Number(strconv.FormatUint(n, 10))
	case float32:
		return json.Number(strconv.FormatFloat(float64(n), 'g', -1, 32))
	case float64:
		return json.Number(strconv.FormatFloat(n, 'g', -1, 64))
	default:
		panic("schema: unsupported scalar instantiation")
	}
}

func parseScalar[T Scalar](n json.Number) (T, error) {
	var out T
	var err error
	switch p := any(&out).(type) {
	case *int8:
		var v int64
		if v, err = strconv.ParseInt(n.String(), 10, 8); err == nil {
			*p = int8(v)
		}
	case *int16:
		var v int64
		if v, err = strconv.ParseInt(n.String(), 10, 16); err == nil {
			*p = int16(v)
		}
	case *int32:
		var v int64
		if v, err = strconv.ParseInt(n.String(), 10, 32); err == nil {
			*p = int32(v)
		}
	case *int64:
		*p, err = strconv.ParseInt(n.String(), 10, 64)
	case *uint8:
		var v uint64
		if v, err = strconv.ParseUint(n.String(), 10, 8); err == nil {
			*p = uint8(v)
		}
	case *uint16:
		var v uint64
		if v, err = strconv.ParseUint(n.String(), 10, 16); err == nil {
			*p = uint16(v)
		}
	case *uint32:
		var v uint64
		if v, err = strconv.ParseUint(n.String(), 10, 32); err == nil {
			*p = uint32(v)
		}
	case *uint64:
		*p, err = strconv.ParseUint(n.String(), 10, 64)
	case *float32:
		var v float64
		if v, err = strconv.ParseFloat(n.String(), 32); err == nil {
			*p = float32(v)
		}
	case *float64:
		*p, err = strconv.ParseFloat(n.String(), 64)
	default:
		panic("schema: unsupported scalar instantiation")
	}
	if err != nil {
		return out, errors.Wrapf(err, "parse %q", n.String())
	}
	return out, nil
}
