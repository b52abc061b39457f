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

// Layout is a traversal order over a multi-dimensional lattice. It is used
// both for the order of cells within a tile and for the order of tiles
// within the domain. Hilbert is only meaningful as a cell order.
type Layout uint8

const (
	LayoutRowMajor Layout = iota
	LayoutColMajor
	LayoutHilbert
)

func (l Layout) String() string {
	switch l {
	case LayoutRowMajor:
		return "row-major"
	case LayoutColMajor:
		return "col-major"
	case LayoutHilbert:
		return "hilbert"
	default:
		return "unknown"
	}
}

func (l Layout) Valid() bool {
	return l == LayoutRowMajor || l == LayoutColMajor || l == LayoutHilbert
}

func ParseLayout(in string) (Layout, error) {
	switch in {
	case "row-major":
		return LayoutRowMajor, nil
	case "col-major":
		return LayoutColMajor, nil
	case "hilbert":
		return LayoutHilbert, nil
	default:
		return 0, errors.Errorf("unrecognized layout %q", in)
	}
}

func (l Layout) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, errors.Errorf("cannot marshal unknown layout %d", l)
	}
	return []byte(l.String()), nil
}

func (l *Layout) UnmarshalText(text []byte) error {
	parsed, err := ParseLayout(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
