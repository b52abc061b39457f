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

package storage

import (
	"encoding/binary"
	"math"
)

// appendScalar encodes v little-endian at its datatype's fixed width.
func appendScalar[T any](buf []byte, v T) []byte {
	switch x := any(v).(type) {
	case int8:
		return append(buf, byte(x))
	case uint8:
		return append(buf, x)
	case int16:
		return binary.LittleEndian.AppendUint16(buf, uint16(x))
	case uint16:
		return binary.LittleEndian.AppendUint16(buf, x)
	case int32:
		return binary.LittleEndian.AppendUint32(buf, uint32(x))
	case uint32:
		return binary.LittleEndian.AppendUint32(buf, x)
	case int64:
		return binary.LittleEndian.AppendUint64(buf, uint64(x))
	case uint64:
		return binary.LittleEndian.AppendUint64(buf, x)
	case float32:
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
	case float64:
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
	default:
		panic("unsupported scalar type")
	}
}

// decodeScalar reads one value from the start of buf, which must hold at
// least the datatype's width.
func decodeScalar[T any](buf []byte) T {
	var v T
	switch any(v).(type) {
	case int8:
		v = any(int8(buf[0])).(T)
	case uint8:
		v = any(buf[0]).(T)
	case int16:
		v = any(int16(binary.LittleEndian.Uint16(buf))).(T)
	case uint16:
		v = any(binary.LittleEndian.Uint16(buf)).(T)
	case int32:
		v = any(int32(binary.LittleEndian.Uint32(buf))).(T)
	case uint32:
		v = any(binary.LittleEndian.Uint32(buf)).(T)
	case int64:
		v = any(int64(binary.LittleEndian.Uint64(buf))).(T)
	case uint64:
		v = any(binary.LittleEndian.Uint64(buf)).(T)
	case float32:
		v = any(math.Float32frombits(binary.LittleEndian.Uint32(buf))).(T)
	case float64:
		v = any(math.Float64frombits(binary.LittleEndian.Uint64(buf))).(T)
	default:
		panic("unsupported scalar type")
	}
	return v
}
