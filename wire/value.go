// Package wire implements the frame codec: RPC invocations, entity
// spawns, and control frames, all little-endian, with a closed table of
// scalar/vector parameter types and a JSON fallback for everything else.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
)

// Type-id byte values from the closed parameter table. 0 is null, 255
// is the JSON fallback; everything else not in this table is a decode
// error.
const (
	TypeNull    byte = 0
	TypeBool    byte = 1
	TypeU8      byte = 2
	TypeI8      byte = 3
	TypeI16     byte = 4
	TypeU16     byte = 5
	TypeI32     byte = 6
	TypeU32     byte = 7
	TypeI64     byte = 8
	TypeU64     byte = 9
	TypeF32     byte = 10
	TypeF64     byte = 11
	TypeString  byte = 12
	TypeVector2 byte = 13
	TypeVector3 byte = 14
	TypeJSON    byte = 255
)

// ErrUnknownTypeID is returned when a decoded type-id byte falls
// outside the closed table and isn't the JSON fallback marker. Per
// spec, the frame that produced it must be dropped by the caller.
var ErrUnknownTypeID = errors.New("wire: unknown parameter type id")

// Vector2 is the wire representation of a 2-component float vector.
type Vector2 struct{ X, Y float32 }

// Vector3 is the wire representation of a 3-component float vector.
type Vector3 struct{ X, Y, Z float32 }

// Fallback carries a JSON-encoded value alongside the stand-in for the
// reference implementation's assembly-qualified type name, used when a
// runtime type isn't in the closed scalar/vector table.
type Fallback struct {
	TypeName string
	JSON     []byte
}

// Value is a decoded parameter: the wire type-id plus the Go value it
// decoded to. V is nil for TypeNull, a *Fallback for TypeJSON, and one
// of bool/uint8/int8/int16/uint16/int32/uint32/int64/uint64/float32/
// float64/string/Vector2/Vector3 otherwise.
type Value struct {
	TypeID byte
	V      any
}

// encodeParam appends the type-tagged encoding of v to buf.
func encodeParam(buf []byte, v any) ([]byte, error) {
	if v == nil {
		return append(buf, TypeNull), nil
	}
	switch x := v.(type) {
	case bool:
		buf = append(buf, TypeBool)
		if x {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case uint8:
		return append(buf, TypeU8, x), nil
	case int8:
		return append(buf, TypeI8, byte(x)), nil
	case int16:
		buf = append(buf, TypeI16)
		return binary.LittleEndian.AppendUint16(buf, uint16(x)), nil
	case uint16:
		buf = append(buf, TypeU16)
		return binary.LittleEndian.AppendUint16(buf, x), nil
	case int32:
		buf = append(buf, TypeI32)
		return binary.LittleEndian.AppendUint32(buf, uint32(x)), nil
	case uint32:
		buf = append(buf, TypeU32)
		return binary.LittleEndian.AppendUint32(buf, x), nil
	case int64:
		buf = append(buf, TypeI64)
		return binary.LittleEndian.AppendUint64(buf, uint64(x)), nil
	case uint64:
		buf = append(buf, TypeU64)
		return binary.LittleEndian.AppendUint64(buf, x), nil
	case float32:
		buf = append(buf, TypeF32)
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(x)), nil
	case float64:
		buf = append(buf, TypeF64)
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(x)), nil
	case string:
		buf = append(buf, TypeString)
		return putString(buf, x), nil
	case Vector2:
		buf = append(buf, TypeVector2)
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x.X))
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(x.Y)), nil
	case Vector3:
		buf = append(buf, TypeVector3)
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x.X))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x.Y))
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(x.Z)), nil
	default:
		return encodeFallback(buf, v)
	}
}

// encodeFallback marshals v to JSON under type-id 255, tagging it with
// a stand-in for the reference implementation's assembly-qualified
// type name so a peer that understands the type can round-trip it.
func encodeFallback(buf []byte, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: fallback encode of %T: %w", v, err)
	}
	buf = append(buf, TypeJSON)
	buf = putString(buf, fmt.Sprintf("%T", v))
	return putString(buf, string(data)), nil
}

// decodeParam reads one type-tagged parameter starting at off.
func decodeParam(data []byte, off int) (Value, int, error) {
	if off >= len(data) {
		return Value{}, 0, ErrTruncated
	}
	id := data[off]
	off++
	switch id {
	case TypeNull:
		return Value{TypeID: id}, off, nil
	case TypeBool:
		if off >= len(data) {
			return Value{}, 0, ErrTruncated
		}
		return Value{TypeID: id, V: data[off] != 0}, off + 1, nil
	case TypeU8:
		if off >= len(data) {
			return Value{}, 0, ErrTruncated
		}
		return Value{TypeID: id, V: data[off]}, off + 1, nil
	case TypeI8:
		if off >= len(data) {
			return Value{}, 0, ErrTruncated
		}
		return Value{TypeID: id, V: int8(data[off])}, off + 1, nil
	case TypeI16:
		if off+2 > len(data) {
			return Value{}, 0, ErrTruncated
		}
		return Value{TypeID: id, V: int16(binary.LittleEndian.Uint16(data[off:]))}, off + 2, nil
	case TypeU16:
		if off+2 > len(data) {
			return Value{}, 0, ErrTruncated
		}
		return Value{TypeID: id, V: binary.LittleEndian.Uint16(data[off:])}, off + 2, nil
	case TypeI32:
		if off+4 > len(data) {
			return Value{}, 0, ErrTruncated
		}
		return Value{TypeID: id, V: int32(binary.LittleEndian.Uint32(data[off:]))}, off + 4, nil
	case TypeU32:
		if off+4 > len(data) {
			return Value{}, 0, ErrTruncated
		}
		return Value{TypeID: id, V: binary.LittleEndian.Uint32(data[off:])}, off + 4, nil
	case TypeI64:
		if off+8 > len(data) {
			return Value{}, 0, ErrTruncated
		}
		return Value{TypeID: id, V: int64(binary.LittleEndian.Uint64(data[off:]))}, off + 8, nil
	case TypeU64:
		if off+8 > len(data) {
			return Value{}, 0, ErrTruncated
		}
		return Value{TypeID: id, V: binary.LittleEndian.Uint64(data[off:])}, off + 8, nil
	case TypeF32:
		if off+4 > len(data) {
			return Value{}, 0, ErrTruncated
		}
		return Value{TypeID: id, V: math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))}, off + 4, nil
	case TypeF64:
		if off+8 > len(data) {
			return Value{}, 0, ErrTruncated
		}
		return Value{TypeID: id, V: math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))}, off + 8, nil
	case TypeString:
		s, next, err := readString(data, off)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{TypeID: id, V: s}, next, nil
	case TypeVector2:
		if off+8 > len(data) {
			return Value{}, 0, ErrTruncated
		}
		x := math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:]))
		return Value{TypeID: id, V: Vector2{X: x, Y: y}}, off + 8, nil
	case TypeVector3:
		if off+12 > len(data) {
			return Value{}, 0, ErrTruncated
		}
		x := math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:]))
		z := math.Float32frombits(binary.LittleEndian.Uint32(data[off+8:]))
		return Value{TypeID: id, V: Vector3{X: x, Y: y, Z: z}}, off + 12, nil
	case TypeJSON:
		typeName, next, err := readString(data, off)
		if err != nil {
			return Value{}, 0, err
		}
		doc, next2, err := readString(data, next)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{TypeID: id, V: &Fallback{TypeName: typeName, JSON: []byte(doc)}}, next2, nil
	default:
		return Value{}, 0, ErrUnknownTypeID
	}
}

// Convert adapts a decoded Value to the declared parameter type want,
// applying the widening casts allowed by spec: pass through on exact
// match, widen i32->i64/f32->f64/integer->float, otherwise fail with a
// decode error. A null Value converts to the zero Value of want unless
// want is a pointer or interface, in which case it converts to nil.
func Convert(val Value, want reflect.Type) (reflect.Value, error) {
	if val.TypeID == TypeNull {
		switch want.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
			return reflect.Zero(want), nil
		default:
			return reflect.Zero(want), nil
		}
	}
	if val.TypeID == TypeJSON {
		fb, _ := val.V.(*Fallback)
		if fb == nil {
			return reflect.Value{}, errors.New("wire: malformed fallback value")
		}
		out := reflect.New(want)
		if err := json.Unmarshal(fb.JSON, out.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("wire: fallback decode into %s: %w", want, err)
		}
		return out.Elem(), nil
	}

	got := reflect.ValueOf(val.V)
	if got.Type() == want {
		return got, nil
	}

	switch {
	case got.Kind() == reflect.Int32 && want.Kind() == reflect.Int64:
		return reflect.ValueOf(int64(got.Int())).Convert(want), nil
	case got.Kind() == reflect.Float32 && want.Kind() == reflect.Float64:
		return reflect.ValueOf(float64(got.Float())).Convert(want), nil
	case isInteger(got.Kind()) && want.Kind() == reflect.Float32:
		return reflect.ValueOf(float32(asInt64(got))).Convert(want), nil
	case isInteger(got.Kind()) && want.Kind() == reflect.Float64:
		return reflect.ValueOf(float64(asInt64(got))).Convert(want), nil
	default:
		return reflect.Value{}, fmt.Errorf("wire: cannot convert %s to %s", got.Type(), want)
	}
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return true
	default:
		return false
	}
}

func asInt64(v reflect.Value) int64 {
	if v.CanInt() {
		return v.Int()
	}
	return int64(v.Uint())
}
