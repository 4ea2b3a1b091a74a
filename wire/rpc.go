package wire

import (
	"encoding/binary"
	"fmt"
)

// EncodeRPC builds an RPC invocation frame: the method name, the target
// network-object-id, a param count, then each parameter tagged with its
// wire type.
func EncodeRPC(method string, id uint32, params []any) ([]byte, error) {
	buf := putString(nil, method)
	buf = binary.LittleEndian.AppendUint32(buf, id)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(params)))
	var err error
	for _, p := range params {
		buf, err = encodeParam(buf, p)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// DecodeRPC parses an RPC invocation frame produced by EncodeRPC. The
// caller is expected to have already ruled out the control and spawn
// discriminators per the §4.5 classification rule.
func DecodeRPC(data []byte) (method string, id uint32, params []Value, err error) {
	method, off, err := readString(data, 0)
	if err != nil {
		return "", 0, nil, err
	}
	if off+8 > len(data) {
		return "", 0, nil, ErrTruncated
	}
	id = binary.LittleEndian.Uint32(data[off:])
	count := binary.LittleEndian.Uint32(data[off+4:])
	off += 8

	if count > 1<<16 {
		return "", 0, nil, fmt.Errorf("wire: implausible param count %d", count)
	}

	params = make([]Value, 0, count)
	for i := uint32(0); i < count; i++ {
		var v Value
		v, off, err = decodeParam(data, off)
		if err != nil {
			return "", 0, nil, err
		}
		params = append(params, v)
	}
	return method, id, params, nil
}
