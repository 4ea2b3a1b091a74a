package wire

import "encoding/binary"

// EncodeSpawn builds an entity-spawn frame: 0xFF, the fully-qualified
// type name (proxy prefix stripped by the caller), the network-object-id,
// and the owner-client-id.
func EncodeSpawn(typeName string, id, owner uint32) []byte {
	buf := make([]byte, 0, 1+1+len(typeName)+8)
	buf = append(buf, Spawn)
	buf = putString(buf, typeName)
	buf = binary.LittleEndian.AppendUint32(buf, id)
	buf = binary.LittleEndian.AppendUint32(buf, owner)
	return buf
}

// DecodeSpawn reads a spawn frame's payload. The caller is expected to
// have already checked data[0] == Spawn.
func DecodeSpawn(data []byte) (typeName string, id, owner uint32, err error) {
	if len(data) < 1 || data[0] != Spawn {
		return "", 0, 0, ErrMalformedFrame
	}
	typeName, off, err := readString(data, 1)
	if err != nil {
		return "", 0, 0, err
	}
	if off+8 > len(data) {
		return "", 0, 0, ErrTruncated
	}
	id = binary.LittleEndian.Uint32(data[off:])
	owner = binary.LittleEndian.Uint32(data[off+4:])
	return typeName, id, owner, nil
}
