package wire

import (
	"encoding/binary"
	"errors"
)

// Discriminator is the leading byte of every frame. Any value outside
// the closed control set is the first byte of an RPC frame's
// length-prefixed method name.
type Discriminator = byte

const (
	// Handshake is a connection handshake ping; ignored on receipt
	// beyond being routed away from RPC/spawn handling.
	Handshake Discriminator = 0x00
	// ClientAssign carries the 4-byte little-endian client-id assigned
	// to the receiving peer.
	ClientAssign Discriminator = 0x01
	// Spawn marks an entity-spawn frame.
	Spawn Discriminator = 0xFF
)

// ErrMalformedFrame is returned for control/spawn frames whose length or
// leading byte does not match the frame kind being decoded.
var ErrMalformedFrame = errors.New("wire: malformed control frame")

// EncodeClientAssign builds the 5-byte client-id assignment control
// frame sent by the host to a newly connected peer.
func EncodeClientAssign(id uint32) []byte {
	buf := make([]byte, 5)
	buf[0] = ClientAssign
	binary.LittleEndian.PutUint32(buf[1:], id)
	return buf
}

// DecodeClientAssign reads the payload of a client-id assignment frame.
// The caller is expected to have already checked len(data) == 5 and
// data[0] == ClientAssign per the §4.5 classification rule.
func DecodeClientAssign(data []byte) (uint32, error) {
	if len(data) != 5 || data[0] != ClientAssign {
		return 0, ErrMalformedFrame
	}
	return binary.LittleEndian.Uint32(data[1:]), nil
}

// EncodeHandshake builds the single-byte handshake ping frame.
func EncodeHandshake() []byte {
	return []byte{Handshake}
}

// IsHandshake reports whether data is the single-byte handshake ping.
func IsHandshake(data []byte) bool {
	return len(data) == 1 && data[0] == Handshake
}

// IsClientAssign reports whether data is a client-id assignment frame,
// per the §4.5 classification rule (length 5, leading byte 0x01).
func IsClientAssign(data []byte) bool {
	return len(data) == 5 && data[0] == ClientAssign
}

// IsSpawn reports whether data is an entity-spawn frame.
func IsSpawn(data []byte) bool {
	return len(data) >= 1 && data[0] == Spawn
}
