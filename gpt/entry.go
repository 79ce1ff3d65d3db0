package gpt

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
)

// nativeEntrySize is the fixed 128-byte entry layout this engine decodes;
// a disk's declared entry_size may be a larger power-of-two multiple of
// 128, in which case the extra bytes per entry are reserved and ignored.
const nativeEntrySize = 128

// GptEntry is one partition record. Field layout matches
// ext4/gpt/types.go's PartitionEntry.
type GptEntry struct {
	TypeGUID   GptGuid
	UniqueGUID GptGuid
	FirstLBA   uint64
	LastLBA    uint64
	Attributes uint64
	NameUTF16  [72]byte
}

// IsUnused reports whether e is an all-zero entry slot.
func (e *GptEntry) IsUnused() bool {
	return e.TypeGUID == ZeroGUID
}

// decodeEntry reads one GptEntry from its first 128 bytes; any trailing
// bytes up to the disk's declared entry_size are reserved and ignored.
func decodeEntry(buf []byte) (*GptEntry, error) {
	if len(buf) < nativeEntrySize {
		return nil, newError(BadPartitionTable, "entry buffer too short: %d bytes", len(buf))
	}
	var e GptEntry
	if err := binary.Read(bytes.NewReader(buf[:nativeEntrySize]), binary.LittleEndian, &e); err != nil {
		return nil, wrapError(BadPartitionTable, err, "decode partition entry")
	}
	return &e, nil
}

func encodeEntry(e *GptEntry) ([]byte, error) {
	return encodeStruct(e)
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeName converts a 72-byte UTF-16LE partition name (36 code units) to a
// UTF-8 string, trimming the trailing NUL padding. Spec §1 scopes the
// UTF-16LE→UTF-8 converter itself out as an external collaborator; this
// package supplies golang.org/x/text/encoding/unicode for that role, the
// same dependency siderolabs/go-blockdevice's GPT reader uses.
func decodeName(raw [72]byte) (string, error) {
	out, err := utf16le.NewDecoder().Bytes(raw[:])
	if err != nil {
		return "", wrapError(BadPartitionTable, err, "decode partition name")
	}
	return string(bytes.TrimRight(out, "\x00")), nil
}

// encodeName converts a UTF-8 string into a 72-byte, NUL-padded UTF-16LE
// partition name. It fails if name doesn't fit: up to 36 UTF-16 code units
// (72 bytes) are accepted, with no room reserved for a NUL terminator.
func encodeName(name string) ([72]byte, error) {
	var out [72]byte
	encoded, err := utf16le.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return out, wrapError(BadArgument, err, "encode partition name %q", name)
	}
	if len(encoded) > len(out) {
		return out, newError(BadArgument, "partition name %q too long for 72-byte field", name)
	}
	copy(out[:], encoded)
	return out, nil
}
