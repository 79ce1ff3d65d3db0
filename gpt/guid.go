package gpt

import (
	"fmt"

	"github.com/Microsoft/go-winio/pkg/guid"
)

// GptGuid is the on-disk 16-byte GUID layout: Data1 (uint32 LE), Data2
// (uint16 LE), Data3 (uint16 LE), Data4 (8 raw bytes). This is exactly the
// layout github.com/Microsoft/go-winio/pkg/guid.GUID decodes into, so it is
// reused directly rather than re-deriving the same mixed-endian struct.
type GptGuid = guid.GUID

// ZeroGUID is the all-zero GUID used to mark unused partition entries.
var ZeroGUID GptGuid

// guidToStr renders g as xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx: the first
// three groups come from the host-order values decoded from their
// little-endian on-disk fields, the last two groups are Data4's raw bytes
// in order.
func guidToStr(g GptGuid) string {
	return fmt.Sprintf("%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1],
		g.Data4[2], g.Data4[3], g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

// GuidToStr formats a GUID per the public API in spec §6.
func GuidToStr(g GptGuid) string { return guidToStr(g) }

// parseGUID is the inverse of guidToStr, used by tests to exercise the
// round-trip property spec §8 requires.
func parseGUID(s string) (GptGuid, error) {
	var g GptGuid
	var d4 [6]byte
	n, err := fmt.Sscanf(s, "%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		&g.Data1, &g.Data2, &g.Data3,
		&g.Data4[0], &g.Data4[1],
		&d4[0], &d4[1], &d4[2], &d4[3], &d4[4], &d4[5])
	if err != nil || n != 11 {
		return GptGuid{}, newError(BadArgument, "invalid GUID string %q", s)
	}
	copy(g.Data4[2:], d4[:])
	return g, nil
}
