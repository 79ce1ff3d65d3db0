package gpt

import (
	"bytes"
	"encoding/binary"
)

const (
	// pmbrSignature is the legacy MBR boot signature at offset 0x1FE.
	pmbrSignature uint16 = 0xAA55
	// pmbrProtectiveOSType marks a partition record as covering the whole
	// GPT disk for legacy tools that don't understand GPT.
	pmbrProtectiveOSType uint8 = 0xEE
)

// PartitionRecordMBR is one of the four primary partition records in a
// legacy MBR.
type PartitionRecordMBR struct {
	BootIndicator uint8
	StartingCHS   [3]byte
	OSType        uint8
	EndingCHS     [3]byte
	StartingLBA   uint32
	SizeInLBA     uint32
}

// PMBR is the legacy MBR occupying sector 0 of a GPT disk.
type PMBR struct {
	BootCode       [440]byte
	DiskSignature  uint32
	Unknown        uint16
	PartitionEntry [4]PartitionRecordMBR
	Signature      uint16
}

// DecodePMBR parses the 512-byte legacy MBR sector.
func DecodePMBR(sector []byte) (*PMBR, error) {
	if len(sector) < binary.Size(PMBR{}) {
		return nil, newError(BadPartitionTable, "pmbr sector too short: %d bytes", len(sector))
	}
	var m PMBR
	if err := binary.Read(bytes.NewReader(sector), binary.LittleEndian, &m); err != nil {
		return nil, wrapError(BadPartitionTable, err, "decode pmbr")
	}
	return &m, nil
}

// IsProtective reports whether m is a protective MBR: its boot signature is
// 0xAA55 and at least one of its four primary partition entries has type
// 0xEE. Per spec §4.4, a non-protective MBR is not fatal to loading a GPT —
// this only decides whether the PROTECTIVE_MBR status bit is set.
func (m *PMBR) IsProtective() bool {
	if m.Signature != pmbrSignature {
		return false
	}
	for _, p := range m.PartitionEntry {
		if p.OSType == pmbrProtectiveOSType {
			return true
		}
	}
	return false
}

// pmbrCheck reports a structural error only when m cannot be a legacy MBR at
// all (bad boot signature); it does not require m to be protective — that
// distinction is carried by IsProtective and the PROTECTIVE_MBR status bit.
func pmbrCheck(m *PMBR) error {
	if m.Signature != pmbrSignature {
		return newError(BadPartitionTable, "invalid MBR boot signature %#04x", m.Signature)
	}
	return nil
}

// PmbrCheck is the public API entry named in spec §6.
func PmbrCheck(m *PMBR) error { return pmbrCheck(m) }
