package gpt

import "testing"

// memDisk is a hand-written in-memory DiskAccess fake, in the spirit of
// ext4/gpt_test.go's plain table-driven style rather than a generated mock:
// there's no RPC boundary here to mock, just a byte slice to poke at.
type memDisk struct {
	data   []byte
	log2   uint8
	size   uint64
	sizeOK bool
}

func newMemDisk(sectors uint64, log2 uint8) *memDisk {
	return &memDisk{
		data:   make([]byte, sectors<<log2),
		log2:   log2,
		size:   sectors,
		sizeOK: true,
	}
}

func (d *memDisk) ReadAt(byteOffset int64, length int) ([]byte, error) {
	if byteOffset < 0 || int(byteOffset)+length > len(d.data) {
		return nil, newError(OutOfRange, "memDisk read out of range: offset %d length %d size %d", byteOffset, length, len(d.data))
	}
	out := make([]byte, length)
	copy(out, d.data[byteOffset:int(byteOffset)+length])
	return out, nil
}

func (d *memDisk) WriteAt(byteOffset int64, data []byte) error {
	if byteOffset < 0 || int(byteOffset)+len(data) > len(d.data) {
		return newError(OutOfRange, "memDisk write out of range: offset %d length %d size %d", byteOffset, len(data), len(d.data))
	}
	copy(d.data[byteOffset:int(byteOffset)+len(data)], data)
	return nil
}

func (d *memDisk) LogicalSectorSizeLog2() uint8 { return d.log2 }

func (d *memDisk) TotalSectors() (uint64, bool) { return d.size, d.sizeOK }

// grow extends the backing buffer, simulating a disk that grew since its
// GPT was last written.
func (d *memDisk) grow(newSectors uint64) {
	buf := make([]byte, newSectors<<d.log2)
	copy(buf, d.data)
	d.data = buf
	d.size = newSectors
}

// buildValidDisk constructs a minimal, fully self-consistent GPT disk image
// in memory: protective MBR, one partition entry, matching primary and
// backup copies. totalSectors must leave room for at least
// minEntriesTableBytes worth of entries on both ends.
func buildValidDisk(t testing.TB, totalSectors uint64) *memDisk {
	t.Helper()
	const log2 = 9
	d := newMemDisk(totalSectors, log2)

	pmbr := PMBR{Signature: pmbrSignature}
	pmbr.PartitionEntry[0] = PartitionRecordMBR{OSType: pmbrProtectiveOSType, StartingLBA: 1, SizeInLBA: uint32(totalSectors - 1)}
	pmbrBuf, err := encodeStruct(&pmbr)
	if err != nil {
		t.Fatalf("encode pmbr: %v", err)
	}
	sector := make([]byte, 1<<log2)
	copy(sector, pmbrBuf)
	if err := d.WriteAt(0, sector); err != nil {
		t.Fatalf("write pmbr: %v", err)
	}

	entriesSectors := sizeToSectors(minEntriesTableBytes, log2)
	firstUsable := 2 + entriesSectors
	lastUsable := totalSectors - 1 - entriesSectors - 1

	diskGUID, err := parseGUID("01234567-89AB-CDEF-0123-456789ABCDEF")
	if err != nil {
		t.Fatalf("parseGUID: %v", err)
	}
	partType, err := parseGUID("0FC63DAF-8483-4772-8E79-3D69D8477DE4")
	if err != nil {
		t.Fatalf("parseGUID: %v", err)
	}
	partUnique, err := parseGUID("11111111-2222-3333-4444-555555555555")
	if err != nil {
		t.Fatalf("parseGUID: %v", err)
	}

	entries := make([]byte, minEntriesTableBytes)
	name, err := encodeName("root")
	if err != nil {
		t.Fatalf("encodeName: %v", err)
	}
	e := GptEntry{
		TypeGUID:   partType,
		UniqueGUID: partUnique,
		FirstLBA:   firstUsable,
		LastLBA:    firstUsable + 100,
		Attributes: 0,
		NameUTF16:  name,
	}
	eb, err := encodeEntry(&e)
	if err != nil {
		t.Fatalf("encodeEntry: %v", err)
	}
	copy(entries[:len(eb)], eb)
	entriesCRC := crc32Entries(entries)

	primary := GptHeader{
		Magic:          gptMagic,
		Version:        gptVersion,
		HeaderSize:     nativeHeaderSize,
		HeaderLBA:      1,
		AlternateLBA:   totalSectors - 1,
		FirstUsableLBA: firstUsable,
		LastUsableLBA:  lastUsable,
		DiskGUID:       diskGUID,
		EntriesLBA:     2,
		MaxEntries:     uint32(minEntriesTableBytes / nativeEntrySize),
		EntrySize:      nativeEntrySize,
		EntriesCRC32:   entriesCRC,
	}
	backup := primary
	backup.HeaderLBA = totalSectors - 1
	backup.AlternateLBA = 1
	backup.EntriesLBA = totalSectors - 1 - entriesSectors

	primaryCRC, err := crc32HeaderNative(&primary)
	if err != nil {
		t.Fatalf("crc32HeaderNative primary: %v", err)
	}
	primary.CRC32 = primaryCRC
	backupCRC, err := crc32HeaderNative(&backup)
	if err != nil {
		t.Fatalf("crc32HeaderNative backup: %v", err)
	}
	backup.CRC32 = backupCRC

	writeHeaderAndEntries(t, d, &primary, entries, log2)
	writeHeaderAndEntries(t, d, &backup, entries, log2)

	return d
}

func writeHeaderAndEntries(t testing.TB, d *memDisk, h *GptHeader, entries []byte, log2 uint8) {
	t.Helper()
	if err := d.WriteAt(int64(sectorToByte(h.EntriesLBA, log2)), entries); err != nil {
		t.Fatalf("write entries: %v", err)
	}
	buf, err := encodeHeader(h)
	if err != nil {
		t.Fatalf("encode header: %v", err)
	}
	sector := make([]byte, 1<<log2)
	copy(sector, buf)
	if err := d.WriteAt(int64(sectorToByte(h.HeaderLBA, log2)), sector); err != nil {
		t.Fatalf("write header: %v", err)
	}
}
