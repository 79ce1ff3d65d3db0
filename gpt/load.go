package gpt

import (
	"bytes"
	"context"

	"github.com/sirupsen/logrus"
)

// ctxErr reports ctx's error, if any, wrapped as a BadPartitionTable-kind
// failure. Spec §5: cancellation from the disk collaborator "propagates as
// an I/O error"; Load checks between the primary and backup phases so a
// cancelled context lands promptly without adding blocking points beyond
// the disk reads themselves.
func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return wrapError(BadPartitionTable, err, "load cancelled")
	}
	return nil
}

// Load implements the read path, spec §4.4.
func Load(ctx context.Context, disk DiskAccess) (*GptState, error) {
	log2 := disk.LogicalSectorSizeLog2()
	s := &GptState{LogicalSectorSizeLog2: log2}

	if err := loadPMBR(disk, s); err != nil {
		return nil, err
	}

	var primaryErr error
	primaryHeader, primaryEntries, err := loadAndCheckPrimary(disk, log2)
	if err != nil {
		primaryErr = err
	} else {
		s.PrimaryHeader = *primaryHeader
		s.entries = primaryEntries
		s.entrySize = primaryHeader.EntrySize
		s.Status = s.Status.Set(PrimaryHeaderValid | PrimaryEntriesValid)
	}

	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	backupLBA, err := locateBackup(disk, s.Status.PrimaryValid(), &s.PrimaryHeader, log2)
	if err != nil {
		if s.Status.PrimaryValid() {
			return s, nil
		}
		if primaryErr != nil {
			return nil, primaryErr
		}
		return nil, err
	}

	backupErr := loadBackup(disk, s, backupLBA, log2, primaryErr)
	if !s.Status.PrimaryValid() && !s.Status.BackupValid() {
		if primaryErr != nil {
			return nil, primaryErr
		}
		return nil, backupErr
	}
	return s, nil
}

func loadPMBR(disk DiskAccess, s *GptState) error {
	buf, err := disk.ReadAt(0, 512)
	if err != nil {
		return wrapError(BadPartitionTable, err, "read pmbr")
	}
	m, err := DecodePMBR(buf)
	if err != nil {
		return err
	}
	s.PMBR = *m
	if m.IsProtective() {
		s.Status = s.Status.Set(ProtectiveMBR)
		return nil
	}
	logrus.WithField("signature", m.Signature).Warn("gpt: MBR at sector 0 is not protective")
	return nil
}

// loadAndCheckPrimary implements spec §4.4 step 2. Unlike loadBackup, it
// does not check that header_lba matches the sector it was read from — the
// primary is always read from sector 1 by definition, so that check would
// be a tautology. This asymmetry between the primary and backup checks is
// intentional, per spec §9, and is not "fixed" to be symmetric.
func loadAndCheckPrimary(disk DiskAccess, log2 uint8) (*GptHeader, []byte, error) {
	sectorSize := int(1) << log2
	raw, err := disk.ReadAt(int64(sectorToByte(1, log2)), sectorSize)
	if err != nil {
		return nil, nil, wrapError(BadPartitionTable, err, "read primary header")
	}
	h, err := decodeAndCheckHeader(raw, log2)
	if err != nil {
		return nil, nil, err
	}
	if h.HeaderLBA != 1 {
		return nil, nil, newError(BadPartitionTable, "primary header_lba %d != 1", h.HeaderLBA)
	}
	if h.EntriesLBA <= 1 {
		return nil, nil, newError(BadPartitionTable, "primary entries_lba %d must be > 1", h.EntriesLBA)
	}
	entriesSectors, err := h.entriesSectorCount(log2)
	if err != nil {
		return nil, nil, err
	}
	if h.EntriesLBA+entriesSectors > h.FirstUsableLBA {
		return nil, nil, newError(BadPartitionTable, "primary entries array [%d, %d) overruns first_usable %d", h.EntriesLBA, h.EntriesLBA+entriesSectors, h.FirstUsableLBA)
	}
	if h.AlternateLBA <= h.LastUsableLBA {
		return nil, nil, newError(BadPartitionTable, "primary alternate_lba %d must be > last_usable %d", h.AlternateLBA, h.LastUsableLBA)
	}

	entries, err := readAndCheckEntries(disk, h, log2)
	if err != nil {
		return nil, nil, err
	}
	return h, entries, nil
}

// readAndCheckEntries reads h's declared entries array and verifies its CRC
// against h.EntriesCRC32.
func readAndCheckEntries(disk DiskAccess, h *GptHeader, log2 uint8) ([]byte, error) {
	size, err := h.entriesByteSize()
	if err != nil {
		return nil, err
	}
	buf, err := disk.ReadAt(int64(sectorToByte(h.EntriesLBA, log2)), int(size))
	if err != nil {
		return nil, wrapError(BadPartitionTable, err, "read entries array")
	}
	if got := crc32Entries(buf); got != h.EntriesCRC32 {
		return nil, newError(BadPartitionTable, "entries CRC mismatch: got %#08x, want %#08x", got, h.EntriesCRC32)
	}
	return buf, nil
}

// locateBackup implements spec §4.4 step 3.
func locateBackup(disk DiskAccess, primaryValid bool, primary *GptHeader, log2 uint8) (uint64, error) {
	total, sizeKnown := diskSizeKnown(disk)

	var candidate uint64
	switch {
	case primaryValid:
		candidate = primary.AlternateLBA
	case sizeKnown:
		candidate = total - 1
	default:
		return 0, newError(OutOfRange, "cannot locate backup GPT: no valid primary and disk size unknown")
	}

	if sizeKnown && candidate > total-1 {
		return 0, newError(OutOfRange, "backup GPT location %d exceeds disk size %d sectors", candidate, total)
	}
	return candidate, nil
}

// loadBackup implements spec §4.4 steps 4-5. It never returns an error that
// aborts Load by itself; Load decides whether to surface it based on
// whether the primary side is already valid.
func loadBackup(disk DiskAccess, s *GptState, backupLBA uint64, log2 uint8, primaryErr error) error {
	sectorSize := int(1) << log2
	raw, err := disk.ReadAt(int64(sectorToByte(backupLBA, log2)), sectorSize)
	if err != nil {
		return wrapError(BadPartitionTable, err, "read backup header")
	}
	h, err := decodeAndCheckHeader(raw, log2)
	if err != nil {
		return err
	}

	if h.AlternateLBA != 1 {
		return newError(BadPartitionTable, "backup alternate_lba %d != 1", h.AlternateLBA)
	}
	if h.EntriesLBA <= h.LastUsableLBA {
		return newError(BadPartitionTable, "backup entries_lba %d must be > last_usable %d", h.EntriesLBA, h.LastUsableLBA)
	}
	entriesSectors, err := h.entriesSectorCount(log2)
	if err != nil {
		return err
	}
	if h.EntriesLBA+entriesSectors > h.HeaderLBA {
		return newError(BadPartitionTable, "backup entries array [%d, %d) overruns header_lba %d", h.EntriesLBA, h.EntriesLBA+entriesSectors, h.HeaderLBA)
	}
	if h.HeaderLBA <= h.LastUsableLBA {
		return newError(BadPartitionTable, "backup header_lba %d must be > last_usable %d", h.HeaderLBA, h.LastUsableLBA)
	}
	if h.HeaderLBA != backupLBA {
		return newError(BadPartitionTable, "backup header_lba %d does not match the sector it was read from (%d)", h.HeaderLBA, backupLBA)
	}

	if s.Status.PrimaryValid() {
		if !headersEquivalent(&s.PrimaryHeader, h) {
			return newError(BadPartitionTable, "backup GPT out of sync")
		}
	}

	s.BackupHeader = *h
	s.Status = s.Status.Set(BackupHeaderValid)

	entries, err := readAndCheckEntries(disk, h, log2)
	if err != nil {
		return err
	}

	if s.Status.Has(PrimaryEntriesValid) {
		if !bytes.Equal(s.entries, entries) {
			return newError(BadPartitionTable, "primary and backup entries arrays differ despite equivalent headers")
		}
		s.Status = s.Status.Set(BackupEntriesValid)
		return nil
	}

	s.entries = entries
	s.entrySize = h.EntrySize
	s.Status = s.Status.Set(BackupEntriesValid)
	return nil
}

// headersEquivalent implements the cross-consistency check in spec §4.3.
// Both headers must already have passed the single-header validator.
func headersEquivalent(primary, backup *GptHeader) bool {
	return primary.HeaderSize == backup.HeaderSize &&
		primary.HeaderLBA == backup.AlternateLBA &&
		primary.AlternateLBA == backup.HeaderLBA &&
		primary.FirstUsableLBA == backup.FirstUsableLBA &&
		primary.LastUsableLBA == backup.LastUsableLBA &&
		primary.MaxEntries == backup.MaxEntries &&
		primary.EntrySize == backup.EntrySize &&
		primary.EntriesCRC32 == backup.EntriesCRC32 &&
		primary.DiskGUID == backup.DiskGUID
}
