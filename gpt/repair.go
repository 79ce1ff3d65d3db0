package gpt

import "github.com/sirupsen/logrus"

// Repair reconstructs whichever GPT copy is missing or invalid from the
// side that's still valid, per spec §4.6. Exactly one side must be valid;
// if both already are, Repair is a no-op, and if neither is, there's
// nothing to reconstruct from.
func Repair(disk DiskAccess, s *GptState) error {
	switch {
	case s.Status.PrimaryValid() && s.Status.BackupValid():
		return nil
	case disk.LogicalSectorSizeLog2() != s.LogicalSectorSizeLog2:
		return newError(NotImplemented, "disk sector size log2 %d differs from the loaded state's %d", disk.LogicalSectorSizeLog2(), s.LogicalSectorSizeLog2)
	case s.Status.PrimaryValid():
		return repairBackup(disk, s)
	case s.Status.BackupValid():
		return repairPrimary(disk, s)
	default:
		return newError(Bug, "repair requires at least one valid GPT copy")
	}
}

// repairBackup rebuilds the backup header from a valid primary. If the disk
// has grown since the primary was written, the backup is relocated to the
// new last sector rather than the primary's stale alternate_lba, the
// relocation case spec §4.6 calls out explicitly.
func repairBackup(disk DiskAccess, s *GptState) error {
	src := s.PrimaryHeader
	log2 := s.LogicalSectorSizeLog2

	entriesSectors, err := src.entriesSectorCount(log2)
	if err != nil {
		return err
	}

	headerLBA := src.AlternateLBA
	lastUsable := src.LastUsableLBA
	if total, ok := diskSizeKnown(disk); ok && total-1 > headerLBA {
		logrus.WithFields(logrus.Fields{"old": headerLBA, "new": total - 1}).Info("gpt: relocating backup header to grown disk's last sector")
		headerLBA = total - 1
		lastUsable = headerLBA - entriesSectors - 1
		// The primary survives untouched except for the fields the
		// equivalence check in §4.3 requires to track the backup: its
		// alternate_lba and last_usable_lba must grow along with it, or
		// Recompute's re-validation would reject the pair as inequivalent.
		s.PrimaryHeader.AlternateLBA = headerLBA
		s.PrimaryHeader.LastUsableLBA = lastUsable
	}

	backup := src
	backup.HeaderLBA = headerLBA
	backup.AlternateLBA = 1
	backup.EntriesLBA = headerLBA - entriesSectors
	backup.LastUsableLBA = lastUsable

	s.BackupHeader = backup
	s.Status = s.Status.Clear(BackupHeaderValid | BackupEntriesValid)
	return Recompute(s)
}

// repairPrimary rebuilds the primary header from a valid backup, placing
// its entries array at the canonical minimum location (sector 2).
func repairPrimary(disk DiskAccess, s *GptState) error {
	src := s.BackupHeader
	log2 := s.LogicalSectorSizeLog2

	entriesSectors, err := src.entriesSectorCount(log2)
	if err != nil {
		return err
	}

	primary := src
	primary.HeaderLBA = 1
	primary.AlternateLBA = src.HeaderLBA
	primary.EntriesLBA = 2
	primary.FirstUsableLBA = primary.EntriesLBA + entriesSectors
	if primary.FirstUsableLBA > primary.LastUsableLBA {
		return newError(BadPartitionTable, "no room to reconstruct primary: first_usable %d > last_usable %d", primary.FirstUsableLBA, primary.LastUsableLBA)
	}

	s.PrimaryHeader = primary
	s.Status = s.Status.Clear(PrimaryHeaderValid | PrimaryEntriesValid)
	return Recompute(s)
}

// Recompute normalizes both headers' header_size to the engine's native 92
// bytes, sets both headers' entries_crc32 from the shared entries buffer,
// recomputes each header's CRC32, then re-runs the single-header checks on
// both copies plus the primary/backup equivalence check and reinstates all
// four validity bits. It clears all four validity bits before recomputing,
// since a reconstructed side invalidates any previous equivalence guarantee
// until it's re-verified. The primary- and backup-specific layout checks
// that Load applies (header_lba, entries placement against the usable
// range) are not re-run here.
func Recompute(s *GptState) error {
	s.Status = s.Status.Clear(PrimaryHeaderValid | PrimaryEntriesValid | BackupHeaderValid | BackupEntriesValid)

	entriesCRC := crc32Entries(s.entries)

	if err := recomputeSide(&s.PrimaryHeader, entriesCRC); err != nil {
		return err
	}
	if err := recomputeSide(&s.BackupHeader, entriesCRC); err != nil {
		return err
	}

	log2 := s.LogicalSectorSizeLog2
	if err := headerCheck(&s.PrimaryHeader, mustEncode(&s.PrimaryHeader), log2); err != nil {
		return wrapError(Bug, err, "reconstructed primary header failed validation")
	}
	if err := headerCheck(&s.BackupHeader, mustEncode(&s.BackupHeader), log2); err != nil {
		return wrapError(Bug, err, "reconstructed backup header failed validation")
	}
	if !headersEquivalent(&s.PrimaryHeader, &s.BackupHeader) {
		return newError(Bug, "reconstructed headers are not equivalent")
	}

	s.Status = s.Status.Set(PrimaryHeaderValid | PrimaryEntriesValid | BackupHeaderValid | BackupEntriesValid)
	return nil
}

func recomputeSide(h *GptHeader, entriesCRC uint32) error {
	h.HeaderSize = nativeHeaderSize
	h.EntriesCRC32 = entriesCRC
	crc, err := crc32HeaderNative(h)
	if err != nil {
		return err
	}
	h.CRC32 = crc
	return nil
}

// mustEncode encodes h, which by this point in Recompute is always
// well-formed (native size, just-computed CRC); an encode failure here
// would mean an earlier step built a broken header.
func mustEncode(h *GptHeader) []byte {
	buf, err := encodeHeader(h)
	if err != nil {
		panic(err)
	}
	return buf
}
