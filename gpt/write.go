package gpt

import "github.com/sirupsen/logrus"

// Write persists state's primary and backup GPT copies to disk, backup
// first then primary, per spec §4.7: if a write is interrupted partway,
// the primary (which a naive reader consults first) is only ever updated
// once the backup it could fall back to is already on disk.
//
// Write requires both sides valid; callers needing to persist a
// newly-reconstructed disk call Repair (which calls Recompute) first.
func Write(disk DiskAccess, s *GptState) error {
	if !s.Status.BothValid() {
		return newError(Bug, "write requires both GPT copies valid, have %s", s.Status)
	}

	skipBackup := false
	if total, ok := diskSizeKnown(disk); ok && s.BackupHeader.HeaderLBA > total-1 {
		logrus.WithFields(logrus.Fields{
			"header_lba":    s.BackupHeader.HeaderLBA,
			"total_sectors": total,
		}).Warn("gpt: backup header location is beyond the disk's known size, skipping backup write")
		skipBackup = true
	}

	if !skipBackup {
		if err := writeSide(disk, &s.BackupHeader, s); err != nil {
			return err
		}
	}
	if err := writeSide(disk, &s.PrimaryHeader, s); err != nil {
		return err
	}
	return nil
}

// writeSide writes one header plus its shared entries array.
func writeSide(disk DiskAccess, h *GptHeader, s *GptState) error {
	if h.HeaderSize != nativeHeaderSize {
		return newError(NotImplemented, "writing a header_size other than %d is not supported", nativeHeaderSize)
	}
	if h.HeaderLBA == 0 {
		return newError(BadArgument, "refusing to write header at sector 0")
	}
	if h.EntriesLBA < 2 {
		return newError(BadArgument, "refusing to write entries array below sector 2, got %d", h.EntriesLBA)
	}

	log2 := s.LogicalSectorSizeLog2
	sectorSize := int(1) << log2

	entriesOff := int64(sectorToByte(h.EntriesLBA, log2))
	if err := disk.WriteAt(entriesOff, s.entries); err != nil {
		return wrapError(BadPartitionTable, err, "write entries array")
	}

	buf, err := encodeHeader(h)
	if err != nil {
		return err
	}
	sector := make([]byte, sectorSize)
	copy(sector, buf)

	headerOff := int64(sectorToByte(h.HeaderLBA, log2))
	if err := disk.WriteAt(headerOff, sector); err != nil {
		return wrapError(BadPartitionTable, err, "write header")
	}
	return nil
}
