package gpt

import (
	"context"
	"testing"
)

func TestLoadValidDisk(t *testing.T) {
	d := buildValidDisk(t, 4096)
	s, err := Load(context.Background(), d)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Status.BothValid() {
		t.Fatalf("expected both copies valid, got status %s", s.Status)
	}
	if !s.Status.Has(ProtectiveMBR) {
		t.Fatal("expected the protective MBR bit to be set")
	}
}

// TestLoadKeepsValidPrimaryWhenBackupUnlocatable covers spec §4.4 step 6:
// a valid primary must survive even when the backup can't be located at
// all, e.g. the disk has shrunk since the primary was written and its
// alternate_lba now points past the disk's current end.
func TestLoadKeepsValidPrimaryWhenBackupUnlocatable(t *testing.T) {
	d := buildValidDisk(t, 4096)
	d.size = 2048 // simulate a shrunk disk: primary's alternate_lba (4095) now exceeds total_sectors-1

	s, err := Load(context.Background(), d)
	if err != nil {
		t.Fatalf("Load should succeed on a valid primary even when the backup is unlocatable: %v", err)
	}
	if !s.Status.PrimaryValid() {
		t.Fatal("expected the primary to remain valid")
	}
	if s.Status.BackupValid() {
		t.Fatal("expected the backup to be absent, not valid")
	}
}

func TestLoadCorruptPrimaryFallsBackToBackup(t *testing.T) {
	d := buildValidDisk(t, 4096)
	// Stomp the primary header's magic.
	sector, err := d.ReadAt(512, 512)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	sector[0] ^= 0xFF
	if err := d.WriteAt(512, sector); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	s, err := Load(context.Background(), d)
	if err != nil {
		t.Fatalf("Load should succeed when only the backup is valid: %v", err)
	}
	if s.Status.PrimaryValid() {
		t.Fatal("expected the primary to be invalid after corruption")
	}
	if !s.Status.BackupValid() {
		t.Fatal("expected the backup to still be valid")
	}
}

func TestLoadBothCorruptFails(t *testing.T) {
	d := buildValidDisk(t, 4096)
	for _, lba := range []uint64{1, 4095} {
		sector, err := d.ReadAt(int64(lba)*512, 512)
		if err != nil {
			t.Fatalf("ReadAt: %v", err)
		}
		sector[0] ^= 0xFF
		if err := d.WriteAt(int64(lba)*512, sector); err != nil {
			t.Fatalf("WriteAt: %v", err)
		}
	}
	if _, err := Load(context.Background(), d); err == nil {
		t.Fatal("expected Load to fail when both copies are corrupt")
	}
}

func TestLoadBackupLocatedFromKnownDiskSizeWhenPrimaryInvalid(t *testing.T) {
	d := buildValidDisk(t, 4096)
	sector, err := d.ReadAt(512, 512)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	sector[0] ^= 0xFF
	if err := d.WriteAt(512, sector); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	backupLBA, err := locateBackup(d, false, &GptHeader{}, 9)
	if err != nil {
		t.Fatalf("locateBackup: %v", err)
	}
	if backupLBA != 4095 {
		t.Fatalf("locateBackup = %d, want total_sectors-1 = 4095", backupLBA)
	}
}

// TestLocateBackupBoundary pins down spec §8: a primary-declared backup
// location at exactly total_sectors-1 is accepted, at total_sectors it's
// rejected with OutOfRange when the disk size is known.
func TestLocateBackupBoundary(t *testing.T) {
	d := newMemDisk(4096, 9)

	atEnd := &GptHeader{AlternateLBA: 4095}
	if _, err := locateBackup(d, true, atEnd, 9); err != nil {
		t.Fatalf("backup at total_sectors-1 should be accepted, got %v", err)
	}

	beyondEnd := &GptHeader{AlternateLBA: 4096}
	if _, err := locateBackup(d, true, beyondEnd, 9); err == nil {
		t.Fatal("expected OutOfRange for a backup location at total_sectors")
	} else if !IsKind(err, OutOfRange) {
		t.Fatalf("expected OutOfRange, got %v", err)
	}
}

// TestLoadRejectsEntriesOverrunningFirstUsable pins down spec §8:
// entries_lba + entries_sector_count == first_usable is accepted (the
// fixture disk already does this, per TestLoadValidDisk); one sector
// tighter is rejected as the entries array overrunning first_usable.
func TestLoadRejectsEntriesOverrunningFirstUsable(t *testing.T) {
	d := buildValidDisk(t, 4096)
	s, err := Load(context.Background(), d)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entriesSectors, err := s.PrimaryHeader.entriesSectorCount(9)
	if err != nil {
		t.Fatalf("entriesSectorCount: %v", err)
	}
	if got := s.PrimaryHeader.EntriesLBA + entriesSectors; got != s.PrimaryHeader.FirstUsableLBA {
		t.Fatalf("fixture's entries array ends at %d, want exactly first_usable %d", got, s.PrimaryHeader.FirstUsableLBA)
	}

	tight := s.PrimaryHeader
	tight.FirstUsableLBA--
	crc, err := crc32HeaderNative(&tight)
	if err != nil {
		t.Fatalf("crc32HeaderNative: %v", err)
	}
	tight.CRC32 = crc
	sector := make([]byte, 512)
	buf, err := encodeHeader(&tight)
	if err != nil {
		t.Fatalf("encodeHeader: %v", err)
	}
	copy(sector, buf)
	if err := d.WriteAt(512, sector); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	reloaded, err := Load(context.Background(), d)
	if err != nil {
		t.Fatalf("Load should still succeed from the still-valid backup: %v", err)
	}
	if reloaded.Status.PrimaryValid() {
		t.Fatal("expected the tightened primary to fail the entries-overrun check")
	}
	if !reloaded.Status.BackupValid() {
		t.Fatal("expected the untouched backup to remain valid")
	}
}
