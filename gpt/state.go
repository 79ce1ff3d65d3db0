package gpt

// GptState is the reconciler's working object: everything Load recovered
// from a disk's primary and backup GPT copies, plus the Status lattice
// recording which of the four artifacts are valid.
//
// entries is owned exclusively by the state; there is no sharing and no
// aliasing into caller-supplied buffers, so releasing a GptState (letting
// it become unreachable) releases the buffer with it.
type GptState struct {
	LogicalSectorSizeLog2 uint8
	PMBR                  PMBR
	PrimaryHeader         GptHeader
	BackupHeader          GptHeader
	entries               []byte
	// entrySize is the stride the entries buffer was actually decoded
	// with, captured once at Load time from whichever side's entries were
	// retained. GetPartEntry indexes the buffer by this rather than by
	// re-reading the preferred header's own EntrySize, so the two can be
	// cross-checked: they must always agree, since nothing in this package
	// ever changes a header's EntrySize without rebuilding entries to match.
	entrySize uint32
	Status    Status
}

// EntriesSize is the length of the retained entries buffer.
func (s *GptState) EntriesSize() int { return len(s.entries) }

// preferredHeader returns the header callers should treat as authoritative:
// the primary if it's valid, else the backup. ok is false if neither side is
// valid.
func (s *GptState) preferredHeader() (h *GptHeader, ok bool) {
	if s.Status.PrimaryValid() {
		return &s.PrimaryHeader, true
	}
	if s.Status.BackupValid() {
		return &s.BackupHeader, true
	}
	return nil, false
}
