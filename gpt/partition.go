package gpt

import "context"

// diskOf resolves the DiskAccess a Device should be read through: its own
// Disk if it names a raw disk, otherwise its partition's parent.
func diskOf(d Device) (DiskAccess, error) {
	if d.Partition != nil {
		return d.Partition.Parent, nil
	}
	if d.Disk != nil {
		return d.Disk, nil
	}
	return nil, newError(BadArgument, "device names neither a disk nor a partition")
}

// GetPartEntry returns the decoded partition entry at index n from an
// already-loaded state. n is checked against the preferred header's
// MaxEntries, per spec §4.5. The entries buffer is indexed by s.entrySize
// (the stride the buffer was actually built with at Load time)
// rather than the preferred header's own EntrySize field, so a header
// mutated out from under an already-loaded entries buffer is caught as a
// Bug instead of silently misindexing the buffer.
func GetPartEntry(s *GptState, n uint32) (*GptEntry, error) {
	h, ok := s.preferredHeader()
	if !ok {
		return nil, newError(Bug, "GetPartEntry called on a state with no valid GPT copy")
	}
	if h.EntrySize != s.entrySize {
		return nil, newError(Bug, "preferred header's entry_size %d does not match the retained entries buffer's stride %d", h.EntrySize, s.entrySize)
	}
	if n >= h.MaxEntries {
		return nil, newError(OutOfRange, "partition index %d out of range [0, %d)", n, h.MaxEntries)
	}
	off := uint64(n) * uint64(s.entrySize)
	end := off + nativeEntrySize
	if end > uint64(len(s.entries)) {
		return nil, newError(OutOfRange, "partition index %d beyond retained entries buffer", n)
	}
	return decodeEntry(s.entries[off:end])
}

// DevicePartEntry loads d's disk and returns the partition entry d.Partition
// names, per spec §4.8. It fails if d does not name a partition.
func DevicePartEntry(ctx context.Context, d Device) (*GptEntry, error) {
	if d.Partition == nil {
		return nil, newError(BadArgument, "device does not name a partition")
	}
	disk, err := diskOf(d)
	if err != nil {
		return nil, err
	}
	s, err := Load(ctx, disk)
	if err != nil {
		return nil, err
	}
	return GetPartEntry(s, d.Partition.Index)
}

// PartLabel returns d's partition name, decoded from UTF-16LE.
func PartLabel(ctx context.Context, d Device) (string, error) {
	e, err := DevicePartEntry(ctx, d)
	if err != nil {
		return "", err
	}
	return decodeName(e.NameUTF16)
}

// PartUUID returns d's unique partition GUID, formatted per spec §6.
func PartUUID(ctx context.Context, d Device) (string, error) {
	e, err := DevicePartEntry(ctx, d)
	if err != nil {
		return "", err
	}
	return guidToStr(e.UniqueGUID), nil
}

// DiskUUID returns the disk GUID of d's disk (following d.Partition.Parent
// when d names a partition), read from whichever GPT copy is valid.
func DiskUUID(ctx context.Context, d Device) (string, error) {
	disk, err := diskOf(d)
	if err != nil {
		return "", err
	}
	s, err := Load(ctx, disk)
	if err != nil {
		return "", err
	}
	h, ok := s.preferredHeader()
	if !ok {
		return "", newError(Bug, "DiskUUID called on a state with no valid GPT copy")
	}
	return guidToStr(h.DiskGUID), nil
}
