package gpt

// DiskAccess is the block-device capability the engine is built against.
// Spec §1 scopes the concrete implementation out of this package; callers
// supply one (internal/filedisk's file-backed implementation is the only
// one this repo ships, used by cmd/gptctl).
type DiskAccess interface {
	// ReadAt returns exactly length bytes starting at byteOffset.
	ReadAt(byteOffset int64, length int) ([]byte, error)
	// WriteAt writes data starting at byteOffset.
	WriteAt(byteOffset int64, data []byte) error
	// LogicalSectorSizeLog2 is log2 of the disk's logical sector size.
	LogicalSectorSizeLog2() uint8
	// TotalSectors returns the disk's total sector count and whether it
	// is known. Some drivers can't report a size, or report a placeholder
	// maximum; see diskSizeKnown.
	TotalSectors() (sectors uint64, ok bool)
}

// PartitionRef describes a block device that is itself a partition: it
// names a parent disk plus the partition's starting sector offset and its
// index into the GPT entry array.
type PartitionRef struct {
	Parent DiskAccess
	Offset uint64
	Index  uint32
}

// Device is a disk or a partition on a disk. Partition is nil when Disk
// names a raw disk rather than a partition of one.
type Device struct {
	Disk      DiskAccess
	Partition *PartitionRef
}

// maxReasonableSectors51 bounds what this engine trusts as a real total
// sector count. Spec §4.4's disk-size-sanity rule: a disk whose reported
// total-sector count, normalized to 512-byte blocks, exceeds 2^51 is
// treated as "size unknown", because some drivers return placeholder
// maxima rather than failing the size query.
const maxReasonableSectors51 = uint64(1) << 51

// diskSizeKnown applies spec §4.4's sanity rule on top of the DiskAccess's
// own "ok" flag.
func diskSizeKnown(disk DiskAccess) (total uint64, known bool) {
	total, ok := disk.TotalSectors()
	if !ok {
		return 0, false
	}
	log2 := disk.LogicalSectorSizeLog2()
	// Normalize to 512-byte blocks: total512 = total << (log2 - 9) when
	// log2 >= 9 (sector sizes below 512 bytes aren't a real GPT disk
	// format, but guard the shift direction regardless).
	var total512 uint64
	if log2 >= 9 {
		total512 = total << (log2 - 9)
	} else {
		total512 = total >> (9 - log2)
	}
	if total512 > maxReasonableSectors51 {
		return 0, false
	}
	return total, true
}
