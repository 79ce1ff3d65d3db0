// Package filedisk adapts an *os.File to gpt.DiskAccess, for cmd/gptctl and
// for tests that want to exercise the engine against a real file rather
// than an in-memory fake.
package filedisk

import (
	"os"

	"github.com/pkg/errors"
)

// Disk is a file-backed gpt.DiskAccess.
type Disk struct {
	f              *os.File
	sectorSizeLog2 uint8
}

// Open opens path for reading and writing as a disk with the given logical
// sector size (must be a power of two).
func Open(path string, sectorSizeLog2 uint8) (*Disk, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &Disk{f: f, sectorSizeLog2: sectorSizeLog2}, nil
}

// Close closes the underlying file.
func (d *Disk) Close() error {
	return d.f.Close()
}

// ReadAt implements gpt.DiskAccess.
func (d *Disk) ReadAt(byteOffset int64, length int) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := d.f.ReadAt(buf, byteOffset); err != nil {
		return nil, errors.Wrapf(err, "read %d bytes at offset %d", length, byteOffset)
	}
	return buf, nil
}

// WriteAt implements gpt.DiskAccess.
func (d *Disk) WriteAt(byteOffset int64, data []byte) error {
	if _, err := d.f.WriteAt(data, byteOffset); err != nil {
		return errors.Wrapf(err, "write %d bytes at offset %d", len(data), byteOffset)
	}
	return nil
}

// LogicalSectorSizeLog2 implements gpt.DiskAccess.
func (d *Disk) LogicalSectorSizeLog2() uint8 {
	return d.sectorSizeLog2
}

// TotalSectors implements gpt.DiskAccess by stat-ing the underlying file.
// A regular file's size is always known, so ok is always true; a block
// device opened this way would need a real size query, which this adapter
// doesn't attempt (spec §1 scopes DiskAccess's concrete backing out of the
// core engine; this adapter only needs to cover plain disk-image files for
// cmd/gptctl and tests).
func (d *Disk) TotalSectors() (uint64, bool) {
	info, err := d.f.Stat()
	if err != nil {
		return 0, false
	}
	return uint64(info.Size()) >> d.sectorSizeLog2, true
}
