package gpt

// decodeAndCheckHeader decodes a GptHeader from raw (the full sector read
// from wherever the header is supposed to live) and runs the stateless,
// single-header checks tabulated in spec §4.2. raw must be at least one
// logical sector long, since header_size is bounded by the sector size and
// the CRC must be computed over the actual on-disk bytes up to header_size.
func decodeAndCheckHeader(raw []byte, log2 uint8) (*GptHeader, error) {
	h, err := decodeHeader(raw)
	if err != nil {
		return nil, err
	}
	if err := headerCheck(h, raw, log2); err != nil {
		return nil, err
	}
	return h, nil
}

// headerCheck runs the stateless, single-header checks tabulated in spec
// §4.2 against an already-decoded header and the raw bytes it came from. It
// does not know which side (primary/backup) h came from — the side-specific
// layout checks are loadAndCheckPrimary's and loadBackup's job in load.go.
func headerCheck(h *GptHeader, raw []byte, log2 uint8) error {
	if h.Magic != gptMagic {
		return newError(BadPartitionTable, "invalid GPT signature")
	}
	if h.Version != gptVersion {
		return newError(BadPartitionTable, "unknown GPT version %#08x", h.Version)
	}

	sectorSize := uint32(1) << log2
	if h.HeaderSize < nativeHeaderSize || h.HeaderSize > sectorSize {
		return newError(BadPartitionTable, "invalid header size %d (sector size %d)", h.HeaderSize, sectorSize)
	}

	gotCRC := h.CRC32
	wantCRC, err := crc32HeaderRaw(raw, h.HeaderSize)
	if err != nil {
		return err
	}
	if gotCRC != wantCRC {
		return newError(BadPartitionTable, "invalid header CRC: got %#08x, want %#08x", gotCRC, wantCRC)
	}

	if h.EntrySize < minEntrySize || h.EntrySize%entrySizeUnit != 0 || !isPow2(h.EntrySize/entrySizeUnit) {
		return newError(BadPartitionTable, "invalid entry size %d", h.EntrySize)
	}

	entriesBytes, err := h.entriesByteSize()
	if err != nil {
		return err
	}
	if entriesBytes < minEntriesTableBytes {
		return newError(BadPartitionTable, "entries table too small: %d bytes", entriesBytes)
	}

	if h.FirstUsableLBA > h.LastUsableLBA {
		return newError(BadPartitionTable, "invalid usable range [%d, %d]", h.FirstUsableLBA, h.LastUsableLBA)
	}

	return nil
}

// HeaderCheck is the public API entry named in spec §6. It takes an
// already-decoded header plus the raw sector bytes it was decoded from,
// since the CRC check must see the actual on-disk reserved-tail bytes.
func HeaderCheck(h *GptHeader, rawSector []byte, logicalSectorSizeLog2 uint8) error {
	return headerCheck(h, rawSector, logicalSectorSizeLog2)
}
