package toc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/meigma/rgssad/internal/binio"
	"github.com/meigma/rgssad/internal/format"
	"github.com/meigma/rgssad/internal/keystream"
	"github.com/meigma/rgssad/internal/rgsstype"
)

// v3RecordLen is the fixed part of a revision 3 record: offset, size,
// key and name length.
const v3RecordLen = 16

// V3 decodes revision 3 tables (.rgss3a).
//
// The header is followed by a seed; the table key is seed*9 + 3 and stays
// fixed for the whole table. Records hold absolute offsets, so the table
// precedes all content. A record with offset 0 ends the table.
type V3 struct{}

// V3TableKey derives the table key from the stored seed.
func V3TableKey(seed uint32) uint32 {
	return seed*9 + 3
}

// Decode implements Decoder.
func (V3) Decode(r io.ReadSeeker, size int64) ([]Entry, error) {
	if _, err := r.Seek(format.HeaderLen, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek table: %w", err)
	}
	seed, err := binio.ReadUint32(r)
	if err != nil {
		return nil, corrupt("table seed", err)
	}
	key := V3TableKey(seed)
	pos := int64(format.HeaderLen + 4)

	var entries []Entry
	for {
		offset, err := binio.ReadUint32(r)
		if err != nil {
			return nil, corrupt("record offset", err)
		}
		offset ^= key
		if offset == 0 {
			return entries, nil
		}

		var rest [3]uint32
		for i := range rest {
			v, err := binio.ReadUint32(r)
			if err != nil {
				return nil, corrupt("record", err)
			}
			rest[i] = v ^ key
		}
		fileSize, entryKey, nameLen := rest[0], rest[1], rest[2]
		record := pos
		pos += v3RecordLen
		if int64(nameLen) > size-pos {
			return nil, fmt.Errorf("%w: name length %d in record at offset %d exceeds archive",
				rgsstype.ErrCorruptArchive, nameLen, record)
		}

		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, corrupt("name", err)
		}
		for i := range name {
			name[i] ^= byte(key >> (8 * (i % 4)))
		}
		pos += int64(nameLen)

		entry := Entry{
			Name:   string(name),
			Offset: int64(offset),
			Size:   int64(fileSize),
			Key:    entryKey,
		}
		if err := rgsstype.ValidateRange(&entry, size); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
}

// WriteV3 writes a revision 3 archive holding files to w, using seed for the
// table key.
func WriteV3(w io.Writer, seed uint32, files []File) error {
	if err := format.WriteHeader(w, 3); err != nil {
		return err
	}
	key := V3TableKey(seed)

	// Content follows the table and its terminator record.
	offset := format.HeaderLen + 4 + v3RecordLen
	for _, f := range files {
		if err := checkUint32("name", len(f.Name)); err != nil {
			return err
		}
		if err := checkUint32("data", len(f.Data)); err != nil {
			return err
		}
		offset += v3RecordLen + len(f.Name)
	}

	table := binary.LittleEndian.AppendUint32(nil, seed)
	for _, f := range files {
		if err := checkUint32("offset", offset); err != nil {
			return err
		}
		//nolint:gosec // lengths and offset checked above
		for _, v := range []uint32{uint32(offset), uint32(len(f.Data)), f.Key, uint32(len(f.Name))} {
			table = binary.LittleEndian.AppendUint32(table, v^key)
		}
		for i := range len(f.Name) {
			table = append(table, f.Name[i]^byte(key>>(8*(i%4))))
		}
		offset += len(f.Data)
	}
	for range 4 {
		table = binary.LittleEndian.AppendUint32(table, key)
	}
	if _, err := w.Write(table); err != nil {
		return err
	}

	for _, f := range files {
		if _, err := w.Write(keystream.Decrypt(f.Data, f.Key)); err != nil {
			return err
		}
	}
	return nil
}
