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

// V1Seed is the fixed table key of revision 1 archives.
const V1Seed uint32 = 0xDEADCAFE

// V1 decodes revision 1 tables (.rgssad and .rgss2a).
//
// Records follow the header back to back: name length, name, size, then the
// content itself. Every table field is XORed with the running key, which
// advances once per integer and once per name byte. An entry's content key
// is the running key after its size field.
type V1 struct{}

// Decode implements Decoder.
func (V1) Decode(r io.ReadSeeker, size int64) ([]Entry, error) {
	pos := int64(format.HeaderLen)
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek table: %w", err)
	}

	key := V1Seed
	var entries []Entry
	for pos < size {
		nameLen, err := binio.ReadUint32(r)
		if err != nil {
			return nil, corrupt("name length", err)
		}
		nameLen ^= key
		key = keystream.Advance(key)
		pos += 4
		if int64(nameLen) > size-pos {
			return nil, fmt.Errorf("%w: name length %d at offset %d exceeds archive",
				rgsstype.ErrCorruptArchive, nameLen, pos-4)
		}

		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, corrupt("name", err)
		}
		for i := range name {
			name[i] ^= byte(key)
			key = keystream.Advance(key)
		}
		pos += int64(nameLen)

		fileSize, err := binio.ReadUint32(r)
		if err != nil {
			return nil, corrupt("file size", err)
		}
		fileSize ^= key
		key = keystream.Advance(key)
		pos += 4

		entry := Entry{
			Name:   string(name),
			Offset: pos,
			Size:   int64(fileSize),
			Key:    key,
		}
		if err := rgsstype.ValidateRange(&entry, size); err != nil {
			return nil, err
		}
		entries = append(entries, entry)

		pos += entry.Size
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return nil, fmt.Errorf("skip content: %w", err)
		}
	}
	return entries, nil
}

// WriteV1 writes a revision 1 archive holding files to w.
func WriteV1(w io.Writer, files []File) error {
	if err := format.WriteHeader(w, 1); err != nil {
		return err
	}

	key := V1Seed
	var word [4]byte
	putUint32 := func(v uint32) error {
		binary.LittleEndian.PutUint32(word[:], v^key)
		key = keystream.Advance(key)
		_, err := w.Write(word[:])
		return err
	}

	for _, f := range files {
		if err := checkUint32("name", len(f.Name)); err != nil {
			return err
		}
		if err := checkUint32("data", len(f.Data)); err != nil {
			return err
		}
		if err := putUint32(uint32(len(f.Name))); err != nil { //nolint:gosec // checked above
			return err
		}
		name := []byte(f.Name)
		for i := range name {
			name[i] ^= byte(key)
			key = keystream.Advance(key)
		}
		if _, err := w.Write(name); err != nil {
			return err
		}
		if err := putUint32(uint32(len(f.Data))); err != nil { //nolint:gosec // checked above
			return err
		}
		if _, err := w.Write(keystream.Decrypt(f.Data, key)); err != nil {
			return err
		}
	}
	return nil
}
