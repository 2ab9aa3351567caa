package rgssad

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/rgssad/internal/keystream"
	"github.com/meigma/rgssad/internal/testutil"
)

type builder func(testing.TB, ...testutil.File) []byte

func buildV3(tb testing.TB, files ...testutil.File) []byte {
	return testutil.BuildV3(tb, 0xABCDEF, files...)
}

// toHost converts a stored name to a host-relative path.
func toHost(stored string) string {
	return filepath.FromSlash(strings.ReplaceAll(stored, `\`, "/"))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func openSample(t *testing.T, build builder) *Archive {
	t.Helper()
	a, err := New(testutil.NewTrackingSource(build(t, sampleFiles...)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// archiveWith builds a signed stream of header plus payload and serves
// entries from a fixed table.
func archiveWith(t *testing.T, payload []byte, entries ...Entry) *Archive {
	t.Helper()
	data := append([]byte("RGSSAD\x00\x01"), payload...)
	a, err := New(testutil.NewTrackingSource(data), WithEntryProvider(staticProvider(entries)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestExtractAll(t *testing.T) {
	t.Parallel()

	for name, build := range map[string]builder{"revision 1": testutil.BuildV1, "revision 3": buildV3} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a := openSample(t, build)
			dest := t.TempDir()
			stats, err := a.ExtractAll(dest)
			require.NoError(t, err)
			assert.Equal(t, len(sampleFiles), stats.Written)
			assert.Zero(t, stats.Skipped)
			assert.Zero(t, stats.Failed)

			var total int64
			for _, f := range sampleFiles {
				assert.Equal(t, string(f.Data), readFile(t, filepath.Join(dest, toHost(f.Name))))
				total += int64(len(f.Data))
			}
			assert.Equal(t, total, stats.TotalBytes)
		})
	}
}

func TestExtractAllCreatesDestination(t *testing.T) {
	t.Parallel()

	a := openSample(t, testutil.BuildV1)
	dest := filepath.Join(t.TempDir(), "does", "not", "exist")
	_, err := a.ExtractAll(dest)
	require.NoError(t, err)
	assert.Equal(t, "first map", readFile(t, filepath.Join(dest, "Data", "Map001.rxdata")))
}

func TestExtractEndToEnd(t *testing.T) {
	t.Parallel()

	// Offset 8 is right after the header. With key 0 the first window is
	// zero and the second is 0*7+3.
	payload := binary.LittleEndian.AppendUint32(nil, 0)
	payload = binary.LittleEndian.AppendUint32(payload, 0)
	a := archiveWith(t, payload, Entry{Name: "data/map.bin", Offset: 8, Size: 8, Key: 0})

	dest := t.TempDir()
	_, err := a.ExtractAll(dest)
	require.NoError(t, err)
	assert.Equal(t, string([]byte{0, 0, 0, 0, 3, 0, 0, 0}), readFile(t, filepath.Join(dest, "data", "map.bin")))

	// Ciphertext equal to its own keystream decrypts to zeros.
	payload = binary.LittleEndian.AppendUint32(nil, 0)
	payload = binary.LittleEndian.AppendUint32(payload, 3)
	a = archiveWith(t, payload, Entry{Name: `data\map.bin`, Offset: 8, Size: 8, Key: 0})

	_, err = a.ExtractAll(dest, ExtractWithOverwrite(true))
	require.NoError(t, err)
	assert.Equal(t, string(make([]byte, 8)), readFile(t, filepath.Join(dest, "data", "map.bin")))
}

func TestExtractOneResult(t *testing.T) {
	t.Parallel()

	a := openSample(t, buildV3)
	entry := a.Entries()[1]
	dest := t.TempDir()

	res, err := a.ExtractOne(entry, dest)
	require.NoError(t, err)
	assert.Equal(t, StatusWritten, res.Status)
	assert.Equal(t, entry, res.Entry)
	assert.Equal(t, filepath.Join(dest, "Data", "System.rxdata"), res.Path)
	assert.Equal(t, int64(len(sampleFiles[1].Data)), res.Bytes)
	assert.Equal(t, digest.FromBytes(sampleFiles[1].Data), res.Digest)
}

func TestExtractOneFlat(t *testing.T) {
	t.Parallel()

	a := openSample(t, testutil.BuildV1)
	entry := a.Entries()[2]
	dest := t.TempDir()

	res, err := a.ExtractOne(entry, dest, ExtractWithCreateDirs(false))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "title.png"), res.Path)
	assert.Equal(t, string(sampleFiles[2].Data), readFile(t, res.Path))

	_, err = os.Stat(filepath.Join(dest, "Graphics"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtractOverwritePolicy(t *testing.T) {
	t.Parallel()

	a := openSample(t, testutil.BuildV1)
	entry := a.Entries()[0]
	dest := t.TempDir()
	path := filepath.Join(dest, "Data", "Map001.rxdata")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o600))

	res, err := a.ExtractOne(entry, dest)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Empty(t, res.Digest)
	assert.Equal(t, "keep me", readFile(t, path))

	stats, err := a.ExtractAll(dest)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, len(sampleFiles)-1, stats.Written)
	assert.Equal(t, "keep me", readFile(t, path))

	res, err = a.ExtractOne(entry, dest, ExtractWithOverwrite(true))
	require.NoError(t, err)
	assert.Equal(t, StatusWritten, res.Status)
	assert.Equal(t, "first map", readFile(t, path))
}

func TestExtractOverwriteAtomic(t *testing.T) {
	t.Parallel()

	a := openSample(t, buildV3)
	dest := t.TempDir()
	_, err := a.ExtractAll(dest)
	require.NoError(t, err)

	stats, err := a.ExtractAll(dest, ExtractWithOverwrite(true), ExtractWithAtomicWrites(true))
	require.NoError(t, err)
	assert.Equal(t, len(sampleFiles), stats.Written)

	entries, err := os.ReadDir(filepath.Join(dest, "Data"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".rgssad-"), "leftover temp file %s", e.Name())
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	t.Parallel()

	for _, name := range []string{
		`..\pwned.txt`,
		`Data\..\..\pwned.txt`,
		"../pwned.txt",
		`\pwned.txt`,
		`C:\pwned.txt`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a := archiveWith(t, []byte("pwned"), Entry{Name: name, Offset: 8, Size: 5})
			parent := t.TempDir()
			dest := filepath.Join(parent, "out")

			_, err := a.ExtractAll(dest)
			require.ErrorIs(t, err, ErrCorruptArchive)
			_, err = a.ExtractOne(a.Entries()[0], dest, ExtractWithCreateDirs(false))
			require.ErrorIs(t, err, ErrCorruptArchive)

			_, statErr := os.Stat(filepath.Join(parent, "pwned.txt"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestExtractAllStopsAtFirstError(t *testing.T) {
	t.Parallel()

	a := archiveWith(t, []byte("aaaabbbb"),
		Entry{Name: "a.txt", Offset: 8, Size: 4},
		Entry{Name: `..\bad.txt`, Offset: 12, Size: 4},
		Entry{Name: "c.txt", Offset: 12, Size: 4},
	)
	dest := t.TempDir()

	stats, err := a.ExtractAll(dest)
	require.ErrorIs(t, err, ErrCorruptArchive)
	assert.Equal(t, 1, stats.Written)
	assert.Equal(t, 1, stats.Failed)
	_, statErr := os.Stat(filepath.Join(dest, "c.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractAllContinueOnError(t *testing.T) {
	t.Parallel()

	a := archiveWith(t, []byte("aaaabbbb"),
		Entry{Name: "a.txt", Offset: 8, Size: 4},
		Entry{Name: `..\bad.txt`, Offset: 12, Size: 4},
		Entry{Name: "", Offset: 12, Size: 4},
		Entry{Name: "c.txt", Offset: 12, Size: 4, Key: 0x01010101},
	)
	dest := t.TempDir()

	stats, err := a.ExtractAll(dest, ExtractWithContinueOnError(true))
	require.ErrorIs(t, err, ErrCorruptArchive)
	assert.Equal(t, 2, stats.Written)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, string(keystream.Decrypt([]byte("bbbb"), 0x01010101)), readFile(t, filepath.Join(dest, "c.txt")))
}

func TestExtractTruncatedSource(t *testing.T) {
	t.Parallel()

	data := testutil.BuildV1(t, sampleFiles...)
	path := testutil.WriteArchive(t, "Game.rgssad", data)
	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	last := a.Entries()[len(sampleFiles)-1]
	require.NoError(t, os.Truncate(path, last.Offset+last.Size-3))

	dest := t.TempDir()
	_, err = a.ExtractOne(last, dest)
	require.ErrorIs(t, err, ErrTruncatedArchive)

	_, statErr := os.Stat(filepath.Join(dest, "Game.ini"))
	assert.True(t, os.IsNotExist(statErr), "partial file left behind")
}

func TestExtractRangeOutsideArchive(t *testing.T) {
	t.Parallel()

	a := openSample(t, testutil.BuildV1)
	entry := a.Entries()[0]
	entry.Size = a.Size()

	_, err := a.ExtractOne(entry, t.TempDir())
	require.ErrorIs(t, err, ErrCorruptArchive)
}

func TestExtractAllWorkers(t *testing.T) {
	t.Parallel()

	files := make([]testutil.File, 40)
	for i := range files {
		files[i] = testutil.File{
			Name: fmt.Sprintf(`Audio\SE\%02d\sound%02d.ogg`, i%5, i),
			Data: []byte(strings.Repeat(fmt.Sprintf("%02d", i), 100+i)),
			Key:  uint32(i) * 2654435761,
		}
	}
	path := testutil.WriteArchive(t, "Game.rgss3a", testutil.BuildV3(t, 77, files...))
	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	var seen atomic.Int32
	dest := t.TempDir()
	stats, err := a.ExtractAll(dest, ExtractWithWorkers(4), ExtractWithProgress(func(Result) {
		seen.Add(1)
	}))
	require.NoError(t, err)
	assert.Equal(t, len(files), stats.Written)
	assert.Equal(t, int32(len(files)), seen.Load())
	for _, f := range files {
		assert.Equal(t, string(f.Data), readFile(t, filepath.Join(dest, toHost(f.Name))))
	}

	// The shared handle is still positioned for serial use afterwards.
	res, err := a.ExtractOne(a.Entries()[3], t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, StatusWritten, res.Status)
}

func TestExtractAllWorkersStopOnError(t *testing.T) {
	t.Parallel()

	files := []testutil.File{
		{Name: "a.txt", Data: []byte("a")},
		{Name: `..\evil.txt`, Data: []byte("e")},
		{Name: "b.txt", Data: []byte("b")},
	}
	path := testutil.WriteArchive(t, "Game.rgss3a", testutil.BuildV3(t, 1, files...))
	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.ExtractAll(filepath.Join(t.TempDir(), "out"), ExtractWithWorkers(2))
	require.ErrorIs(t, err, ErrCorruptArchive)

	stats, err := a.ExtractAll(t.TempDir(), ExtractWithWorkers(2), ExtractWithContinueOnError(true))
	require.ErrorIs(t, err, ErrCorruptArchive)
	assert.Equal(t, 2, stats.Written)
	assert.Equal(t, 1, stats.Failed)
}
