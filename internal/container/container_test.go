package container

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	const doc = "<Dinver>\n  <pluginTag>DispersionCurve</pluginTag>\n</Dinver>\n"
	for _, format := range []tar.Format{tar.FormatGNU, tar.FormatPAX} {
		fname := filepath.Join(t.TempDir(), "site.target")
		require.NoError(t, WriteArchive(fname, format, doc))

		back, err := ReadArchive(fname)
		require.NoError(t, err)
		assert.Equal(t, doc, back, "format %s", format)
	}
}

func TestWriteArchivePayloadIsUTF16(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "site.target")
	require.NoError(t, WriteArchive(fname, tar.FormatGNU, "<a/>"))

	f, err := os.Open(fname)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)
	hdr, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "contents.xml", hdr.Name)

	raw, err := io.ReadAll(tr)
	require.NoError(t, err)
	require.Equal(t, int(hdr.Size), len(raw))
	// Byte order mark followed by little-endian code units.
	assert.Equal(t, []byte{0xff, 0xfe, '<', 0x00}, raw[:4])
}

func TestReadArchiveAcceptsUTF8(t *testing.T) {
	const doc = "\uFEFF<Dinver></Dinver>"
	fname := filepath.Join(t.TempDir(), "plain.target")

	f, err := os.Create(fname)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "contents.xml", Mode: 0644, Size: int64(len(doc))}))
	_, err = tw.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	back, err := ReadArchive(fname)
	require.NoError(t, err)
	assert.Equal(t, "<Dinver></Dinver>", back)
}

func TestReadArchiveNoContents(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "other.target")

	f, err := os.Create(fname)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "readme.txt", Mode: 0644, Size: 2}))
	_, err = tw.Write([]byte("hi"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	_, err = ReadArchive(fname)
	assert.ErrorIs(t, err, ErrNoContents)
}

func TestWriteArchiveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteArchive(filepath.Join(dir, "site.target"), tar.FormatPAX, "<a/>"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "site.target", entries[0].Name())
}
