// Package container reads and writes the gzipped tar archives holding a
// single contents.xml document, the on-disk shape of .target files.
package container

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
)

// ErrNoContents indicates the archive holds no contents.xml member.
var ErrNoContents = errors.New("container: archive has no contents.xml")

const memberName = "contents.xml"

// WriteArchive stores xml as the contents.xml member of a gzipped tar
// archive at fname, encoded UTF-16LE with a byte order mark. The tar
// format is caller-chosen since the consuming tools are picky about it.
// The archive is staged under a temporary name in the destination
// directory and renamed into place only once fully written.
func WriteArchive(fname string, format tar.Format, xml string) (err error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	payload, err := enc.Bytes([]byte("\uFEFF" + xml))
	if err != nil {
		return fmt.Errorf("container: encode contents: %w", err)
	}

	dir := filepath.Dir(fname)
	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err = writeMember(f, format, payload); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, fname)
}

func writeMember(w io.Writer, format tar.Format, payload []byte) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	hdr := &tar.Header{
		Name:   memberName,
		Mode:   0644,
		Size:   int64(len(payload)),
		Format: format,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("container: write header: %w", err)
	}
	if _, err := tw.Write(payload); err != nil {
		return fmt.Errorf("container: write contents: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("container: close tar: %w", err)
	}
	return gz.Close()
}

// ReadArchive extracts and decodes the contents.xml member of the archive
// at fname. Both UTF-8 and UTF-16LE payloads are accepted; a leading byte
// order mark is stripped.
func ReadArchive(fname string) (string, error) {
	f, err := os.Open(fname)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("container: open gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return "", ErrNoContents
		}
		if err != nil {
			return "", fmt.Errorf("container: read tar: %w", err)
		}
		if filepath.Base(hdr.Name) != memberName {
			continue
		}
		raw, err := io.ReadAll(tr)
		if err != nil {
			return "", fmt.Errorf("container: read contents: %w", err)
		}
		return decode(raw)
	}
}

func decode(raw []byte) (string, error) {
	if utf8.Valid(raw) && !bytes.ContainsRune(raw, 0) {
		return strings.TrimPrefix(string(raw), "\uFEFF"), nil
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	text, err := dec.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("container: decode contents: %w", err)
	}
	return strings.TrimPrefix(string(text), "\uFEFF"), nil
}
