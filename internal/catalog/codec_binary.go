package catalog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"time"

	"github.com/logsift/logsift/internal/config"
)

const (
	// Magic bytes for file identification
	binaryHeaderMagic = "LSIFCAT\x00"
	binaryFooterMagic = "LSIFEND\x00"

	// Current binary format version
	binaryFormatVersion = 1

	// Fixed header size: magic(8) + version(4) + created(8) + count(4) +
	// next id(8) + reserved(16)
	binaryHeaderSize = 48

	// Fixed footer size: checksum(4) + magic(8)
	binaryFooterSize = 12
)

// binaryHeader describes a binary catalog file.
type binaryHeader struct {
	Version        uint32
	CreatedAt      int64
	TemplateCount  uint32
	NextTemplateID uint64
}

// SaveBinary writes the registry's templates to a binary catalog file: a
// fixed header, a length-prefixed record per template, and a CRC32 footer.
// Fragment tables and automata are not persisted; load rebuilds them by
// replaying Add, which keeps the file format insensitive to automaton
// implementation changes.
//
// The write is atomic: a temp file is written and renamed into place.
func SaveBinary(path string, r *Registry) error {
	templates := r.AllTemplates()

	if uint64(len(templates)) > math.MaxUint32 {
		return fmt.Errorf("catalog too large for binary format: %d templates", len(templates))
	}

	var buf bytes.Buffer
	header := binaryHeader{
		Version:        binaryFormatVersion,
		CreatedAt:      time.Now().UnixNano(),
		TemplateCount:  uint32(len(templates)),
		NextTemplateID: r.nextTemplateID(),
	}
	if err := writeBinaryHeader(&buf, header); err != nil {
		return fmt.Errorf("failed to encode catalog header: %w", err)
	}

	for i := range templates {
		if err := writeBinaryRecord(&buf, &templates[i]); err != nil {
			return fmt.Errorf("failed to encode template %d: %w", templates[i].TemplateID, err)
		}
	}

	// Footer: CRC32 over header and records, then end magic
	checksum := crc32.ChecksumIEEE(buf.Bytes())
	var crcBytes [4]byte
	binary.LittleEndian.PutUint32(crcBytes[:], checksum)
	buf.Write(crcBytes[:])
	buf.WriteString(binaryFooterMagic)

	return writeFileAtomic(path, buf.Bytes())
}

// LoadBinary reads a binary catalog file into a fresh registry built with
// the given configuration. Non-zero ids in the file are honored verbatim;
// the header's next-template-id hint seeds the allocator. The call either
// returns a fully populated registry or an error with no partial state.
func LoadBinary(path string, cfg config.MatcherConfig) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	if len(data) < binaryHeaderSize+binaryFooterSize {
		return nil, fmt.Errorf("catalog file truncated: %d bytes", len(data))
	}

	body := data[:len(data)-binaryFooterSize]
	footer := data[len(data)-binaryFooterSize:]

	if string(footer[4:]) != binaryFooterMagic {
		return nil, fmt.Errorf("invalid catalog footer magic")
	}
	wantSum := binary.LittleEndian.Uint32(footer[:4])
	if gotSum := crc32.ChecksumIEEE(body); gotSum != wantSum {
		return nil, fmt.Errorf("catalog checksum mismatch: got %08x, want %08x", gotSum, wantSum)
	}

	rd := bytes.NewReader(body)
	header, err := readBinaryHeader(rd)
	if err != nil {
		return nil, err
	}

	templates := make([]Template, 0, header.TemplateCount)
	for i := uint32(0); i < header.TemplateCount; i++ {
		t, err := readBinaryRecord(rd)
		if err != nil {
			return nil, fmt.Errorf("failed to decode template record %d: %w", i, err)
		}
		templates = append(templates, t)
	}
	if rd.Len() != 0 {
		return nil, fmt.Errorf("catalog has %d trailing bytes after %d records", rd.Len(), header.TemplateCount)
	}

	reg := NewRegistry(cfg)
	reg.AddBatch(templates)
	reg.SeedNextID(header.NextTemplateID)
	return reg, nil
}

func writeBinaryHeader(buf *bytes.Buffer, h binaryHeader) error {
	raw := make([]byte, binaryHeaderSize)
	pos := 0

	copy(raw[pos:pos+8], binaryHeaderMagic)
	pos += 8

	binary.LittleEndian.PutUint32(raw[pos:pos+4], h.Version)
	pos += 4

	binary.LittleEndian.PutUint64(raw[pos:pos+8], uint64(h.CreatedAt))
	pos += 8

	binary.LittleEndian.PutUint32(raw[pos:pos+4], h.TemplateCount)
	pos += 4

	binary.LittleEndian.PutUint64(raw[pos:pos+8], h.NextTemplateID)
	pos += 8

	// Remaining 16 bytes are reserved for future extensions
	pos += 16

	if pos != binaryHeaderSize {
		return fmt.Errorf("header buffer size mismatch: expected %d, got %d", binaryHeaderSize, pos)
	}

	_, err := buf.Write(raw)
	return err
}

func readBinaryHeader(rd *bytes.Reader) (binaryHeader, error) {
	raw := make([]byte, binaryHeaderSize)
	if _, err := io.ReadFull(rd, raw); err != nil {
		return binaryHeader{}, fmt.Errorf("failed to read catalog header: %w", err)
	}

	if string(raw[:8]) != binaryHeaderMagic {
		return binaryHeader{}, fmt.Errorf("invalid catalog header magic")
	}

	h := binaryHeader{
		Version:        binary.LittleEndian.Uint32(raw[8:12]),
		CreatedAt:      int64(binary.LittleEndian.Uint64(raw[12:20])),
		TemplateCount:  binary.LittleEndian.Uint32(raw[20:24]),
		NextTemplateID: binary.LittleEndian.Uint64(raw[24:32]),
	}

	if h.Version != binaryFormatVersion {
		return binaryHeader{}, fmt.Errorf("unsupported catalog format version: %d", h.Version)
	}

	return h, nil
}

// writeBinaryRecord encodes one template: id, pattern, variable list,
// example. Strings are u32-length-prefixed UTF-8.
func writeBinaryRecord(buf *bytes.Buffer, t *Template) error {
	var idBytes [8]byte
	binary.LittleEndian.PutUint64(idBytes[:], t.TemplateID)
	buf.Write(idBytes[:])

	if err := writeLenPrefixed(buf, t.Pattern); err != nil {
		return err
	}

	if uint64(len(t.Variables)) > math.MaxUint32 {
		return fmt.Errorf("too many variables: %d", len(t.Variables))
	}
	var countBytes [4]byte
	binary.LittleEndian.PutUint32(countBytes[:], uint32(len(t.Variables)))
	buf.Write(countBytes[:])
	for _, v := range t.Variables {
		if err := writeLenPrefixed(buf, v); err != nil {
			return err
		}
	}

	return writeLenPrefixed(buf, t.Example)
}

func readBinaryRecord(rd *bytes.Reader) (Template, error) {
	var t Template

	var idBytes [8]byte
	if _, err := io.ReadFull(rd, idBytes[:]); err != nil {
		return t, fmt.Errorf("failed to read template id: %w", err)
	}
	t.TemplateID = binary.LittleEndian.Uint64(idBytes[:])

	pattern, err := readLenPrefixed(rd)
	if err != nil {
		return t, fmt.Errorf("failed to read pattern: %w", err)
	}
	t.Pattern = pattern

	var countBytes [4]byte
	if _, err := io.ReadFull(rd, countBytes[:]); err != nil {
		return t, fmt.Errorf("failed to read variable count: %w", err)
	}
	count := binary.LittleEndian.Uint32(countBytes[:])
	if int64(count) > int64(rd.Len()) {
		return t, fmt.Errorf("variable count %d exceeds remaining data", count)
	}
	if count > 0 {
		t.Variables = make([]string, 0, count)
		for i := uint32(0); i < count; i++ {
			v, err := readLenPrefixed(rd)
			if err != nil {
				return t, fmt.Errorf("failed to read variable %d: %w", i, err)
			}
			t.Variables = append(t.Variables, v)
		}
	}

	example, err := readLenPrefixed(rd)
	if err != nil {
		return t, fmt.Errorf("failed to read example: %w", err)
	}
	t.Example = example

	return t, nil
}

func writeLenPrefixed(buf *bytes.Buffer, s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return fmt.Errorf("string too long: %d bytes", len(s))
	}
	var lenBytes [4]byte
	binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(s)))
	buf.Write(lenBytes[:])
	buf.WriteString(s)
	return nil
}

func readLenPrefixed(rd *bytes.Reader) (string, error) {
	var lenBytes [4]byte
	if _, err := io.ReadFull(rd, lenBytes[:]); err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint32(lenBytes[:])
	if int64(n) > int64(rd.Len()) {
		return "", fmt.Errorf("string length %d exceeds remaining data", n)
	}
	raw := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(rd, raw); err != nil {
			return "", err
		}
	}
	return string(raw), nil
}

// writeFileAtomic writes data to a temp file and renames it into place.
// POSIX rename atomicity prevents a crash from leaving a torn catalog.
func writeFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp catalog: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename catalog into place: %w", err)
	}
	return nil
}
