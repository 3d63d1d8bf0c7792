package archive

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aldrheim/xnbtools/pkg/xnb"
)

func testHeader() *Header {
	return NewHeader(xnb.Header{Platform: xnb.PlatformWindows, Version: xnb.VersionXNA31, HiDef: true}, 1700000000000000000, 1024)
}

func TestHeader(t *testing.T) {
	t.Run("MarshalUnmarshal", func(t *testing.T) {
		original := testHeader()
		original.CompressedLength = 512

		data, err := original.MarshalBinary()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if len(data) != HeaderSize {
			t.Fatalf("expected %d bytes, got %d", HeaderSize, len(data))
		}

		decoded := &Header{}
		if err := decoded.UnmarshalBinary(data); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		if *decoded != *original {
			t.Errorf("mismatch: got %+v, want %+v", decoded, original)
		}
	})

	t.Run("InvalidMagic", func(t *testing.T) {
		h := testHeader()
		h.CompressedLength = 512
		h.Magic = [4]byte{'Z', 'S', 'T', 'D'}
		if err := h.Validate(); err == nil {
			t.Error("expected error for invalid magic")
		}
	})

	t.Run("ZeroLength", func(t *testing.T) {
		h := testHeader()
		h.CompressedLength = 512
		h.Length = 0
		if err := h.Validate(); err == nil {
			t.Error("expected error for zero length")
		}
	})

	t.Run("UnsupportedVersion", func(t *testing.T) {
		h := testHeader()
		h.CompressedLength = 512
		h.Version = xnb.VersionXNA40
		if err := h.Validate(); !errors.Is(err, xnb.ErrUnsupportedVersion) {
			t.Errorf("expected ErrUnsupportedVersion, got %v", err)
		}
	})

	t.Run("Container", func(t *testing.T) {
		c := testHeader().Container()
		if c.Compressed || !c.HiDef || c.PayloadSize() != 1024 {
			t.Errorf("unexpected container header %s", &c)
		}
	})
}

func TestReadWrite(t *testing.T) {
	original := bytes.Repeat([]byte("Microsoft.Xna.Framework.Content.Texture2DReader"), 8)

	t.Run("EncodeDecodeRoundTrip", func(t *testing.T) {
		var f memFile
		if err := Encode(&f, testHeader(), original); err != nil {
			t.Fatalf("encode: %v", err)
		}

		h, decoded, err := ReadAll(bytes.NewReader(f.data))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}

		if !bytes.Equal(decoded, original) {
			t.Errorf("data mismatch: got %q, want %q", decoded, original)
		}
		if h.Length != uint64(len(original)) {
			t.Errorf("expected length %d, got %d", len(original), h.Length)
		}
		if int(h.CompressedLength) != len(f.data)-HeaderSize {
			t.Errorf("expected compressed length %d, got %d", len(f.data)-HeaderSize, h.CompressedLength)
		}
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "tree.xnbz")
		if err := WriteFile(path, testHeader(), original, WithCompressionLevel(3)); err != nil {
			t.Fatalf("write: %v", err)
		}

		h, decoded, err := ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !bytes.Equal(decoded, original) {
			t.Errorf("data mismatch: got %q, want %q", decoded, original)
		}
		if h.SourceModTime != 1700000000000000000 || h.Platform != xnb.PlatformWindows {
			t.Errorf("unexpected header %+v", h)
		}

		entries, err := os.ReadDir(filepath.Dir(path))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only the cache file, got %d entries", len(entries))
		}
	})

	t.Run("TruncatedHeader", func(t *testing.T) {
		if _, _, err := ReadAll(bytes.NewReader(Magic[:])); err == nil {
			t.Error("expected error for truncated header")
		}
	})
}

// memFile is an in-memory io.WriteSeeker.
type memFile struct {
	data []byte
	pos  int
}

func (m *memFile) Write(p []byte) (int, error) {
	if end := m.pos + len(p); end > len(m.data) {
		m.data = append(m.data, make([]byte, end-len(m.data))...)
	}
	n := copy(m.data[m.pos:], p)
	m.pos += n
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = int(offset)
	case io.SeekCurrent:
		m.pos += int(offset)
	case io.SeekEnd:
		m.pos = len(m.data) + int(offset)
	}
	if m.pos < 0 {
		return 0, errors.New("negative position")
	}
	return int64(m.pos), nil
}
