package mnist

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// IDX file magics, big-endian.
const (
	imageMagic = 2051
	labelMagic = 2049
)

// Header sanity caps. The headers come from untrusted files and size
// allocations directly; a corrupt count must fail instead of demanding
// gigabytes.
const (
	maxItems = 1 << 24
	maxSide  = 4096
)

// openMaybeGzip opens path, transparently decompressing .gz files.
// The returned closer releases both the file and any gzip reader.
func openMaybeGzip(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, f.Close, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("open gzip %s: %w", path, err)
	}
	closer := func() error {
		gzErr := gz.Close()
		if err := f.Close(); err != nil {
			return err
		}
		return gzErr
	}
	return gz, closer, nil
}

// readImages parses an IDX3 image file: magic, count, rows, cols, then
// count*rows*cols unsigned bytes.
func readImages(r io.Reader) (pixels []byte, count, rows, cols int, err error) {
	var header [4]uint32
	if err = binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, 0, fmt.Errorf("read image header: %w", err)
	}
	if header[0] != imageMagic {
		return nil, 0, 0, 0, fmt.Errorf("bad image magic %d, want %d", header[0], imageMagic)
	}
	count, rows, cols = int(header[1]), int(header[2]), int(header[3])
	if count < 0 || count > maxItems {
		return nil, 0, 0, 0, fmt.Errorf("implausible image count %d", count)
	}
	if rows < 1 || rows > maxSide || cols < 1 || cols > maxSide {
		return nil, 0, 0, 0, fmt.Errorf("implausible image size %dx%d", rows, cols)
	}

	pixels = make([]byte, count*rows*cols)
	if _, err = io.ReadFull(r, pixels); err != nil {
		return nil, 0, 0, 0, fmt.Errorf("read %d images: %w", count, err)
	}
	return pixels, count, rows, cols, nil
}

// readLabels parses an IDX1 label file: magic, count, then count bytes.
func readLabels(r io.Reader) ([]byte, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("read label header: %w", err)
	}
	if header[0] != labelMagic {
		return nil, fmt.Errorf("bad label magic %d, want %d", header[0], labelMagic)
	}
	if header[1] > maxItems {
		return nil, fmt.Errorf("implausible label count %d", header[1])
	}

	labels := make([]byte, header[1])
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("read %d labels: %w", header[1], err)
	}
	return labels, nil
}
