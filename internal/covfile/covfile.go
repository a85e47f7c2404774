// Package covfile opens and creates coverage files with transparent
// compression. Compression is detected by suffix: .gz and .xz files are
// decompressed on read and compressed on write, anything else passes
// through unchanged.
package covfile

import (
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/drcovkit/core/errors"
)

// Reader reads a possibly compressed coverage file.
type Reader struct {
	io.Reader
	file         *os.File
	decompressor io.Closer
}

// Open opens path for reading, decompressing .gz and .xz files by suffix.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}

	var reader io.Reader = f
	var decompressor io.Closer

	switch {
	case strings.HasSuffix(path, ".xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.NewIO("open", path, err)
		}
		reader = xzr
		decompressor = nil // xz reader doesn't need closing
	case strings.HasSuffix(path, ".gz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.NewIO("open", path, err)
		}
		reader = gzr
		decompressor = gzr
	}

	return &Reader{
		Reader:       reader,
		file:         f,
		decompressor: decompressor,
	}, nil
}

// Close closes the reader and any underlying decompressor.
func (r *Reader) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// ReadFile reads the whole coverage file at path, decompressed.
func ReadFile(path string) ([]byte, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return data, nil
}

// Writer writes a possibly compressed coverage file.
type Writer struct {
	io.Writer
	file       *os.File
	compressor io.Closer
}

// Create creates path for writing, compressing by suffix like Open.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.NewIO("create", path, err)
	}

	var writer io.Writer = f
	var compressor io.Closer

	switch {
	case strings.HasSuffix(path, ".xz"):
		xzw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, errors.NewIO("create", path, err)
		}
		writer = xzw
		compressor = xzw
	case strings.HasSuffix(path, ".gz"):
		gzw := gzip.NewWriter(f)
		writer = gzw
		compressor = gzw
	}

	return &Writer{
		Writer:     writer,
		file:       f,
		compressor: compressor,
	}, nil
}

// Close flushes the compressor and closes the file.
func (w *Writer) Close() error {
	var errs []error
	if w.compressor != nil {
		if err := w.compressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// WriteFile writes data to path, compressed per suffix.
func WriteFile(path string, data []byte) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return errors.NewIO("write", path, err)
	}
	if err := w.Close(); err != nil {
		return errors.NewIO("close", path, err)
	}
	return nil
}
