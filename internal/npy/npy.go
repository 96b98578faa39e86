// Package npy reads and writes 2-D float32 arrays in the NumPy .npy
// version 1.0 format, little-endian ('<f4'), C order. That is the only
// shape of array this project produces, so the general dtype machinery
// of the format is deliberately not implemented.
package npy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var magic = []byte("\x93NUMPY")

// ErrBadHeader indicates the file is not a .npy file this package can read.
var ErrBadHeader = errors.New("invalid npy header")

// Matches the header dict written by numpy and by Write below, e.g.
// {'descr': '<f4', 'fortran_order': False, 'shape': (41995, 384), }
var headerRe = regexp.MustCompile(`'descr':\s*'([^']+)',\s*'fortran_order':\s*(True|False),\s*'shape':\s*\((\d+),\s*(\d+)\s*\)`)

// Write serializes rows as a version 1.0 .npy array of shape
// (len(rows), cols). Every row must have exactly cols values. An empty
// rows slice writes a (0, cols) array so the artifact keeps declaring
// its width.
func Write(w io.Writer, rows [][]float32, cols int) error {
	for i, row := range rows {
		if len(row) != cols {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), cols)
		}
	}

	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", len(rows), cols)
	// Total header size (magic + version + length field + dict + newline)
	// is padded with spaces to a multiple of 64, per the format spec.
	unpadded := len(magic) + 2 + 2 + len(header) + 1
	padding := (64 - unpadded%64) % 64
	header += strings.Repeat(" ", padding) + "\n"

	if _, err := w.Write(magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(header)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte(header)); err != nil {
		return err
	}

	buf := make([]byte, cols*4)
	for _, row := range rows {
		for i, v := range row {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// Read parses a .npy file written by Write (or by numpy with the same
// dtype) and returns its rows plus the declared column count. The column
// count is returned separately so a (0, cols) array still reports its
// width.
func Read(r io.Reader) ([][]float32, int, error) {
	head := make([]byte, 8)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if string(head[:6]) != string(magic) {
		return nil, 0, fmt.Errorf("%w: bad magic", ErrBadHeader)
	}
	if head[6] != 1 {
		return nil, 0, fmt.Errorf("%w: unsupported version %d.%d", ErrBadHeader, head[6], head[7])
	}

	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	headerLen := binary.LittleEndian.Uint16(lenBuf[:])

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}

	m := headerRe.FindSubmatch(header)
	if m == nil {
		return nil, 0, fmt.Errorf("%w: unparseable header dict %q", ErrBadHeader, header)
	}
	if descr := string(m[1]); descr != "<f4" {
		return nil, 0, fmt.Errorf("unsupported dtype %q, want <f4", descr)
	}
	if string(m[2]) == "True" {
		return nil, 0, errors.New("fortran_order arrays are not supported")
	}
	nrows, err := strconv.Atoi(string(m[3]))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: bad row count: %v", ErrBadHeader, err)
	}
	ncols, err := strconv.Atoi(string(m[4]))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: bad column count: %v", ErrBadHeader, err)
	}

	rows := make([][]float32, nrows)
	buf := make([]byte, ncols*4)
	for i := range rows {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, 0, fmt.Errorf("reading row %d of %d: %w", i, nrows, err)
		}
		row := make([]float32, ncols)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		rows[i] = row
	}
	return rows, ncols, nil
}
