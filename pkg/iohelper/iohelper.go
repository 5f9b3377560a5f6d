// Package iohelper reads captured proxy logs into memory. Logs are written by
// third-party proxies and regularly contain stray non-UTF-8 bytes from binary
// bodies; those are replaced with U+FFFD instead of failing the read.
package iohelper

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// ErrTooLarge is returned when input exceeds the configured size limit.
var ErrTooLarge = errors.New("iohelper: input exceeds size limit")

// ReadText reads r as UTF-8 text, replacing ill-formed byte sequences.
// At most maxSize source bytes are accepted; larger input returns ErrTooLarge.
// A nil reader yields an empty string.
func ReadText(r io.Reader, maxSize int64) (string, error) {
	if r == nil {
		return "", nil
	}
	src := &countingReader{r: io.LimitReader(r, maxSize+1)}
	data, err := io.ReadAll(transform.NewReader(src, runes.ReplaceIllFormed()))
	if err != nil {
		return "", err
	}
	if src.n > maxSize {
		return "", fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxSize)
	}
	return string(data), nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// ReadFile reads the text file at path. Missing files return an error
// matching os.ErrNotExist.
func ReadFile(path string, maxSize int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("iohelper: %s is a directory", path)
	}
	if info.Size() > maxSize {
		return "", fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}
	return ReadText(f, maxSize)
}
