// Package validation checks user-supplied paths and input files before the
// converter touches them.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Limits on user-supplied paths and inputs.
const (
	// MaxFileSize is the maximum accepted input size (256 MB).
	MaxFileSize = 256 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrNotRegular       = errors.New("not a regular file")
	ErrFileTooLarge     = errors.New("file too large")
	ErrNotZip           = errors.New("not a ZIP container")
	ErrSamePath         = errors.New("output would overwrite input")
)

// zipMagic opens every local file header, so it starts every non-empty zip.
var zipMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// ValidatePath checks for length limits and invalid characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// ValidateFilename checks the final element of a path.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}

	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}

	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}

	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}

	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}

	return nil
}

// ValidateInputFile checks that path names an existing regular file no
// larger than MaxFileSize.
func ValidateInputFile(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	if info.Size() > MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, info.Size(), MaxFileSize)
	}
	return nil
}

// ValidateOutputPath checks an output path and that it does not resolve to
// the input.
func ValidateOutputPath(input, output string) error {
	if err := ValidatePath(output); err != nil {
		return err
	}
	if err := ValidateFilename(filepath.Base(output)); err != nil {
		return err
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("failed to resolve input: %w", err)
	}
	absOut, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("failed to resolve output: %w", err)
	}
	if absIn == absOut {
		return fmt.Errorf("%w: %s", ErrSamePath, output)
	}
	return nil
}

// CheckZipMagic reads the first bytes of r and reports ErrNotZip unless
// they carry a ZIP local file header signature.
func CheckZipMagic(r io.Reader) error {
	buf := make([]byte, len(zipMagic))
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("failed to read file header: %w", err)
	}
	if !bytes.Equal(buf[:n], zipMagic) {
		return ErrNotZip
	}
	return nil
}
