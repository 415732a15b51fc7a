package checksum

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/spf13/afero"

	"github.com/Ning0612/aud/internal/domain"
)

// Algorithm represents the hashing algorithm to use
type Algorithm string

const (
	// MD5 is faster and good enough to compare a copy with its source
	MD5 Algorithm = "md5"
	// SHA256 is the default
	SHA256 Algorithm = "sha256"
)

const bufferSize = 64 * 1024

// Verifier hashes files on a filesystem
type Verifier struct {
	fs   afero.Fs
	algo Algorithm
}

// NewVerifier creates a Verifier. An empty algo means SHA256.
func NewVerifier(fs afero.Fs, algo Algorithm) (*Verifier, error) {
	if algo == "" {
		algo = SHA256
	}
	if !IsSupported(algo) {
		return nil, fmt.Errorf("unsupported algorithm: %s", algo)
	}
	return &Verifier{fs: fs, algo: algo}, nil
}

// Sum returns the hex digest of the file at path
func (v *Verifier) Sum(ctx context.Context, path string) (string, error) {
	f, err := v.fs.Open(path)
	if err != nil {
		return "", domain.MapError(err)
	}
	defer f.Close()

	return Calculate(ctx, f, v.algo)
}

// VerifyCopy checks that dst has the same content as src
func (v *Verifier) VerifyCopy(ctx context.Context, src, dst string) error {
	want, err := v.Sum(ctx, src)
	if err != nil {
		return fmt.Errorf("hash %s: %w", src, err)
	}
	got, err := v.Sum(ctx, dst)
	if err != nil {
		return fmt.Errorf("hash %s: %w", dst, err)
	}
	if want != got {
		return fmt.Errorf("%w: %s (%s) != %s (%s)", domain.ErrChecksumMismatch, dst, got, src, want)
	}
	return nil
}

// Calculate streams reader through the hash, checking ctx between chunks
func Calculate(ctx context.Context, reader io.Reader, algo Algorithm) (string, error) {
	var h hash.Hash
	switch algo {
	case MD5:
		h = md5.New()
	case SHA256:
		h = sha256.New()
	default:
		return "", fmt.Errorf("unsupported algorithm: %s", algo)
	}

	buffer := make([]byte, bufferSize)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			h.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read error: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsSupported checks if the given algorithm is supported
func IsSupported(algo Algorithm) bool {
	switch algo {
	case MD5, SHA256:
		return true
	default:
		return false
	}
}
