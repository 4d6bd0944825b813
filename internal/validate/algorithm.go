// SPDX-License-Identifier: MPL-2.0

// Package validate checks that copies hold the same data as their source by
// comparing checksums.
package validate

import (
	"context"
	"crypto/md5"  //nolint:gosec // integrity check, not security
	"crypto/sha1" //nolint:gosec // integrity check, not security
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Supported algorithms.
const (
	CRC32  Algorithm = "crc32"
	CRC32C Algorithm = "crc32c"
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
	BLAKE3 Algorithm = "blake3"

	// DefaultAlgorithm is used when none is configured.
	DefaultAlgorithm = CRC32C
)

// chunkSize is how much of a file is hashed between cancellation checks.
const chunkSize = 1 << 20

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

type (
	// Algorithm names a checksum algorithm.
	Algorithm string

	// Sum is a checksum in the algorithm's canonical big-endian byte order.
	Sum []byte
)

// Algorithms lists every supported algorithm.
func Algorithms() []Algorithm {
	return []Algorithm{CRC32, CRC32C, MD5, SHA1, SHA256, SHA512, BLAKE3}
}

// ParseAlgorithm validates an algorithm name. The empty string selects
// DefaultAlgorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == "" {
		return DefaultAlgorithm, nil
	}
	a := Algorithm(s)
	if a.newHash() == nil {
		return "", fmt.Errorf("unknown checksum algorithm %q", s)
	}
	return a, nil
}

func (a Algorithm) newHash() hash.Hash {
	switch a {
	case CRC32:
		return crc32.NewIEEE()
	case CRC32C:
		return crc32.New(castagnoli)
	case MD5:
		return md5.New() //nolint:gosec // integrity check, not security
	case SHA1:
		return sha1.New() //nolint:gosec // integrity check, not security
	case SHA256:
		return sha256.New()
	case SHA512:
		return sha512.New()
	case BLAKE3:
		return blake3.New()
	default:
		return nil
	}
}

// String returns the lower-case hex encoding.
func (s Sum) String() string { return hex.EncodeToString(s) }

// Checksum hashes the file at path with alg, checking ctx between chunks.
func Checksum(ctx context.Context, alg Algorithm, path string) (Sum, error) {
	h := alg.newHash()
	if h == nil {
		return nil, fmt.Errorf("unknown checksum algorithm %q", alg)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return h.Sum(nil), nil
}
