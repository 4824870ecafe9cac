package digest

import (
	"crypto/md5"  //nolint:gosec // G501: md5 is offered for filename templating, not security
	"crypto/sha1" //nolint:gosec // G505: sha1 is offered for filename templating, not security
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base32"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// DefaultAlgorithm is used when a template or caller names no algorithm.
const DefaultAlgorithm = "blake3"

// DefaultEncoding is used when a template or caller names no encoding.
const DefaultEncoding = "hex"

var lowerBase32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Sum returns the BLAKE3 hex digest of content. It is the stable content
// identity used for dedup and the emit manifest.
func Sum(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Compute hashes content with the named algorithm and encodes the digest.
// An empty algorithm or encoding selects the default.
func Compute(algorithm, encoding string, content []byte) (string, error) {
	raw, err := rawDigest(strings.ToLower(algorithm), content)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(encoding) {
	case "", "hex":
		return hex.EncodeToString(raw), nil
	case "base32":
		return strings.ToLower(lowerBase32.EncodeToString(raw)), nil
	case "base64":
		return base64.RawURLEncoding.EncodeToString(raw), nil
	default:
		return "", fmt.Errorf("unknown digest encoding %q", encoding)
	}
}

// Supported reports whether algorithm is a known hash name.
func Supported(algorithm string) bool {
	_, err := newHash(strings.ToLower(algorithm))
	return err == nil
}

func rawDigest(algorithm string, content []byte) ([]byte, error) {
	if algorithm == "xxhash64" || algorithm == "xxhash" {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], xxhash.Sum64(content))
		return buf[:], nil
	}

	h, err := newHash(algorithm)
	if err != nil {
		return nil, err
	}
	h.Write(content)
	return h.Sum(nil), nil
}

//nolint:ireturn // returns the hash.Hash for the requested algorithm
func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "", "blake3":
		return blake3.New(), nil
	case "xxhash64", "xxhash":
		return xxhash.New(), nil
	case "md5":
		return md5.New(), nil //nolint:gosec // see import
	case "sha1":
		return sha1.New(), nil //nolint:gosec // see import
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", algorithm)
	}
}
