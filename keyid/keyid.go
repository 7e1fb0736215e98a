// Package keyid defines the 64-bit key identifier used to select keys in
// keyrings and encrypted messages, and the conversions that normalize the
// various shapes a key id shows up in (raw integer, fingerprint, parsed key).
package keyid

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/packet"
)

// ID is an OpenPGP key identifier: the low 64 bits of the key fingerprint.
// It is treated as opaque everywhere except at construction.
type ID uint64

// FromUint64 wraps a raw 64-bit key id.
func FromUint64(v uint64) ID {
	return ID(v)
}

// FromFingerprint derives the key id from a key fingerprint. The id is the
// trailing 8 bytes of the fingerprint, big-endian. Fingerprints shorter than
// 8 bytes are malformed.
func FromFingerprint(fp []byte) (ID, error) {
	if len(fp) < 8 {
		return 0, fmt.Errorf("fingerprint too short: %d bytes", len(fp))
	}
	return ID(binary.BigEndian.Uint64(fp[len(fp)-8:])), nil
}

// FromPublicKey returns the id of a parsed public key.
func FromPublicKey(pk *packet.PublicKey) ID {
	return ID(pk.KeyId)
}

// FromPrivateKey returns the id of a parsed private key.
func FromPrivateKey(pk *packet.PrivateKey) ID {
	return ID(pk.KeyId)
}

// FromEntity returns the id of an entity's primary key.
func FromEntity(e *openpgp.Entity) ID {
	return ID(e.PrimaryKey.KeyId)
}

// Parse reads a hexadecimal key id, with or without a leading "0x".
func Parse(s string) (ID, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid key id %q: %w", s, err)
	}
	return ID(v), nil
}

// String renders the conventional 16-digit uppercase hex form.
func (id ID) String() string {
	return fmt.Sprintf("%016X", uint64(id))
}
