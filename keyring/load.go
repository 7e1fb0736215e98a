package keyring

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/openpgp"
)

// ErrMalformedKeyRing reports input that does not parse as a keyring in
// either binary or armored form.
var ErrMalformedKeyRing = errors.New("keyring: malformed keyring")

// LoadPublic reads a public keyring, binary or ASCII-armored (auto-detected),
// and returns a collection with one ring per certificate.
func LoadPublic(r io.Reader) (*PublicRingCollection, error) {
	entities, err := readRing(r)
	if err != nil {
		return nil, err
	}
	rings := make([]*PublicRing, 0, len(entities))
	for _, e := range entities {
		rings = append(rings, NewPublicRing(e))
	}
	return NewPublicRingCollection(rings...), nil
}

// LoadSecret reads a secret keyring, binary or ASCII-armored (auto-detected),
// and returns a collection with one ring per certificate.
func LoadSecret(r io.Reader) (*SecretRingCollection, error) {
	entities, err := readRing(r)
	if err != nil {
		return nil, err
	}
	rings := make([]*SecretRing, 0, len(entities))
	for _, e := range entities {
		rings = append(rings, NewSecretRing(e))
	}
	return NewSecretRingCollection(rings...), nil
}

func readRing(r io.Reader) (openpgp.EntityList, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeyRing, err)
	}

	var entities openpgp.EntityList
	// A binary OpenPGP packet always has the high bit of its first octet
	// set; armored text never does.
	if first[0]&0x80 != 0 {
		entities, err = openpgp.ReadKeyRing(br)
	} else {
		entities, err = openpgp.ReadArmoredKeyRing(br)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeyRing, err)
	}
	return entities, nil
}
