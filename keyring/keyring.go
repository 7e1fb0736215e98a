// Package keyring provides read-only key containers queryable by key id.
//
// Four shapes are supported: a single public ring (one certificate), a
// collection of public rings, a single secret ring, and a collection of
// secret rings. All four satisfy the KeyRing interface; lookups that miss
// report absence with a false boolean rather than an error.
package keyring

import (
	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/packet"

	"github.com/mreinhardt/go-pgp/keyid"
)

// KeyRing is the uniform lookup surface over any key container shape.
// Public-only containers report every secret lookup as absent.
type KeyRing interface {
	// PublicKeys lists the public keys (or public halves) in the container.
	PublicKeys() []*packet.PublicKey
	// SecretKeys lists the secret keys in the container.
	SecretKeys() []*packet.PrivateKey
	// PublicKey finds a public key by id.
	PublicKey(id keyid.ID) (*packet.PublicKey, bool)
	// SecretKey finds a secret key by id.
	SecretKey(id keyid.ID) (*packet.PrivateKey, bool)
}

// Resolver adapts a keyring into the key-resolution callback shape consumed
// by message.Decrypt: absent means "try the next candidate session".
func Resolver(kr KeyRing) func(keyid.ID) (*packet.PrivateKey, bool) {
	return kr.SecretKey
}

// PublicRing is a single certificate: one primary public key and its
// subkeys, without secret material.
type PublicRing struct {
	entity *openpgp.Entity
}

var _ KeyRing = &PublicRing{}

// NewPublicRing wraps a parsed certificate.
func NewPublicRing(e *openpgp.Entity) *PublicRing {
	return &PublicRing{entity: e}
}

// Entity exposes the underlying certificate.
func (r *PublicRing) Entity() *openpgp.Entity {
	return r.entity
}

func (r *PublicRing) PublicKeys() []*packet.PublicKey {
	keys := []*packet.PublicKey{r.entity.PrimaryKey}
	for _, sub := range r.entity.Subkeys {
		keys = append(keys, sub.PublicKey)
	}
	return keys
}

func (r *PublicRing) SecretKeys() []*packet.PrivateKey {
	return nil
}

func (r *PublicRing) PublicKey(id keyid.ID) (*packet.PublicKey, bool) {
	for _, pk := range r.PublicKeys() {
		if keyid.FromPublicKey(pk) == id {
			return pk, true
		}
	}
	return nil, false
}

func (r *PublicRing) SecretKey(id keyid.ID) (*packet.PrivateKey, bool) {
	return nil, false
}

// EncryptionKey selects a key in the ring usable for encrypting to its
// owner, preferring an encryption subkey over the primary key.
func (r *PublicRing) EncryptionKey() (*packet.PublicKey, bool) {
	for _, sub := range r.entity.Subkeys {
		if sub.Sig != nil && sub.Sig.FlagsValid && !sub.Sig.FlagEncryptCommunications && !sub.Sig.FlagEncryptStorage {
			continue
		}
		if sub.PublicKey.PubKeyAlgo.CanEncrypt() {
			return sub.PublicKey, true
		}
	}
	if r.entity.PrimaryKey.PubKeyAlgo.CanEncrypt() {
		return r.entity.PrimaryKey, true
	}
	return nil, false
}

// SecretRing is a single certificate carrying secret key material alongside
// the public halves.
type SecretRing struct {
	entity *openpgp.Entity
}

var _ KeyRing = &SecretRing{}

// NewSecretRing wraps a parsed certificate with secret material.
func NewSecretRing(e *openpgp.Entity) *SecretRing {
	return &SecretRing{entity: e}
}

// Entity exposes the underlying certificate.
func (r *SecretRing) Entity() *openpgp.Entity {
	return r.entity
}

func (r *SecretRing) PublicKeys() []*packet.PublicKey {
	keys := []*packet.PublicKey{r.entity.PrimaryKey}
	for _, sub := range r.entity.Subkeys {
		keys = append(keys, sub.PublicKey)
	}
	return keys
}

func (r *SecretRing) SecretKeys() []*packet.PrivateKey {
	var keys []*packet.PrivateKey
	if r.entity.PrivateKey != nil {
		keys = append(keys, r.entity.PrivateKey)
	}
	for _, sub := range r.entity.Subkeys {
		if sub.PrivateKey != nil {
			keys = append(keys, sub.PrivateKey)
		}
	}
	return keys
}

func (r *SecretRing) PublicKey(id keyid.ID) (*packet.PublicKey, bool) {
	for _, pk := range r.PublicKeys() {
		if keyid.FromPublicKey(pk) == id {
			return pk, true
		}
	}
	return nil, false
}

func (r *SecretRing) SecretKey(id keyid.ID) (*packet.PrivateKey, bool) {
	for _, sk := range r.SecretKeys() {
		if keyid.FromPrivateKey(sk) == id {
			return sk, true
		}
	}
	return nil, false
}
