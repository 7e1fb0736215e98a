package keyring

import (
	"golang.org/x/crypto/openpgp/packet"

	"github.com/mreinhardt/go-pgp/keyid"
)

// PublicRingCollection holds zero or more public rings and answers every
// query by delegating to its members. Lookups are a short-circuiting linear
// search in member order; the first match wins.
type PublicRingCollection struct {
	rings []*PublicRing
}

var _ KeyRing = &PublicRingCollection{}

// NewPublicRingCollection builds a collection over the given rings.
func NewPublicRingCollection(rings ...*PublicRing) *PublicRingCollection {
	return &PublicRingCollection{rings: rings}
}

// Rings exposes the member rings in iteration order.
func (c *PublicRingCollection) Rings() []*PublicRing {
	return c.rings
}

func (c *PublicRingCollection) PublicKeys() []*packet.PublicKey {
	var keys []*packet.PublicKey
	for _, r := range c.rings {
		keys = append(keys, r.PublicKeys()...)
	}
	return keys
}

func (c *PublicRingCollection) SecretKeys() []*packet.PrivateKey {
	return nil
}

func (c *PublicRingCollection) PublicKey(id keyid.ID) (*packet.PublicKey, bool) {
	for _, r := range c.rings {
		if pk, ok := r.PublicKey(id); ok {
			return pk, true
		}
	}
	return nil, false
}

func (c *PublicRingCollection) SecretKey(id keyid.ID) (*packet.PrivateKey, bool) {
	return nil, false
}

// SecretRingCollection holds zero or more secret rings and delegates the
// same way PublicRingCollection does.
type SecretRingCollection struct {
	rings []*SecretRing
}

var _ KeyRing = &SecretRingCollection{}

// NewSecretRingCollection builds a collection over the given rings.
func NewSecretRingCollection(rings ...*SecretRing) *SecretRingCollection {
	return &SecretRingCollection{rings: rings}
}

// Rings exposes the member rings in iteration order.
func (c *SecretRingCollection) Rings() []*SecretRing {
	return c.rings
}

func (c *SecretRingCollection) PublicKeys() []*packet.PublicKey {
	var keys []*packet.PublicKey
	for _, r := range c.rings {
		keys = append(keys, r.PublicKeys()...)
	}
	return keys
}

func (c *SecretRingCollection) SecretKeys() []*packet.PrivateKey {
	var keys []*packet.PrivateKey
	for _, r := range c.rings {
		keys = append(keys, r.SecretKeys()...)
	}
	return keys
}

func (c *SecretRingCollection) PublicKey(id keyid.ID) (*packet.PublicKey, bool) {
	for _, r := range c.rings {
		if pk, ok := r.PublicKey(id); ok {
			return pk, true
		}
	}
	return nil, false
}

func (c *SecretRingCollection) SecretKey(id keyid.ID) (*packet.PrivateKey, bool) {
	for _, r := range c.rings {
		if sk, ok := r.SecretKey(id); ok {
			return sk, true
		}
	}
	return nil, false
}
