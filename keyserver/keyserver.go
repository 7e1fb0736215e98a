// Package keyserver looks up public keys on an HKP keyserver and exposes
// the result through the keyring lookup interface, backed by an in-memory
// cache so repeated lookups stay local.
package keyserver

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/openpgp/packet"

	"github.com/mreinhardt/go-pgp/keyid"
	"github.com/mreinhardt/go-pgp/keyring"
)

// Client fetches keys from an HKP keyserver (the /pks/lookup machine
// interface).
type Client struct {
	cli  http.Client
	base string
}

// NewClient returns a client for the keyserver at base,
// e.g. "https://keys.openpgp.org".
func NewClient(base string) *Client {
	return &Client{base: strings.TrimSuffix(base, "/")}
}

// Fetch retrieves the certificate(s) for a key id.
func (c *Client) Fetch(id keyid.ID) (*keyring.PublicRingCollection, error) {
	uri := fmt.Sprintf("%s/pks/lookup?op=get&options=mr&search=0x%s", c.base, id)

	resp, err := c.cli.Get(uri)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		buf := bytes.Buffer{}
		if _, err := buf.ReadFrom(resp.Body); err != nil {
			slog.Error("keyserver lookup failed", "id", id.String(), "status", resp.Status, "error", err)
			return nil, fmt.Errorf("keyserver: lookup %s: %s: %w", id, resp.Status, err)
		}
		slog.Error("keyserver lookup failed", "id", id.String(), "status", resp.Status, "response", buf.String())
		return nil, fmt.Errorf("keyserver: lookup %s: %s", id, resp.Status)
	}

	return keyring.LoadPublic(resp.Body)
}

// Ring is a public keyring served by a keyserver. PublicKey falls back to a
// remote fetch on cache miss; PublicKeys enumerates only what has been
// fetched so far (HKP has no enumeration operation). Secret lookups are
// always absent.
type Ring struct {
	client *Client

	mu    sync.Mutex
	cache map[keyid.ID]*packet.PublicKey
	order []keyid.ID
}

var _ keyring.KeyRing = &Ring{}

// NewRing returns an empty keyserver-backed ring.
func NewRing(client *Client) *Ring {
	return &Ring{client: client, cache: map[keyid.ID]*packet.PublicKey{}}
}

func (r *Ring) PublicKeys() []*packet.PublicKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]*packet.PublicKey, 0, len(r.order))
	for _, id := range r.order {
		keys = append(keys, r.cache[id])
	}
	return keys
}

func (r *Ring) SecretKeys() []*packet.PrivateKey {
	return nil
}

func (r *Ring) PublicKey(id keyid.ID) (*packet.PublicKey, bool) {
	r.mu.Lock()
	if pk, ok := r.cache[id]; ok {
		r.mu.Unlock()
		return pk, true
	}
	r.mu.Unlock()

	fetched, err := r.client.Fetch(id)
	if err != nil {
		slog.Debug("keyserver fetch failed", "id", id.String(), "error", err)
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pk := range fetched.PublicKeys() {
		kid := keyid.FromPublicKey(pk)
		if _, ok := r.cache[kid]; ok {
			continue
		}
		slog.Debug("caching keyserver key", "id", kid.String())
		r.cache[kid] = pk
		r.order = append(r.order, kid)
	}
	pk, ok := r.cache[id]
	return pk, ok
}

func (r *Ring) SecretKey(id keyid.ID) (*packet.PrivateKey, bool) {
	return nil, false
}
