package message

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/crypto/openpgp/packet"

	"github.com/mreinhardt/go-pgp/keyid"
)

// KeyResolver maps an encrypted session's key id to a private key. Absence
// means "try the next candidate session", not failure.
type KeyResolver func(keyid.ID) (*packet.PrivateKey, bool)

// Decrypt locates the encrypted session in r that resolve can open, decrypts
// it, and returns the plaintext stream. Armored and binary input are both
// accepted; detection is automatic.
//
// The decrypted content must carry the standard literal data framing,
// optionally inside one compressed data wrapper. Closing the returned stream
// releases the decryption layers; the caller's r is never closed.
func Decrypt(r io.Reader, resolve KeyResolver) (io.ReadCloser, error) {
	src, err := decode(r)
	if err != nil {
		return nil, err
	}

	sessions, encrypted, err := readSessions(src)
	if err != nil {
		return nil, err
	}

	var chosen *packet.EncryptedKey
	var priv *packet.PrivateKey
	for _, ek := range sessions {
		if key, ok := resolve(keyid.FromUint64(ek.KeyId)); ok {
			chosen, priv = ek, key
			break
		}
	}
	if chosen == nil {
		return nil, ErrNoUsableKey
	}
	if priv.Encrypted {
		return nil, errors.New("message: resolved private key is passphrase-locked")
	}

	if err := chosen.Decrypt(priv, nil); err != nil {
		return nil, fmt.Errorf("message: unwrapping session key %s: %w", keyid.FromUint64(chosen.KeyId), err)
	}

	contents, err := encrypted.Decrypt(chosen.CipherFunc, chosen.Key)
	if err != nil {
		return nil, malformed(err)
	}

	lit, err := readLiteral(contents)
	if err != nil {
		contents.Close()
		return nil, err
	}
	return &plaintextReader{body: lit.Body, release: contents}, nil
}

// DecryptBytes decrypts a complete message in one shot.
func DecryptBytes(ciphertext io.Reader, resolve KeyResolver) ([]byte, error) {
	r, err := Decrypt(ciphertext, resolve)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// decode peels ASCII armor when present. A binary OpenPGP packet always has
// the high bit of its first octet set; armored text never does.
func decode(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(1)
	if err != nil {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	if first[0]&0x80 != 0 {
		return br, nil
	}
	block, err := armor.Decode(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return block.Body, nil
}

// readSessions walks the packet stream up to the symmetrically encrypted
// payload, collecting the encrypted session keys that precede it.
func readSessions(src io.Reader) ([]*packet.EncryptedKey, *packet.SymmetricallyEncrypted, error) {
	pr := packet.NewReader(src)
	var sessions []*packet.EncryptedKey
	for {
		p, err := pr.Next()
		if err == io.EOF {
			return nil, nil, fmt.Errorf("%w: no encrypted session found", ErrMalformed)
		}
		if err != nil {
			return nil, nil, malformed(err)
		}
		switch pkt := p.(type) {
		case *packet.EncryptedKey:
			sessions = append(sessions, pkt)
		case *packet.SymmetricallyEncrypted:
			if len(sessions) == 0 {
				return nil, nil, fmt.Errorf("%w: encrypted payload without session keys", ErrMalformed)
			}
			return sessions, pkt, nil
		}
	}
}

// readLiteral expects the decrypted stream to hold a literal data packet,
// optionally inside one compressed data wrapper.
func readLiteral(contents io.Reader) (*packet.LiteralData, error) {
	pr := packet.NewReader(contents)
	p, err := pr.Next()
	if err != nil {
		return nil, malformed(err)
	}
	if c, ok := p.(*packet.Compressed); ok {
		pr = packet.NewReader(c.Body)
		if p, err = pr.Next(); err != nil {
			return nil, malformed(err)
		}
	}
	lit, ok := p.(*packet.LiteralData)
	if !ok {
		return nil, fmt.Errorf("%w: found %T", ErrUnexpectedFraming, p)
	}
	return lit, nil
}

// plaintextReader yields the literal data body and releases the decryption
// layers on Close.
type plaintextReader struct {
	body    io.Reader
	release io.Closer
	closed  bool
}

func (r *plaintextReader) Read(p []byte) (int, error) {
	return r.body.Read(p)
}

func (r *plaintextReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.release.Close()
}
