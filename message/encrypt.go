// Package message implements the layered OpenPGP message pipelines:
// hybrid public-key encryption with optional compression and ASCII armor on
// the write side, and the matching peel-the-layers decode on the read side.
//
// Packet serialization, cipher primitives, and armor encoding are provided
// by golang.org/x/crypto/openpgp; this package composes them.
package message

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/crypto/openpgp/packet"
)

const messageType = "PGP MESSAGE"

// Options controls the optional layers of an encrypted message. The zero
// value selects AES-256, no compression, and binary (unarmored) output.
type Options struct {
	// Cipher is the symmetric algorithm for the session encryption.
	Cipher packet.CipherFunction
	// Compression, when set, compresses the plaintext before encryption.
	Compression packet.CompressionAlgo
	// Armor wraps the binary ciphertext in ASCII armor.
	Armor bool
}

func (o Options) cipher() packet.CipherFunction {
	if o.Cipher == 0 {
		return packet.CipherAES256
	}
	return o.Cipher
}

// Encrypt returns a stream that encrypts everything written to it for the
// given recipients and emits the ciphertext to w.
//
// A fresh random session key is generated per call and wrapped once for
// each recipient at the head of the message. Written plaintext is framed as
// literal data, compressed if requested, and symmetrically encrypted; with
// Armor set the whole binary message is armor-encoded. Closing the returned
// stream finalizes every layer in order. The caller's w is never closed.
func Encrypt(w io.Writer, opts Options, recipients ...*packet.PublicKey) (io.WriteCloser, error) {
	if len(recipients) == 0 {
		return nil, errors.New("message: no recipients")
	}

	cipher := opts.cipher()
	config := &packet.Config{DefaultCipher: cipher}

	sessionKey := make([]byte, cipher.KeySize())
	if _, err := io.ReadFull(config.Random(), sessionKey); err != nil {
		return nil, err
	}

	var armorer io.WriteCloser
	out := w
	if opts.Armor {
		aw, err := armor.Encode(w, messageType, nil)
		if err != nil {
			return nil, err
		}
		armorer = aw
		out = aw
	}

	// abort releases every layer built so far when a later constructor
	// fails, so partial construction never leaks.
	abort := func(top io.WriteCloser, err error) (io.WriteCloser, error) {
		if top != nil {
			top.Close()
		}
		if armorer != nil {
			armorer.Close()
		}
		return nil, err
	}

	for _, pk := range recipients {
		if err := packet.SerializeEncryptedKey(out, pk, cipher, sessionKey, config); err != nil {
			return abort(nil, err)
		}
	}

	// The packet writers form a cascade: closing the innermost closes the
	// layers beneath it, stopping short of out.
	top, err := packet.SerializeSymmetricallyEncrypted(out, cipher, sessionKey, config)
	if err != nil {
		return abort(nil, err)
	}

	if opts.Compression != packet.CompressionNone {
		cw, err := packet.SerializeCompressed(top, opts.Compression, config.CompressionConfig)
		if err != nil {
			return abort(top, err)
		}
		top = cw
	}

	lw, err := packet.SerializeLiteral(top, true, "", uint32(config.Now().Unix()))
	if err != nil {
		return abort(top, err)
	}

	return &encryptWriter{plaintext: lw, armorer: armorer}, nil
}

// EncryptBytes encrypts plaintext in one shot and returns the complete
// ciphertext.
func EncryptBytes(plaintext io.Reader, opts Options, recipients ...*packet.PublicKey) ([]byte, error) {
	var buf bytes.Buffer
	w, err := Encrypt(&buf, opts, recipients...)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(w, plaintext); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encryptWriter is the stream handed to the caller: writes go to the
// innermost (literal data) layer, Close finalizes the packet cascade and
// then the armor layer so trailing bytes land in the right order.
type encryptWriter struct {
	plaintext io.WriteCloser
	armorer   io.WriteCloser
}

func (w *encryptWriter) Write(p []byte) (int, error) {
	return w.plaintext.Write(p)
}

func (w *encryptWriter) Close() error {
	err := w.plaintext.Close()
	if w.armorer != nil {
		if aerr := w.armorer.Close(); err == nil {
			err = aerr
		}
	}
	return err
}
