package message_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"testing"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/packet"

	"github.com/mreinhardt/go-pgp/keyring"
	"github.com/mreinhardt/go-pgp/message"
)

func newEntity(t *testing.T, name string) *openpgp.Entity {
	t.Helper()
	e, err := openpgp.NewEntity(name, "", name+"@example.com", &packet.Config{RSABits: 1024})
	if err != nil {
		t.Fatalf("failed to generate entity: %v", err)
	}
	return e
}

func encryptionKey(t *testing.T, e *openpgp.Entity) *packet.PublicKey {
	t.Helper()
	pk, ok := keyring.NewPublicRing(e).EncryptionKey()
	if !ok {
		t.Fatalf("entity has no encryption key")
	}
	return pk
}

func resolverFor(entities ...*openpgp.Entity) message.KeyResolver {
	rings := make([]*keyring.SecretRing, 0, len(entities))
	for _, e := range entities {
		rings = append(rings, keyring.NewSecretRing(e))
	}
	return keyring.Resolver(keyring.NewSecretRingCollection(rings...))
}

func TestRoundTrip(t *testing.T) {
	recipient := newEntity(t, "alice")
	pk := encryptionKey(t, recipient)
	resolve := resolverFor(recipient)

	big := make([]byte, 64*1024)
	if _, err := rand.Read(big); err != nil {
		t.Fatalf("failed to read rand: %v", err)
	}

	tests := []struct {
		name      string
		opts      message.Options
		plaintext []byte
	}{
		{name: "defaults", plaintext: []byte("attack at dawn")},
		{name: "empty plaintext", plaintext: []byte{}},
		{name: "aes128", opts: message.Options{Cipher: packet.CipherAES128}, plaintext: []byte("attack at dawn")},
		{name: "aes192", opts: message.Options{Cipher: packet.CipherAES192}, plaintext: []byte("attack at dawn")},
		{name: "3des", opts: message.Options{Cipher: packet.Cipher3DES}, plaintext: []byte("attack at dawn")},
		{name: "cast5", opts: message.Options{Cipher: packet.CipherCAST5}, plaintext: []byte("attack at dawn")},
		{name: "zip", opts: message.Options{Compression: packet.CompressionZIP}, plaintext: big},
		{name: "zlib", opts: message.Options{Compression: packet.CompressionZLIB}, plaintext: []byte("attack at dawn")},
		{name: "armor", opts: message.Options{Armor: true}, plaintext: []byte("attack at dawn")},
		{name: "armor zlib aes128", opts: message.Options{Cipher: packet.CipherAES128, Compression: packet.CompressionZLIB, Armor: true}, plaintext: big},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := message.EncryptBytes(bytes.NewReader(tt.plaintext), tt.opts, pk)
			if err != nil {
				t.Fatalf("failed to encrypt: %v", err)
			}
			got, err := message.DecryptBytes(bytes.NewReader(ciphertext), resolve)
			if err != nil {
				t.Fatalf("failed to decrypt: %v", err)
			}
			if !bytes.Equal(got, tt.plaintext) {
				t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(tt.plaintext))
			}
		})
	}
}

func TestArmoredHelloScenario(t *testing.T) {
	recipient := newEntity(t, "alice")
	pk := encryptionKey(t, recipient)

	ciphertext, err := message.EncryptBytes(strings.NewReader("hello"), message.Options{Armor: true}, pk)
	if err != nil {
		t.Fatalf("failed to encrypt: %v", err)
	}

	text := string(ciphertext)
	if !strings.HasPrefix(text, "-----BEGIN PGP MESSAGE-----") {
		t.Fatalf("missing armor header: %q", text)
	}
	if !strings.Contains(text, "-----END PGP MESSAGE-----") {
		t.Fatalf("missing armor footer: %q", text)
	}
	for _, b := range ciphertext {
		if b > 0x7f {
			t.Fatalf("armored output contains non-ASCII byte %#x", b)
		}
	}

	got, err := message.DecryptBytes(bytes.NewReader(ciphertext), resolverFor(recipient))
	if err != nil {
		t.Fatalf("failed to decrypt: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
}

// Armor detection is automatic: the same plaintext must come back whether or
// not the ciphertext was armored.
func TestArmorDetection(t *testing.T) {
	recipient := newEntity(t, "alice")
	pk := encryptionKey(t, recipient)
	resolve := resolverFor(recipient)
	plaintext := []byte("either way")

	for _, armored := range []bool{false, true} {
		ciphertext, err := message.EncryptBytes(bytes.NewReader(plaintext), message.Options{Armor: armored}, pk)
		if err != nil {
			t.Fatalf("failed to encrypt (armor=%v): %v", armored, err)
		}
		got, err := message.DecryptBytes(bytes.NewReader(ciphertext), resolve)
		if err != nil {
			t.Fatalf("failed to decrypt (armor=%v): %v", armored, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("round trip mismatch (armor=%v)", armored)
		}
	}
}

func TestMultiRecipientSelection(t *testing.T) {
	entities := []*openpgp.Entity{
		newEntity(t, "alice"),
		newEntity(t, "bob"),
		newEntity(t, "carol"),
	}
	keys := make([]*packet.PublicKey, 0, len(entities))
	for _, e := range entities {
		keys = append(keys, encryptionKey(t, e))
	}
	plaintext := []byte("for your eyes only")

	ciphertext, err := message.EncryptBytes(bytes.NewReader(plaintext), message.Options{}, keys...)
	if err != nil {
		t.Fatalf("failed to encrypt: %v", err)
	}

	// Each recipient alone can open the message, regardless of position.
	for i, e := range entities {
		got, err := message.DecryptBytes(bytes.NewReader(ciphertext), resolverFor(e))
		if err != nil {
			t.Fatalf("recipient %d failed to decrypt: %v", i, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("recipient %d got wrong plaintext", i)
		}
	}
}

func TestNoUsableKey(t *testing.T) {
	recipient := newEntity(t, "alice")
	stranger := newEntity(t, "mallory")

	ciphertext, err := message.EncryptBytes(strings.NewReader("secret"), message.Options{}, encryptionKey(t, recipient))
	if err != nil {
		t.Fatalf("failed to encrypt: %v", err)
	}

	_, err = message.DecryptBytes(bytes.NewReader(ciphertext), resolverFor(stranger))
	if !errors.Is(err, message.ErrNoUsableKey) {
		t.Fatalf("expected ErrNoUsableKey, got %v", err)
	}
	if errors.Is(err, message.ErrMalformed) {
		t.Fatalf("no-usable-key must not be reported as malformed input")
	}
}

func TestMalformedInput(t *testing.T) {
	recipient := newEntity(t, "alice")
	resolve := resolverFor(recipient)

	// A bare literal data packet parses but holds no encrypted session.
	var literalOnly bytes.Buffer
	lw, err := packet.SerializeLiteral(nopWriteCloser{&literalOnly}, true, "", 0)
	if err != nil {
		t.Fatalf("failed to serialize literal: %v", err)
	}
	io.WriteString(lw, "plain")
	lw.Close()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "empty", input: nil},
		{name: "text garbage", input: []byte("this is not a pgp message")},
		{name: "binary garbage", input: []byte{0xc3, 0x01, 0xff, 0xff, 0xff}},
		{name: "no encrypted session", input: literalOnly.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := message.DecryptBytes(bytes.NewReader(tt.input), resolve)
			if !errors.Is(err, message.ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

// A message whose decrypted content is not literal data (here: a stray
// session key packet) must be rejected with the framing error.
func TestUnexpectedFraming(t *testing.T) {
	recipient := newEntity(t, "alice")
	pk := encryptionKey(t, recipient)

	cipher := packet.CipherAES256
	sessionKey := make([]byte, cipher.KeySize())
	if _, err := rand.Read(sessionKey); err != nil {
		t.Fatalf("failed to read rand: %v", err)
	}

	var buf bytes.Buffer
	config := &packet.Config{}
	if err := packet.SerializeEncryptedKey(&buf, pk, cipher, sessionKey, config); err != nil {
		t.Fatalf("failed to serialize session key: %v", err)
	}
	encrypted, err := packet.SerializeSymmetricallyEncrypted(&buf, cipher, sessionKey, config)
	if err != nil {
		t.Fatalf("failed to start symmetric encryption: %v", err)
	}
	if err := packet.SerializeEncryptedKey(encrypted, pk, cipher, sessionKey, config); err != nil {
		t.Fatalf("failed to serialize inner packet: %v", err)
	}
	if err := encrypted.Close(); err != nil {
		t.Fatalf("failed to close encryptor: %v", err)
	}

	_, err = message.DecryptBytes(&buf, resolverFor(recipient))
	if !errors.Is(err, message.ErrUnexpectedFraming) {
		t.Fatalf("expected ErrUnexpectedFraming, got %v", err)
	}
}

// Close is what completes the message: bytes flushed before Close must not
// decode on their own, and the sink must hold a decodable ciphertext only
// after Close returns.
func TestCloseCompletesMessage(t *testing.T) {
	recipient := newEntity(t, "alice")
	pk := encryptionKey(t, recipient)
	resolve := resolverFor(recipient)
	plaintext := bytes.Repeat([]byte("finish me "), 100)

	var sink bytes.Buffer
	w, err := message.Encrypt(&sink, message.Options{Compression: packet.CompressionZIP, Armor: true}, pk)
	if err != nil {
		t.Fatalf("failed to start encryption: %v", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		t.Fatalf("failed to write plaintext: %v", err)
	}

	partial := make([]byte, sink.Len())
	copy(partial, sink.Bytes())
	if _, err := message.DecryptBytes(bytes.NewReader(partial), resolve); err == nil {
		t.Fatalf("partial message before Close must not decrypt")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close encryption stream: %v", err)
	}
	got, err := message.DecryptBytes(bytes.NewReader(sink.Bytes()), resolve)
	if err != nil {
		t.Fatalf("failed to decrypt completed message: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch after Close")
	}
}

// A layer constructor failing mid-build (here: an unsupported compression
// algorithm, rejected after the armor and encryption layers already exist)
// must release the layers built so far: the armor layer is finalized into
// the sink rather than leaked open.
func TestEncryptAbortReleasesLayers(t *testing.T) {
	recipient := newEntity(t, "alice")
	pk := encryptionKey(t, recipient)

	var sink bytes.Buffer
	opts := message.Options{Armor: true, Compression: packet.CompressionAlgo(0x63)}
	if _, err := message.Encrypt(&sink, opts, pk); err == nil {
		t.Fatalf("expected error for unsupported compression algorithm")
	}
	if !strings.Contains(sink.String(), "-----END PGP MESSAGE-----") {
		t.Fatalf("armor layer was not finalized on abort: %q", sink.String())
	}
}

func TestEncryptRequiresRecipients(t *testing.T) {
	var sink bytes.Buffer
	if _, err := message.Encrypt(&sink, message.Options{}); err == nil {
		t.Fatalf("expected error for zero recipients")
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
