package main

import (
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"
	"golang.org/x/crypto/openpgp/packet"

	"github.com/mreinhardt/go-pgp/cmd"
	"github.com/mreinhardt/go-pgp/keyid"
	"github.com/mreinhardt/go-pgp/keyring"
	"github.com/mreinhardt/go-pgp/message"
)

func main() {
	keyringFile := flag.String("keyring", "", "path to the recipients' public keyring (binary or armored)")
	recipientIDs := flag.StringSlice("recipient", nil, "recipient key id (hex); repeatable; defaults to every certificate in the keyring")
	input := flag.String("in", "", "plaintext file (default stdin)")
	output := flag.String("out", "", "ciphertext file (default stdout)")
	armorOut := flag.Bool("armor", false, "ASCII-armor the output")
	cipher := cmd.CipherFlag(packet.CipherAES256)
	flag.Var(&cipher, "cipher", "symmetric cipher: aes128, aes192, aes256, 3des, cast5")
	compression := cmd.CompressionFlag(packet.CompressionNone)
	flag.Var(&compression, "compress", "compression: none, zip, zlib")
	logLevel := cmd.LevelFlag(slog.LevelInfo)
	flag.Var(&logLevel, "log-level", "log level")
	flag.Parse()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     slog.Level(logLevel),
		AddSource: slog.Level(logLevel) == slog.LevelDebug,
	})))

	if *keyringFile == "" {
		slog.Error("--keyring is required")
		os.Exit(1)
	}

	krf, err := os.Open(*keyringFile)
	if err != nil {
		slog.Error("failed to open keyring", "error", err)
		os.Exit(1)
	}
	rings, err := keyring.LoadPublic(krf)
	krf.Close()
	if err != nil {
		slog.Error("failed to load keyring", "error", err)
		os.Exit(1)
	}

	recipients, err := selectRecipients(rings, *recipientIDs)
	if err != nil {
		slog.Error("failed to select recipients", "error", err)
		os.Exit(1)
	}

	in := io.Reader(os.Stdin)
	if *input != "" {
		f, err := os.Open(*input)
		if err != nil {
			slog.Error("failed to open input", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	out := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			slog.Error("failed to create output", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	opts := message.Options{
		Cipher:      packet.CipherFunction(cipher),
		Compression: packet.CompressionAlgo(compression),
		Armor:       *armorOut,
	}
	w, err := message.Encrypt(out, opts, recipients...)
	if err != nil {
		slog.Error("failed to start encryption", "error", err)
		os.Exit(1)
	}
	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		slog.Error("failed to encrypt", "error", err)
		os.Exit(1)
	}
	if err := w.Close(); err != nil {
		slog.Error("failed to finalize message", "error", err)
		os.Exit(1)
	}
}

// selectRecipients resolves --recipient key ids against the keyring, or
// takes every certificate's encryption key when no ids were given.
func selectRecipients(rings *keyring.PublicRingCollection, ids []string) ([]*packet.PublicKey, error) {
	var recipients []*packet.PublicKey
	if len(ids) == 0 {
		for _, ring := range rings.Rings() {
			if pk, ok := ring.EncryptionKey(); ok {
				recipients = append(recipients, pk)
			}
		}
	} else {
		for _, s := range ids {
			id, err := keyid.Parse(s)
			if err != nil {
				return nil, err
			}
			found := false
			for _, ring := range rings.Rings() {
				if _, ok := ring.PublicKey(id); !ok {
					continue
				}
				if pk, ok := ring.EncryptionKey(); ok {
					recipients = append(recipients, pk)
					found = true
				}
				break
			}
			if !found {
				slog.Error("no encryption key for recipient", "id", id.String())
				os.Exit(1)
			}
		}
	}
	return recipients, nil
}
