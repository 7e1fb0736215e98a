package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/mreinhardt/go-pgp/cmd"
	"github.com/mreinhardt/go-pgp/keyring"
	"github.com/mreinhardt/go-pgp/message"
)

func main() {
	keyringFile := flag.String("keyring", "", "path to the secret keyring (binary or armored)")
	input := flag.String("in", "", "ciphertext file (default stdin)")
	output := flag.String("out", "", "plaintext file (default stdout)")
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
	rings, err := keyring.LoadSecret(krf)
	krf.Close()
	if err != nil {
		slog.Error("failed to load keyring", "error", err)
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

	r, err := message.Decrypt(in, keyring.Resolver(rings))
	if err != nil {
		switch {
		case errors.Is(err, message.ErrNoUsableKey):
			slog.Error("none of the message's recipients match the keyring")
		case errors.Is(err, message.ErrMalformed):
			slog.Error("input is not an encrypted PGP message", "error", err)
		default:
			slog.Error("failed to decrypt", "error", err)
		}
		os.Exit(1)
	}
	if _, err := io.Copy(out, r); err != nil {
		r.Close()
		slog.Error("failed to read plaintext", "error", err)
		os.Exit(1)
	}
	if err := r.Close(); err != nil {
		slog.Error("failed to finish decryption", "error", err)
		os.Exit(1)
	}
}
