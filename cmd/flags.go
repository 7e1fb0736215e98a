package cmd

import (
	"flag"
	"fmt"
	"log/slog"

	pflag "github.com/spf13/pflag"
	"golang.org/x/crypto/openpgp/packet"
)

// LevelFlag is a pflag.Value for slog levels.
type LevelFlag slog.Level

func (l *LevelFlag) Set(value string) error {
	switch value {
	case "debug":
		*l = LevelFlag(slog.LevelDebug)
	case "info":
		*l = LevelFlag(slog.LevelInfo)
	case "warn":
		*l = LevelFlag(slog.LevelWarn)
	case "error":
		*l = LevelFlag(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %s", value)
	}
	return nil
}

func (l *LevelFlag) String() string {
	switch slog.Level(*l) {
	case slog.LevelDebug:
		return "debug"
	case slog.LevelInfo:
		return "info"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	default:
		return ""
	}
}

func (l *LevelFlag) Get() interface{} {
	return slog.Level(*l)
}

func (l *LevelFlag) Type() string {
	return "string"
}

// CipherFlag is a pflag.Value selecting the symmetric cipher.
type CipherFlag packet.CipherFunction

func (c *CipherFlag) Set(value string) error {
	switch value {
	case "aes128":
		*c = CipherFlag(packet.CipherAES128)
	case "aes192":
		*c = CipherFlag(packet.CipherAES192)
	case "aes256":
		*c = CipherFlag(packet.CipherAES256)
	case "3des":
		*c = CipherFlag(packet.Cipher3DES)
	case "cast5":
		*c = CipherFlag(packet.CipherCAST5)
	default:
		return fmt.Errorf("unknown cipher: %s", value)
	}
	return nil
}

func (c *CipherFlag) String() string {
	switch packet.CipherFunction(*c) {
	case packet.CipherAES128:
		return "aes128"
	case packet.CipherAES192:
		return "aes192"
	case packet.CipherAES256:
		return "aes256"
	case packet.Cipher3DES:
		return "3des"
	case packet.CipherCAST5:
		return "cast5"
	default:
		return ""
	}
}

func (c *CipherFlag) Type() string {
	return "string"
}

// CompressionFlag is a pflag.Value selecting the compression algorithm.
type CompressionFlag packet.CompressionAlgo

func (c *CompressionFlag) Set(value string) error {
	switch value {
	case "none":
		*c = CompressionFlag(packet.CompressionNone)
	case "zip":
		*c = CompressionFlag(packet.CompressionZIP)
	case "zlib":
		*c = CompressionFlag(packet.CompressionZLIB)
	default:
		return fmt.Errorf("unknown compression algorithm: %s", value)
	}
	return nil
}

func (c *CompressionFlag) String() string {
	switch packet.CompressionAlgo(*c) {
	case packet.CompressionNone:
		return "none"
	case packet.CompressionZIP:
		return "zip"
	case packet.CompressionZLIB:
		return "zlib"
	default:
		return ""
	}
}

func (c *CompressionFlag) Type() string {
	return "string"
}

var _lf = LevelFlag(slog.LevelInfo)
var _ flag.Getter = &_lf
var _ pflag.Value = &_lf

var _cf = CipherFlag(packet.CipherAES256)
var _ pflag.Value = &_cf

var _zf = CompressionFlag(packet.CompressionNone)
var _ pflag.Value = &_zf
