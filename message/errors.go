package message

import (
	"errors"
	"fmt"
	"io"

	pgperrors "golang.org/x/crypto/openpgp/errors"
)

var (
	// ErrMalformed reports input that does not parse as an encrypted
	// OpenPGP message at some stage of decoding.
	ErrMalformed = errors.New("message: malformed OpenPGP message")

	// ErrNoUsableKey reports that none of the message's encrypted sessions
	// resolved to a locally available private key.
	ErrNoUsableKey = errors.New("message: no usable decryption key")

	// ErrUnexpectedFraming reports decrypted content whose first packet is
	// not the expected literal data wrapper.
	ErrUnexpectedFraming = errors.New("message: decrypted content is not literal data")
)

// malformed classifies a decode-stage error: parser structural errors and
// truncation become ErrMalformed, anything else (I/O failures from the
// underlying source) passes through unchanged.
func malformed(err error) error {
	switch err.(type) {
	case pgperrors.StructuralError, pgperrors.UnsupportedError:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: truncated message", ErrMalformed)
	}
	return err
}
