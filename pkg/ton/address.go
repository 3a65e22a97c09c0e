package ton

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidAddress = errors.New("invalid TON address")

const friendlyAddressLen = 48

// ValidateAddress accepts the raw "<workchain>:<hex>" form and the 48-char
// user-friendly form in either base64 alphabet.
func ValidateAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ErrInvalidAddress
	}

	if wc, hash, ok := strings.Cut(addr, ":"); ok {
		if _, err := strconv.ParseInt(wc, 10, 32); err != nil {
			return ErrInvalidAddress
		}
		if len(hash) != 64 {
			return ErrInvalidAddress
		}
		if _, err := hex.DecodeString(hash); err != nil {
			return ErrInvalidAddress
		}
		return nil
	}

	if len(addr) != friendlyAddressLen {
		return ErrInvalidAddress
	}

	enc := base64.URLEncoding
	if strings.ContainsAny(addr, "+/") {
		enc = base64.StdEncoding
	}
	raw, err := enc.DecodeString(addr)
	if err != nil || len(raw) != 36 {
		return ErrInvalidAddress
	}

	return nil
}
