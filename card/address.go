package card

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
)

const (
	AddressLength = 32
	AddressHRP    = "erd"
)

type Address [AddressLength]byte

func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if len(s) == AddressLength*2 {
		b, err := hex.DecodeString(s)
		if err != nil {
			return a, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
		}
		copy(a[:], b)
	} else {
		hrp, data, err := bech32.Decode(s)
		if err != nil {
			return a, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
		}
		if hrp != AddressHRP {
			return a, fmt.Errorf("%w: prefix %s", ErrInvalidAddress, hrp)
		}
		b, err := bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return a, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
		}
		if len(b) != AddressLength {
			return a, fmt.Errorf("%w: length %d", ErrInvalidAddress, len(b))
		}
		copy(a[:], b)
	}
	if !a.HasValue() {
		return a, fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}
	return a, nil
}

func (a Address) HasValue() bool {
	return a != Address{}
}

func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

func (a Address) String() string {
	data, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	s, err := bech32.Encode(AddressHRP, data)
	if err != nil {
		panic(err)
	}
	return s
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	p, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = p
	return nil
}
