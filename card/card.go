package card

import (
	"encoding/binary"
	"fmt"
)

const MaxCardNameLength = 128

// Card is the record stored under an issued identifier. The identifier is
// the storage key and not part of the record.
type Card struct {
	Name   []byte
	Rarity Rarity
	Power  uint32
	Owner  Address
}

func (c *Card) Validate() error {
	if len(c.Name) == 0 || len(c.Name) > MaxCardNameLength {
		return fmt.Errorf("%w: length %d", ErrInvalidName, len(c.Name))
	}
	if !c.Rarity.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRarity, c.Rarity)
	}
	if !c.Owner.HasValue() {
		return fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}
	return nil
}

// Marshal encodes the card as
//
//	u32 BE name length | name | u8 rarity | u32 BE power | 32 bytes owner
func (c *Card) Marshal() []byte {
	buf := make([]byte, 0, 4+len(c.Name)+1+4+AddressLength)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Name)))
	buf = append(buf, c.Name...)
	buf = append(buf, byte(c.Rarity))
	buf = binary.BigEndian.AppendUint32(buf, c.Power)
	return append(buf, c.Owner[:]...)
}

func UnmarshalCard(b []byte) (*Card, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%w: short name length", ErrInvalidRecord)
	}
	size := binary.BigEndian.Uint32(b)
	b = b[4:]
	if uint64(len(b)) != uint64(size)+1+4+AddressLength {
		return nil, fmt.Errorf("%w: size %d for name length %d", ErrInvalidRecord, len(b), size)
	}
	c := &Card{Name: append([]byte{}, b[:size]...)}
	b = b[size:]
	c.Rarity = Rarity(b[0])
	c.Power = binary.BigEndian.Uint32(b[1:5])
	copy(c.Owner[:], b[5:])
	return c, nil
}
