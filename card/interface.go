package card

import "time"

type Store interface {
	ReadProperty(key []byte) ([]byte, error)

	WriteCollection(c *Collection) error
	ReadCollection() (*Collection, error)
	ReadCardCounter() (uint64, error)

	WriteCard(c *Card, traceId string, createdAt time.Time) (*MintReceipt, error)
	ReadCard(id uint64) (*Card, error)
	ReadMintReceipt(traceId string) (*MintReceipt, error)
	ListCardsForOwner(owner Address, offset uint64, limit int) ([]uint64, error)
}

type Collection struct {
	Name   []byte
	Ticker []byte
}

// MintReceipt records which identifier a traced mint allocated. Untraced
// mints return a receipt too but it is not persisted.
type MintReceipt struct {
	TraceId   string
	CardId    uint64
	Owner     Address
	CreatedAt time.Time
}

type GameState uint32

const GameStateActive GameState = 1
