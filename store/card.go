package store

import (
	"math"
	"time"

	"github.com/MixinNetwork/cards/card"
	"github.com/dgraph-io/badger/v4"
)

const (
	prefixCardPayload = "CARDS:PAYLOAD:"
	prefixCardOwner   = "CARDS:OWNER:"
)

// WriteCard allocates the next identifier for c and stores the card, its
// owner index entry, the new counter and the clock in one transaction.
func (bs *BadgerStore) WriteCard(c *card.Card, traceId string, createdAt time.Time) (*card.MintReceipt, error) {
	var receipt *card.MintReceipt
	err := bs.db.Update(func(txn *badger.Txn) error {
		if traceId != "" {
			old, err := bs.readMintReceipt(txn, traceId)
			if err != nil || old != nil {
				receipt = old
				return err
			}
		}

		counter, err := bs.readCardCounter(txn)
		if err != nil {
			return err
		}
		if counter == math.MaxUint64 {
			return card.ErrCounterOverflow
		}
		id := counter + 1

		old, err := bs.readCard(txn, id)
		if err != nil {
			return err
		} else if old != nil {
			panic(id)
		}

		err = txn.Set(buildCardPayloadKey(id), c.Marshal())
		if err != nil {
			return err
		}
		err = txn.Set(buildCardOwnerKey(c.Owner, id), []byte{1})
		if err != nil {
			return err
		}
		err = txn.Set([]byte(keyCardCounter), uint64ToBytes(id))
		if err != nil {
			return err
		}
		err = txn.Set([]byte(card.ClockPropertyKey), card.EncodeClock(createdAt))
		if err != nil {
			return err
		}

		receipt = &card.MintReceipt{
			TraceId:   traceId,
			CardId:    id,
			Owner:     c.Owner,
			CreatedAt: createdAt,
		}
		if traceId == "" {
			return nil
		}
		return bs.writeMintReceipt(txn, receipt)
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (bs *BadgerStore) ReadCard(id uint64) (*card.Card, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readCard(txn, id)
}

// ListCardsForOwner walks the owner index, which keeps identifiers of one
// owner in ascending order because they are encoded big-endian.
func (bs *BadgerStore) ListCardsForOwner(owner card.Address, offset uint64, limit int) ([]uint64, error) {
	if offset == math.MaxUint64 {
		return nil, nil
	}

	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = append([]byte(prefixCardOwner), owner[:]...)
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []uint64
	for it.Seek(buildCardOwnerKey(owner, offset+1)); it.Valid(); it.Next() {
		key := it.Item().Key()
		id, err := bytesToUint64(key[len(opts.Prefix):])
		if err != nil {
			return nil, err
		}
		old, err := bs.readCard(txn, id)
		if err != nil {
			return nil, err
		} else if old == nil || old.Owner != owner {
			panic(id)
		}
		ids = append(ids, id)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

func (bs *BadgerStore) readCard(txn *badger.Txn, id uint64) (*card.Card, error) {
	val, err := readValue(txn, buildCardPayloadKey(id))
	if err != nil || val == nil {
		return nil, err
	}
	return card.UnmarshalCard(val)
}

func buildCardPayloadKey(id uint64) []byte {
	return append([]byte(prefixCardPayload), uint64ToBytes(id)...)
}

func buildCardOwnerKey(owner card.Address, id uint64) []byte {
	key := append([]byte(prefixCardOwner), owner[:]...)
	return append(key, uint64ToBytes(id)...)
}
