package store

import (
	"github.com/MixinNetwork/cards/card"
	"github.com/dgraph-io/badger/v4"
)

const (
	keyCollectionName   = "CARDS:COLLECTION:NAME"
	keyCollectionTicker = "CARDS:COLLECTION:TICKER"
	keyCardCounter      = "CARDS:COUNTER"
)

// WriteCollection stores the collection metadata and sets the card counter
// to zero. It is accepted only once.
func (bs *BadgerStore) WriteCollection(c *card.Collection) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		_, err := bs.readCardCounter(txn)
		if err == nil {
			return card.ErrAlreadyInitialized
		} else if err != card.ErrUninitialized {
			return err
		}

		err = txn.Set([]byte(keyCollectionName), c.Name)
		if err != nil {
			return err
		}
		err = txn.Set([]byte(keyCollectionTicker), c.Ticker)
		if err != nil {
			return err
		}
		return txn.Set([]byte(keyCardCounter), uint64ToBytes(0))
	})
}

func (bs *BadgerStore) ReadCollection() (*card.Collection, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	name, err := readValue(txn, []byte(keyCollectionName))
	if err != nil || name == nil {
		return nil, err
	}
	ticker, err := readValue(txn, []byte(keyCollectionTicker))
	if err != nil {
		return nil, err
	}
	return &card.Collection{Name: name, Ticker: ticker}, nil
}

func (bs *BadgerStore) ReadCardCounter() (uint64, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readCardCounter(txn)
}

func (bs *BadgerStore) readCardCounter(txn *badger.Txn) (uint64, error) {
	val, err := readValue(txn, []byte(keyCardCounter))
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, card.ErrUninitialized
	}
	return bytesToUint64(val)
}

func readValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
