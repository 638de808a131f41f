package store

import (
	"time"

	"github.com/MixinNetwork/cards/card"
	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v4"
)

const prefixMintReceipt = "CARDS:RECEIPT:"

type mintReceiptRecord struct {
	TraceId   string
	CardId    uint64
	Owner     []byte
	CreatedAt int64
}

func (bs *BadgerStore) ReadMintReceipt(traceId string) (*card.MintReceipt, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readMintReceipt(txn, traceId)
}

func (bs *BadgerStore) writeMintReceipt(txn *badger.Txn, r *card.MintReceipt) error {
	key := []byte(prefixMintReceipt + r.TraceId)
	val := common.MsgpackMarshalPanic(&mintReceiptRecord{
		TraceId:   r.TraceId,
		CardId:    r.CardId,
		Owner:     r.Owner[:],
		CreatedAt: r.CreatedAt.UnixNano(),
	})
	return txn.Set(key, val)
}

func (bs *BadgerStore) readMintReceipt(txn *badger.Txn, traceId string) (*card.MintReceipt, error) {
	val, err := readValue(txn, []byte(prefixMintReceipt+traceId))
	if err != nil || val == nil {
		return nil, err
	}
	var rr mintReceiptRecord
	err = common.MsgpackUnmarshal(val, &rr)
	if err != nil {
		return nil, err
	}
	r := &card.MintReceipt{
		TraceId:   rr.TraceId,
		CardId:    rr.CardId,
		CreatedAt: time.Unix(0, rr.CreatedAt),
	}
	copy(r.Owner[:], rr.Owner)
	return r, nil
}
