package card_test

import (
	"context"
	"testing"
	"time"

	"github.com/MixinNetwork/cards/card"
	"github.com/MixinNetwork/cards/store"
	"github.com/stretchr/testify/require"
)

func TestClockMonotonic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	db, err := store.OpenBadger(ctx, "")
	require.NoError(t, err)
	defer db.Close()

	clock, err := card.NewClock(db)
	require.NoError(t, err)

	prev := clock.Now()
	for i := 0; i < 100; i++ {
		now := clock.Now()
		require.True(t, now.After(prev))
		prev = now
	}

	// a committed mint far in the future pins every later clock after it
	future := prev.Add(time.Hour)
	require.NoError(t, db.WriteCollection(&card.Collection{Name: []byte("L"), Ticker: []byte("L")}))
	owner := card.Address{1}
	_, err = db.WriteCard(&card.Card{Name: []byte("c"), Rarity: card.RarityRare, Power: 1, Owner: owner}, "", future)
	require.NoError(t, err)

	restarted, err := card.NewClock(db)
	require.NoError(t, err)
	require.True(t, restarted.Now().After(future))
}
