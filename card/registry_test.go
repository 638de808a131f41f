package card_test

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/MixinNetwork/cards/card"
	"github.com/MixinNetwork/cards/metrics"
	"github.com/MixinNetwork/cards/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type RegistrySuite struct {
	suite.Suite
	ctx      context.Context
	cancel   context.CancelFunc
	db       *store.BadgerStore
	metrics  *metrics.Metrics
	registry *card.Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	db, err := store.OpenBadger(s.ctx, "")
	s.Require().NoError(err)
	s.db = db
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.registry, err = card.NewRegistry(db, s.metrics)
	s.Require().NoError(err)
}

func (s *RegistrySuite) TearDownTest() {
	s.cancel()
	s.Require().NoError(s.db.Close())
}

func (s *RegistrySuite) initialize() {
	s.Require().NoError(s.registry.Initialize(s.ctx, []byte("Legends"), []byte("LGN")))
}

func (s *RegistrySuite) mint(to card.Address, name string, rarity card.Rarity, power uint32) uint64 {
	id, err := s.registry.MintCard(s.ctx, to, []byte(name), rarity, power)
	s.Require().NoError(err)
	return id
}

func player(b byte) card.Address {
	var a card.Address
	a[0], a[31] = b, b
	return a
}

func (s *RegistrySuite) TestScenarioLegends() {
	s.initialize()
	a, b := player(0xa), player(0xb)

	s.Equal(uint64(1), s.mint(a, "Dragon", card.RarityLegendary, 90))
	s.Equal(uint64(2), s.mint(b, "Goblin", card.RarityCommon, 10))
	s.Equal(uint64(3), s.mint(a, "Wizard", card.RarityEpic, 60))

	ids, err := s.registry.GetPlayerCards(s.ctx, a)
	s.Require().NoError(err)
	s.Equal([]uint64{1, 3}, ids)

	ids, err = s.registry.GetPlayerCards(s.ctx, b)
	s.Require().NoError(err)
	s.Equal([]uint64{2}, ids)

	c, err := s.registry.GetCard(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(&card.Card{Name: []byte("Goblin"), Rarity: card.RarityCommon, Power: 10, Owner: b}, c)

	c, err = s.registry.GetCard(s.ctx, 4)
	s.Require().NoError(err)
	s.Nil(c)

	col, err := s.registry.Collection(s.ctx)
	s.Require().NoError(err)
	s.Equal("Legends", string(col.Name))
	s.Equal("LGN", string(col.Ticker))
	s.Equal(3.0, testutil.ToFloat64(s.metrics.CardsMinted))
}

func (s *RegistrySuite) TestNoMints() {
	s.initialize()

	ids, err := s.registry.GetPlayerCards(s.ctx, player(1))
	s.Require().NoError(err)
	s.NotNil(ids)
	s.Empty(ids)

	count, err := s.registry.CardCount(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)

	c, err := s.registry.GetCard(s.ctx, 0)
	s.Require().NoError(err)
	s.Nil(c)
}

func (s *RegistrySuite) TestSequentialIdentifiers() {
	s.initialize()
	const n = 50
	owners := []card.Address{player(1), player(2), player(3)}
	want := make(map[card.Address][]uint64)

	for i := 1; i <= n; i++ {
		owner := owners[i%len(owners)]
		rarity := card.Rarity(i%4 + 1)
		id := s.mint(owner, "card", rarity, uint32(i*7))
		s.Equal(uint64(i), id)
		want[owner] = append(want[owner], id)
	}

	count, err := s.registry.CardCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(n), count)

	for i := 1; i <= n; i++ {
		c, err := s.registry.GetCard(s.ctx, uint64(i))
		s.Require().NoError(err)
		s.Require().NotNil(c)
		s.Equal(owners[i%len(owners)], c.Owner)
		s.Equal(card.Rarity(i%4+1), c.Rarity)
		s.Equal(uint32(i*7), c.Power)
	}

	for _, owner := range owners {
		first, err := s.registry.GetPlayerCards(s.ctx, owner)
		s.Require().NoError(err)
		second, err := s.registry.GetPlayerCards(s.ctx, owner)
		s.Require().NoError(err)
		s.Equal(want[owner], first)
		s.Equal(first, second)
	}

	c, err := s.registry.GetCard(s.ctx, n+1)
	s.Require().NoError(err)
	s.Nil(c)
}

func (s *RegistrySuite) TestConcurrentMints() {
	s.initialize()
	const workers, each = 8, 10

	var wg sync.WaitGroup
	ids := make(chan uint64, workers*each)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				id, err := s.registry.MintCard(s.ctx, player(byte(w+1)), []byte("swarm"), card.RarityRare, 1)
				if err == nil {
					ids <- id
				}
			}
		}(w)
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		s.False(seen[id], id)
		seen[id] = true
	}
	s.Len(seen, workers*each)
	for id := uint64(1); id <= workers*each; id++ {
		s.True(seen[id], id)
	}
}

func (s *RegistrySuite) TestRejectsOutOfRangeRarity() {
	s.initialize()

	_, err := s.registry.MintCard(s.ctx, player(1), []byte("Glitch"), card.Rarity(99), 1)
	s.ErrorIs(err, card.ErrInvalidRarity)

	count, err := s.registry.CardCount(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.MintsRejected.WithLabelValues("invalid_input")))
}

func (s *RegistrySuite) TestRejectsInvalidInput() {
	s.initialize()

	_, err := s.registry.MintCard(s.ctx, card.Address{}, []byte("Nobody"), card.RarityRare, 1)
	s.ErrorIs(err, card.ErrInvalidAddress)

	_, err = s.registry.MintCard(s.ctx, player(1), nil, card.RarityRare, 1)
	s.ErrorIs(err, card.ErrInvalidName)

	s.ErrorIs(s.registry.Initialize(s.ctx, nil, []byte("X")), card.ErrInvalidCollectionName)
	s.ErrorIs(s.registry.Initialize(s.ctx, []byte("X"), nil), card.ErrInvalidTicker)
}

func (s *RegistrySuite) TestCounterOverflow() {
	s.initialize()
	top := binary.BigEndian.AppendUint64(nil, math.MaxUint64)
	s.Require().NoError(s.db.WriteProperty([]byte("CARDS:COUNTER"), top))

	_, err := s.registry.MintCard(s.ctx, player(1), []byte("Last"), card.RarityEpic, 1)
	s.ErrorIs(err, card.ErrCounterOverflow)

	count, err := s.registry.CardCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(math.MaxUint64), count)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.MintsRejected.WithLabelValues("overflow")))
}

func (s *RegistrySuite) TestUninitialized() {
	_, err := s.registry.MintCard(s.ctx, player(1), []byte("Early"), card.RarityRare, 1)
	s.ErrorIs(err, card.ErrUninitialized)

	_, err = s.registry.GetCard(s.ctx, 1)
	s.ErrorIs(err, card.ErrUninitialized)

	_, err = s.registry.GetPlayerCards(s.ctx, player(1))
	s.ErrorIs(err, card.ErrUninitialized)

	_, err = s.registry.Collection(s.ctx)
	s.ErrorIs(err, card.ErrUninitialized)

	_, err = s.registry.CardCount(s.ctx)
	s.ErrorIs(err, card.ErrUninitialized)

	s.Equal(card.GameStateActive, s.registry.GetGameState())
}

func (s *RegistrySuite) TestInitializeOnce() {
	s.initialize()
	s.mint(player(1), "Dragon", card.RarityLegendary, 90)

	err := s.registry.Initialize(s.ctx, []byte("Other"), []byte("OTH"))
	s.ErrorIs(err, card.ErrAlreadyInitialized)

	col, err := s.registry.Collection(s.ctx)
	s.Require().NoError(err)
	s.Equal("Legends", string(col.Name))
	count, err := s.registry.CardCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), count)
}

func (s *RegistrySuite) TestMintCardOnce() {
	s.initialize()
	a := player(1)

	id, err := s.registry.MintCardOnce(s.ctx, "trace-1", a, []byte("Dragon"), card.RarityLegendary, 90)
	s.Require().NoError(err)
	s.Equal(uint64(1), id)

	id, err = s.registry.MintCardOnce(s.ctx, "trace-1", a, []byte("Dragon"), card.RarityLegendary, 90)
	s.Require().NoError(err)
	s.Equal(uint64(1), id)

	id, err = s.registry.MintCardOnce(s.ctx, "trace-2", a, []byte("Dragon"), card.RarityLegendary, 90)
	s.Require().NoError(err)
	s.Equal(uint64(2), id)

	count, err := s.registry.CardCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), count)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.MintsDeduplicated))
}

func (s *RegistrySuite) TestMintCardOnceConflict() {
	s.initialize()
	a, b := player(1), player(2)

	id, err := s.registry.MintCardOnce(s.ctx, "trace-1", a, []byte("Dragon"), card.RarityLegendary, 90)
	s.Require().NoError(err)
	s.Equal(uint64(1), id)

	_, err = s.registry.MintCardOnce(s.ctx, "trace-1", b, []byte("Dragon"), card.RarityLegendary, 90)
	s.ErrorIs(err, card.ErrTraceConflict)
	_, err = s.registry.MintCardOnce(s.ctx, "trace-1", a, []byte("Goblin"), card.RarityLegendary, 90)
	s.ErrorIs(err, card.ErrTraceConflict)
	_, err = s.registry.MintCardOnce(s.ctx, "trace-1", a, []byte("Dragon"), card.RarityEpic, 90)
	s.ErrorIs(err, card.ErrTraceConflict)
	_, err = s.registry.MintCardOnce(s.ctx, "trace-1", a, []byte("Dragon"), card.RarityLegendary, 91)
	s.ErrorIs(err, card.ErrTraceConflict)

	count, err := s.registry.CardCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), count)
	ids, err := s.registry.GetPlayerCards(s.ctx, b)
	s.Require().NoError(err)
	s.Empty(ids)
	s.Equal(4.0, testutil.ToFloat64(s.metrics.MintsRejected.WithLabelValues("trace_conflict")))
	s.Zero(testutil.ToFloat64(s.metrics.MintsDeduplicated))
}

func (s *RegistrySuite) TestListPlayerCardsPages() {
	s.initialize()
	a, b := player(1), player(2)
	for i := 0; i < 10; i++ {
		s.mint(a, "a", card.RarityCommon, 1)
		s.mint(b, "b", card.RarityCommon, 1)
	}

	page, err := s.registry.ListPlayerCards(s.ctx, a, 0, 4)
	s.Require().NoError(err)
	s.Equal([]uint64{1, 3, 5, 7}, page)

	page, err = s.registry.ListPlayerCards(s.ctx, a, 7, 4)
	s.Require().NoError(err)
	s.Equal([]uint64{9, 11, 13, 15}, page)

	page, err = s.registry.ListPlayerCards(s.ctx, a, 15, 4)
	s.Require().NoError(err)
	s.Equal([]uint64{17, 19}, page)

	page, err = s.registry.ListPlayerCards(s.ctx, a, 19, 4)
	s.Require().NoError(err)
	s.Empty(page)

	page, err = s.registry.ListPlayerCards(s.ctx, b, math.MaxUint64, 0)
	s.Require().NoError(err)
	s.Empty(page)
}

func (s *RegistrySuite) TestCancelledContext() {
	s.initialize()
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.registry.MintCard(ctx, player(1), []byte("Late"), card.RarityRare, 1)
	s.ErrorIs(err, context.Canceled)
	_, err = s.registry.GetCard(ctx, 1)
	s.ErrorIs(err, context.Canceled)
	_, err = s.registry.GetPlayerCards(ctx, player(1))
	s.ErrorIs(err, context.Canceled)
	_, err = s.registry.Collection(ctx)
	s.ErrorIs(err, context.Canceled)
	_, err = s.registry.CardCount(ctx)
	s.ErrorIs(err, context.Canceled)
	s.ErrorIs(s.registry.Initialize(ctx, []byte("X"), []byte("X")), context.Canceled)

	count, err := s.registry.CardCount(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}
