package card

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MixinNetwork/cards/metrics"
	"github.com/MixinNetwork/mixin/logger"
)

type Registry struct {
	store   Store
	clock   *Clock
	metrics *metrics.Metrics

	// serializes the read-increment-write of the counter
	mu sync.Mutex
}

func NewRegistry(store Store, m *metrics.Metrics) (*Registry, error) {
	clock, err := NewClock(store)
	if err != nil {
		return nil, err
	}
	return &Registry{
		store:   store,
		clock:   clock,
		metrics: m,
	}, nil
}

func (reg *Registry) Initialize(ctx context.Context, name, ticker []byte) error {
	if len(name) == 0 {
		return ErrInvalidCollectionName
	}
	if len(ticker) == 0 {
		return ErrInvalidTicker
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	err := reg.store.WriteCollection(&Collection{Name: name, Ticker: ticker})
	if err != nil {
		return err
	}
	logger.Printf("Registry.Initialize(%s, %s)\n", name, ticker)
	return nil
}

func (reg *Registry) Collection(ctx context.Context) (*Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := reg.store.ReadCollection()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrUninitialized
	}
	return c, nil
}

func (reg *Registry) CardCount(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return reg.store.ReadCardCounter()
}

// MintCard issues the next identifier to a new card owned by to.
func (reg *Registry) MintCard(ctx context.Context, to Address, name []byte, rarity Rarity, power uint32) (uint64, error) {
	return reg.MintCardOnce(ctx, "", to, name, rarity, power)
}

// MintCardOnce is MintCard keyed by traceId: a trace that already minted
// the same card returns its original identifier and writes nothing, and a
// trace that minted anything else fails with ErrTraceConflict. An empty
// traceId disables the check.
func (reg *Registry) MintCardOnce(ctx context.Context, traceId string, to Address, name []byte, rarity Rarity, power uint32) (uint64, error) {
	c := &Card{
		Name:   append([]byte{}, name...),
		Rarity: rarity,
		Power:  power,
		Owner:  to,
	}
	if err := c.Validate(); err != nil {
		reg.rejected("invalid_input")
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if traceId != "" {
		old, err := reg.store.ReadMintReceipt(traceId)
		if err != nil {
			return 0, err
		}
		if old != nil {
			err = reg.checkTrace(old, c)
			if err != nil {
				reg.rejected("trace_conflict")
				return 0, err
			}
			logger.Verbosef("Registry.MintCardOnce(%s) => %d duplicated\n", traceId, old.CardId)
			if reg.metrics != nil {
				reg.metrics.IncrementMintsDeduplicated()
			}
			return old.CardId, nil
		}
	}

	r, err := reg.store.WriteCard(c, traceId, reg.clock.Now())
	switch {
	case errors.Is(err, ErrCounterOverflow):
		reg.rejected("overflow")
		return 0, err
	case errors.Is(err, ErrUninitialized):
		reg.rejected("uninitialized")
		return 0, err
	case err != nil:
		return 0, err
	}

	logger.Verbosef("Registry.MintCard(%s, %s, %s, %d) => %d\n", to, c.Name, c.Rarity, c.Power, r.CardId)
	if reg.metrics != nil {
		reg.metrics.IncrementCardsMinted()
	}
	return r.CardId, nil
}

// GetCard returns nil without error when id has never been minted.
func (reg *Registry) GetCard(ctx context.Context, id uint64) (*Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := reg.store.ReadCardCounter(); err != nil {
		return nil, err
	}
	return reg.store.ReadCard(id)
}

// GetPlayerCards returns every identifier owned by player in ascending order.
func (reg *Registry) GetPlayerCards(ctx context.Context, player Address) ([]uint64, error) {
	return reg.ListPlayerCards(ctx, player, 0, 0)
}

// ListPlayerCards returns at most limit identifiers owned by player that are
// greater than offset, ascending. A zero limit means no limit.
func (reg *Registry) ListPlayerCards(ctx context.Context, player Address, offset uint64, limit int) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := reg.store.ReadCardCounter(); err != nil {
		return nil, err
	}
	ids, err := reg.store.ListCardsForOwner(player, offset, limit)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint64{}
	}
	if reg.metrics != nil {
		reg.metrics.ObservePlayerCards(len(ids))
	}
	return ids, nil
}

func (reg *Registry) checkTrace(r *MintReceipt, c *Card) error {
	if r.Owner != c.Owner {
		return fmt.Errorf("%w: %s minted to %s", ErrTraceConflict, r.TraceId, r.Owner)
	}
	old, err := reg.store.ReadCard(r.CardId)
	if err != nil {
		return err
	}
	if old == nil {
		panic(r.CardId)
	}
	if !bytes.Equal(old.Name, c.Name) || old.Rarity != c.Rarity || old.Power != c.Power {
		return fmt.Errorf("%w: %s minted card %d", ErrTraceConflict, r.TraceId, r.CardId)
	}
	return nil
}

func (reg *Registry) GetGameState() GameState {
	return GameStateActive
}

func (reg *Registry) rejected(reason string) {
	if reg.metrics != nil {
		reg.metrics.IncrementMintsRejected(reason)
	}
}
