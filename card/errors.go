package card

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is the parent of every argument validation failure.
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidAddress = fmt.Errorf("%w: address", ErrInvalidInput)
	ErrInvalidName    = fmt.Errorf("%w: card name", ErrInvalidInput)
	ErrInvalidRarity  = fmt.Errorf("%w: rarity", ErrInvalidInput)
	ErrInvalidTicker  = fmt.Errorf("%w: collection ticker", ErrInvalidInput)

	ErrInvalidCollectionName = fmt.Errorf("%w: collection name", ErrInvalidInput)

	ErrInvalidRecord      = errors.New("invalid card record")
	ErrCounterOverflow    = errors.New("card counter overflow")
	ErrUninitialized      = errors.New("registry not initialized")
	ErrAlreadyInitialized = errors.New("registry already initialized")
	ErrTraceConflict      = errors.New("trace already minted a different card")
)
