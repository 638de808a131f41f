package card

import "fmt"

// Rarity is the scarcity tier of a card. Only the four named tiers are
// accepted by the registry.
type Rarity uint8

const (
	RarityCommon    Rarity = 1
	RarityRare      Rarity = 2
	RarityEpic      Rarity = 3
	RarityLegendary Rarity = 4
)

func (r Rarity) Valid() bool {
	return r >= RarityCommon && r <= RarityLegendary
}

func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "Common"
	case RarityRare:
		return "Rare"
	case RarityEpic:
		return "Epic"
	case RarityLegendary:
		return "Legendary"
	}
	return fmt.Sprintf("Rarity(%d)", uint8(r))
}
