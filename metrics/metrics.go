package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors of the card registry.
type Metrics struct {
	CardsMinted       prometheus.Counter
	MintsRejected     *prometheus.CounterVec
	MintsDeduplicated prometheus.Counter
	PlayerCardsListed prometheus.Histogram
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CardsMinted: f.NewCounter(prometheus.CounterOpts{
			Name: "cards_minted_total",
			Help: "Total number of cards minted",
		}),
		MintsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cards_mint_rejected_total",
			Help: "Mint requests rejected, by reason",
		}, []string{"reason"}),
		MintsDeduplicated: f.NewCounter(prometheus.CounterOpts{
			Name: "cards_mint_deduplicated_total",
			Help: "Traced mint requests answered from an earlier receipt",
		}),
		PlayerCardsListed: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cards_player_cards_listed",
			Help:    "Number of identifiers returned by a player cards query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

func (m *Metrics) IncrementCardsMinted() {
	m.CardsMinted.Inc()
}

func (m *Metrics) IncrementMintsRejected(reason string) {
	m.MintsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementMintsDeduplicated() {
	m.MintsDeduplicated.Inc()
}

func (m *Metrics) ObservePlayerCards(n int) {
	m.PlayerCardsListed.Observe(float64(n))
}
