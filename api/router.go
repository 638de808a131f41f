package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MixinNetwork/cards/card"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	registry    *card.Registry
	maxPageSize int
}

func NewHandler(registry *card.Registry, maxPageSize int) *Handler {
	return &Handler{
		registry:    registry,
		maxPageSize: maxPageSize,
	}
}

// NewRouter mounts the registry endpoints and the metrics exposition of g.
func NewRouter(h *Handler, g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/collection", h.handleGetCollection)
	r.Post("/collection", h.handleInitialize)
	r.Post("/cards", h.handleMintCard)
	r.Get("/cards/{id}", h.handleGetCard)
	r.Get("/players/{address}/cards", h.handleGetPlayerCards)
	r.Get("/game/state", h.handleGetGameState)
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return r
}

type collectionView struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
	Cards  uint64 `json:"cards"`
}

type initializeRequest struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

type mintRequest struct {
	To      card.Address `json:"to"`
	Name    string       `json:"name"`
	Rarity  uint8        `json:"rarity"`
	Power   uint32       `json:"power"`
	TraceId string       `json:"trace_id"`
}

type cardView struct {
	Id         uint64       `json:"id"`
	Name       string       `json:"name"`
	Rarity     uint8        `json:"rarity"`
	RarityName string       `json:"rarity_name"`
	Power      uint32       `json:"power"`
	Owner      card.Address `json:"owner"`
}

func (h *Handler) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.registry.Collection(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	count, err := h.registry.CardCount(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionView{
		Name:   string(c.Name),
		Ticker: string(c.Ticker),
		Cards:  count,
	})
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest(err))
		return
	}
	err := h.registry.Initialize(r.Context(), []byte(req.Name), []byte(req.Ticker))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, collectionView{Name: req.Name, Ticker: req.Ticker})
}

func (h *Handler) handleMintCard(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest(err))
		return
	}
	id, err := h.registry.MintCardOnce(r.Context(), req.TraceId, req.To, []byte(req.Name), card.Rarity(req.Rarity), req.Power)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (h *Handler) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, badRequest(err))
		return
	}
	c, err := h.registry.GetCard(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "card not found"})
		return
	}
	writeJSON(w, http.StatusOK, cardView{
		Id:         id,
		Name:       string(c.Name),
		Rarity:     uint8(c.Rarity),
		RarityName: c.Rarity.String(),
		Power:      c.Power,
		Owner:      c.Owner,
	})
}

func (h *Handler) handleGetPlayerCards(w http.ResponseWriter, r *http.Request) {
	player, err := card.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	var offset uint64
	if s := r.URL.Query().Get("offset"); s != "" {
		offset, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			writeError(w, badRequest(err))
			return
		}
	}
	limit := h.maxPageSize
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 1 {
			writeError(w, badRequest(errors.New("invalid limit")))
			return
		}
		if limit > h.maxPageSize {
			limit = h.maxPageSize
		}
	}
	ids, err := h.registry.ListPlayerCards(r.Context(), player, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"player": player, "cards": ids})
}

func (h *Handler) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]uint32{"state": uint32(h.registry.GetGameState())})
}

type requestError struct {
	err error
}

func (e requestError) Error() string { return e.err.Error() }

func badRequest(err error) error {
	return requestError{err: err}
}

func statusFor(err error) int {
	var re requestError
	switch {
	case errors.As(err, &re), errors.Is(err, card.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, card.ErrUninitialized), errors.Is(err, card.ErrAlreadyInitialized),
		errors.Is(err, card.ErrTraceConflict):
		return http.StatusConflict
	case errors.Is(err, card.ErrCounterOverflow):
		return http.StatusInsufficientStorage
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Printf("api error %v\n", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
