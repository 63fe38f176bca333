// Package httpapi exposes the catalog over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-catalog-cache/catalog"
	"github.com/goliatone/go-catalog-cache/repository"
	"github.com/goliatone/go-catalog-cache/repositorycache"
)

// TotalCountHeader carries the number of items matching the list filter.
const TotalCountHeader = "X-Total-Count"

const healthTimeout = 2 * time.Second

// ItemStore is the item repository the handlers read and write through.
type ItemStore interface {
	repository.Repository[catalog.Item]
}

// StatsSource reports cache counters for the health endpoint.
type StatsSource interface {
	Stats() repositorycache.Stats
}

// Pinger checks store connectivity.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options configures the HTTP surface.
type Options struct {
	Items          ItemStore
	Stats          StatsSource
	Health         Pinger
	Logger         zerolog.Logger
	RequestLogging bool
}

// Handler serves the item routes.
type Handler struct {
	items  ItemStore
	stats  StatsSource
	health Pinger
}

// NewHandler returns the routes wrapped in the correlation id, request
// logging and recovery middlewares.
func NewHandler(opts Options) http.Handler {
	h := &Handler{items: opts.Items, stats: opts.Stats, health: opts.Health}

	return Chain(h.Routes(),
		WithCorrelationID(opts.Logger),
		WithRequestLogging(opts.RequestLogging),
		WithRecovery(),
	)
}

// Routes registers every endpoint on a new ServeMux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items", h.listItems)
	mux.HandleFunc("POST /items", h.createItem)
	mux.HandleFunc("GET /items/{id}", h.getItem)
	mux.HandleFunc("PUT /items/{id}", h.updateItem)
	mux.HandleFunc("DELETE /items/{id}", h.deleteItem)
	mux.HandleFunc("GET /healthz", h.healthz)
	return mux
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	spec, err := catalog.NewListSpec(params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if strings.Contains(strings.ToLower(r.Header.Get("Cache-Control")), "no-cache") {
		ctx = repositorycache.WithoutCache(ctx)
	}

	items, err := h.items.List(ctx, spec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []catalog.Item{}
	}

	total, err := h.items.Count(ctx, spec.Unpaged())
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set(TotalCountHeader, strconv.Itoa(total))
	writeCacheable(w, r, items)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.findItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	write(w, r, http.StatusOK, item)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req catalog.CreateItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	item := req.Item()
	created, err := h.items.Add(r.Context(), &item)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/items/"+strconv.FormatInt(created.ID, 10))
	write(w, r, http.StatusCreated, created)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req catalog.UpdateItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.findItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	req.Apply(item)
	if err := h.items.Update(r.Context(), item); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.findItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.items.Delete(r.Context(), item); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string                 `json:"status" msgpack:"status"`
	Cache  *repositorycache.Stats `json:"cache,omitempty" msgpack:"cache,omitempty"`
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.stats != nil {
		stats := h.stats.Stats()
		resp.Cache = &stats
	}

	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := h.health.PingContext(ctx); err != nil {
			loggerFrom(r).Error().Err(err).Msg("store ping failed")
			resp.Status = "unavailable"
			write(w, r, http.StatusServiceUnavailable, resp)
			return
		}
	}

	write(w, r, http.StatusOK, resp)
}

func (h *Handler) findItem(ctx context.Context, id int64) (*catalog.Item, error) {
	item, err := h.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errItemNotFound
	}
	return item, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// parseListParams applies defaults only for absent parameters, so an
// explicit pageSize=0 is rejected rather than replaced.
func parseListParams(r *http.Request) (catalog.ListParams, error) {
	q := r.URL.Query()
	p := catalog.DefaultListParams()
	p.Search = q.Get("search")
	p.Sort = q.Get("sort")

	errs := validation.Errors{}
	if q.Has("pageIndex") {
		n, err := strconv.Atoi(q.Get("pageIndex"))
		if err != nil {
			errs["pageIndex"] = errors.New("must be an integer")
		}
		p.PageIndex = n
	}
	if q.Has("pageSize") {
		n, err := strconv.Atoi(q.Get("pageSize"))
		if err != nil {
			errs["pageSize"] = errors.New("must be an integer")
		}
		p.PageSize = n
	}

	if err := errs.Filter(); err != nil {
		return p, err
	}
	return p, nil
}
