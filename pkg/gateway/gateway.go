// Package gateway is the wire boundary in front of the matching engine: it
// decodes inbound order payloads, allocates order ids, and hands fully
// formed intents to the engine loop. Malformed payloads never reach the
// core; decoding failures answer 400 here.
package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/PvPrs/matching-engine/pkg/engine"
	"github.com/PvPrs/matching-engine/pkg/eventstore"
	"github.com/PvPrs/matching-engine/pkg/marketdata"
	"github.com/PvPrs/matching-engine/pkg/orderbook"
	"github.com/PvPrs/matching-engine/pkg/participant"
)

// Gateway owns the HTTP surface and the id allocator. Order ids are assigned
// here, before intents reach the engine, and increase monotonically across
// all connections.
type Gateway struct {
	loop       *engine.Loop
	store      eventstore.EventStore
	registry   *participant.Registry
	hub        *Hub
	instrument string
	log        *zap.Logger

	nextID   atomic.Uint64
	snapshot atomic.Value // marketdata.Snapshot
	upgrader websocket.Upgrader

	router     *mux.Router
	routerOnce sync.Once
}

func New(loop *engine.Loop, store eventstore.EventStore, registry *participant.Registry, instrument string, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Gateway{
		loop:       loop,
		store:      store,
		registry:   registry,
		hub:        NewHub(log),
		instrument: instrument,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	g.snapshot.Store(marketdata.Snapshot{Instrument: instrument})
	return g
}

// PublishSnapshot caches the latest depth view and streams it to websocket
// subscribers. It is called from the engine's event callback, the only place
// the book may be read.
func (g *Gateway) PublishSnapshot(snap marketdata.Snapshot) {
	g.snapshot.Store(snap)
	if msg, err := json.Marshal(struct {
		Type string               `json:"type"`
		Data marketdata.TopOfBook `json:"data"`
	}{Type: "top_of_book", Data: snap.Top()}); err == nil {
		g.hub.Broadcast(msg)
	}
}

// PublishExecution streams one execution event to websocket subscribers.
func (g *Gateway) PublishExecution(ev engine.ExecutionEvent) {
	if msg, err := json.Marshal(struct {
		Type string                `json:"type"`
		Data engine.ExecutionEvent `json:"data"`
	}{Type: "execution", Data: ev}); err == nil {
		g.hub.Broadcast(msg)
	}
}

// Router lazily builds the mux router.
func (g *Gateway) Router() *mux.Router {
	g.routerOnce.Do(func() {
		r := mux.NewRouter()
		r.HandleFunc("/orders", g.handleNewOrder).Methods(http.MethodPost)
		r.HandleFunc("/orders/{id}", g.handleUpdateOrder).Methods(http.MethodPut)
		r.HandleFunc("/orders/{id}/cancel", g.handleCancelOrder).Methods(http.MethodPost)
		r.HandleFunc("/orders/{id}/events", g.handleOrderEvents).Methods(http.MethodGet)
		r.HandleFunc("/book", g.handleBook).Methods(http.MethodGet)
		r.HandleFunc("/ws", g.handleWebsocket)
		r.HandleFunc("/healthz", g.handleHealth).Methods(http.MethodGet)
		g.router = r
	})
	return g.router
}

// orderPayload is the inbound JSON for new orders and updates.
type orderPayload struct {
	Side          string `json:"side"`
	Kind          string `json:"kind"`
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	ParticipantID uint64 `json:"participant_id"`
}

type orderResponse struct {
	OrderID uint64                `json:"order_id"`
	Event   engine.ExecutionEvent `json:"event"`
}

// decodeOrder validates the payload and builds a record with a fresh id.
func (g *Gateway) decodeOrder(r *http.Request) (*orderbook.OrderRecord, orderbook.Side, uint64, error) {
	var payload orderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, "", 0, errBadPayload("invalid json")
	}

	side := orderbook.Side(payload.Side)
	if side != orderbook.BUY && side != orderbook.SELL {
		return nil, "", 0, errBadPayload("side must be BUY or SELL")
	}

	kind := orderbook.OrderKind(payload.Kind)
	if kind == "" {
		kind = orderbook.LIMIT
	}
	if kind != orderbook.LIMIT && kind != orderbook.MARKET {
		return nil, "", 0, errBadPayload("kind must be LIMIT or MARKET")
	}

	qty, err := decimal.NewFromString(payload.Quantity)
	if err != nil || !qty.IsPositive() {
		return nil, "", 0, errBadPayload("quantity must be a positive decimal")
	}

	rec := &orderbook.OrderRecord{
		ID:       g.nextID.Add(1),
		Quantity: qty,
		Kind:     kind,
	}
	if kind == orderbook.LIMIT {
		price, err := decimal.NewFromString(payload.Price)
		if err != nil || !price.IsPositive() {
			return nil, "", 0, errBadPayload("price must be a positive decimal")
		}
		rec.Price = orderbook.NewPriceLevel(price)
	}
	return rec, side, payload.ParticipantID, nil
}

func (g *Gateway) handleNewOrder(w http.ResponseWriter, r *http.Request) {
	rec, side, participantID, err := g.decodeOrder(r)
	if err != nil {
		httpError(w, err)
		return
	}

	// Ownership must be on record before the intent runs so settlement can
	// resolve the taker; rejections untrack afterwards.
	if g.registry != nil && participantID != 0 {
		g.registry.Register(participantID, "")
		g.registry.TrackOrder(rec.ID, participantID)
	}

	intent := engine.BuyIntent(rec)
	if side == orderbook.SELL {
		intent = engine.SellIntent(rec)
	}
	ev, err := g.loop.Submit(r.Context(), intent)
	if err != nil {
		httpError(w, err)
		return
	}
	if g.registry != nil && ev.Type == engine.EventRejected {
		g.registry.UntrackOrder(rec.ID)
	}
	writeJSON(w, http.StatusOK, orderResponse{OrderID: rec.ID, Event: ev})
}

func (g *Gateway) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, side, err := g.pathOrder(r)
	if err != nil {
		httpError(w, err)
		return
	}
	ev, err := g.loop.Submit(r.Context(), engine.CancelIntent(id, side))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{OrderID: id, Event: ev})
}

func (g *Gateway) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	prevID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		httpError(w, errBadPayload("invalid order id"))
		return
	}
	rec, side, participantID, err := g.decodeOrder(r)
	if err != nil {
		httpError(w, err)
		return
	}
	if rec.Kind != orderbook.LIMIT {
		httpError(w, errBadPayload("update replacement must be a LIMIT order"))
		return
	}

	if g.registry != nil && participantID != 0 {
		g.registry.Register(participantID, "")
		g.registry.TrackOrder(rec.ID, participantID)
	}

	ev, err := g.loop.Submit(r.Context(), engine.UpdateIntent(prevID, side, rec))
	if err != nil {
		httpError(w, err)
		return
	}
	if g.registry != nil && ev.Type == engine.EventRejected {
		g.registry.UntrackOrder(rec.ID)
	}
	writeJSON(w, http.StatusOK, orderResponse{OrderID: rec.ID, Event: ev})
}

func (g *Gateway) handleOrderEvents(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		httpError(w, errBadPayload("invalid order id"))
		return
	}
	history, err := g.store.History(r.Context(), id)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (g *Gateway) handleBook(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.snapshot.Load())
}

func (g *Gateway) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	g.hub.add(conn)
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "instrument": g.instrument})
}

// pathOrder reads the order id from the path and the side from the query
// string or body.
func (g *Gateway) pathOrder(r *http.Request) (uint64, orderbook.Side, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, "", errBadPayload("invalid order id")
	}

	side := orderbook.Side(r.URL.Query().Get("side"))
	if side == "" {
		var payload struct {
			Side string `json:"side"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			side = orderbook.Side(payload.Side)
		}
	}
	if side != orderbook.BUY && side != orderbook.SELL {
		return 0, "", errBadPayload("side must be BUY or SELL")
	}
	return id, side, nil
}
