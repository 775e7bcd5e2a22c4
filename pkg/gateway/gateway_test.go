package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PvPrs/matching-engine/pkg/engine"
	"github.com/PvPrs/matching-engine/pkg/eventstore"
	"github.com/PvPrs/matching-engine/pkg/marketdata"
	"github.com/PvPrs/matching-engine/pkg/orderbook"
	"github.com/PvPrs/matching-engine/pkg/participant"
)

func newTestGateway(t *testing.T) (*Gateway, *httptest.Server) {
	t.Helper()

	book := orderbook.NewOrderBook()
	eng := engine.NewMatchingEngine(book, nil)
	loop := engine.NewLoop(eng, 16, nil)

	store := eventstore.NewInMemoryEventStore()
	eng.RegisterEventCallback(func(ev engine.ExecutionEvent) {
		store.Append(context.Background(), ev)
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go loop.Run(ctx)

	g := New(loop, store, participant.NewRegistry("BTC", "USD"), "BTC-USD", nil)
	srv := httptest.NewServer(g.Router())
	t.Cleanup(srv.Close)
	return g, srv
}

func postOrder(t *testing.T, srv *httptest.Server, body string) orderResponse {
	t.Helper()
	resp, err := http.Post(srv.URL+"/orders", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out orderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSubmitAndMatchOverHTTP(t *testing.T) {
	_, srv := newTestGateway(t)

	sell := postOrder(t, srv, `{"side":"SELL","kind":"LIMIT","price":"100.00","quantity":"10","participant_id":1}`)
	require.Equal(t, engine.EventAccepted, sell.Event.Type)

	buy := postOrder(t, srv, `{"side":"BUY","kind":"LIMIT","price":"100.00","quantity":"4","participant_id":2}`)
	require.Equal(t, engine.EventFilled, buy.Event.Type)
	require.Len(t, buy.Event.Fills, 1)
	require.Equal(t, sell.OrderID, buy.Event.Fills[0].CounterID)
	require.Greater(t, buy.OrderID, sell.OrderID, "ids must be monotonic")
}

func TestCancelOverHTTP(t *testing.T) {
	_, srv := newTestGateway(t)

	placed := postOrder(t, srv, `{"side":"BUY","kind":"LIMIT","price":"50.00","quantity":"3"}`)

	url := srv.URL + "/orders/" + u64(placed.OrderID) + "/cancel?side=BUY"
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out orderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, engine.EventCancelled, out.Event.Type)

	// Cancelling again rejects with NotFound, still HTTP 200: a rejection is
	// an execution result, not a transport failure.
	resp2, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&out))
	require.Equal(t, engine.EventRejected, out.Event.Type)
	require.Equal(t, engine.ReasonNotFound, out.Event.Reason)
}

func TestMalformedPayloadRejectedBeforeEngine(t *testing.T) {
	_, srv := newTestGateway(t)

	for _, body := range []string{
		`not json`,
		`{"side":"SIDEWAYS","quantity":"1"}`,
		`{"side":"BUY","kind":"LIMIT","price":"100.00","quantity":"-5"}`,
		`{"side":"BUY","kind":"LIMIT","price":"abc","quantity":"5"}`,
	} {
		resp, err := http.Post(srv.URL+"/orders", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "payload %q", body)
	}
}

func TestUpdateRefusesMarketReplacement(t *testing.T) {
	_, srv := newTestGateway(t)

	placed := postOrder(t, srv, `{"side":"SELL","kind":"LIMIT","price":"100.00","quantity":"5"}`)

	body := bytes.NewBufferString(`{"side":"SELL","kind":"MARKET","quantity":"5"}`)
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/orders/"+u64(placed.OrderID), body)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRejectedOrderLeavesNoOwner(t *testing.T) {
	book := orderbook.NewOrderBook()
	eng := engine.NewMatchingEngine(book, nil)
	loop := engine.NewLoop(eng, 16, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go loop.Run(ctx)

	registry := participant.NewRegistry("BTC", "USD")
	g := New(loop, eventstore.NewInMemoryEventStore(), registry, "BTC-USD", nil)
	srv := httptest.NewServer(g.Router())
	t.Cleanup(srv.Close)

	// A market buy on an empty book rejects with NoLiquidity.
	out := postOrder(t, srv, `{"side":"BUY","kind":"MARKET","quantity":"5","participant_id":1}`)
	require.Equal(t, engine.EventRejected, out.Event.Type)
	require.Equal(t, engine.ReasonNoLiquidity, out.Event.Reason)

	_, ok := registry.OwnerOf(out.OrderID)
	require.False(t, ok, "rejected order must not keep an ownership entry")
}

func TestOrderEventHistory(t *testing.T) {
	_, srv := newTestGateway(t)

	placed := postOrder(t, srv, `{"side":"SELL","kind":"LIMIT","price":"100.00","quantity":"5"}`)

	resp, err := http.Get(srv.URL + "/orders/" + u64(placed.OrderID) + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	var history []engine.ExecutionEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.Len(t, history, 1)
	require.Equal(t, engine.EventAccepted, history[0].Type)
}

func TestBookSnapshotEndpoint(t *testing.T) {
	g, srv := newTestGateway(t)

	book := orderbook.NewOrderBook()
	g.PublishSnapshot(marketdata.BuildSnapshot("BTC-USD", book, 10))

	resp, err := http.Get(srv.URL + "/book")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap marketdata.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.Equal(t, "BTC-USD", snap.Instrument)
}

func u64(v uint64) string {
	return strconv.FormatUint(v, 10)
}
