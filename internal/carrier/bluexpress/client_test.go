package bluexpress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func configured() Config {
	return Config{Enabled: true, APIKey: "key", APISecret: "secret", AccountNumber: "ACC-1", Sandbox: true}
}

func TestNewClient_BaseURL(t *testing.T) {
	require.Equal(t, SandboxBaseURL, NewClient(Config{Sandbox: true}).BaseURL())
	require.Equal(t, ProductionBaseURL, NewClient(Config{}).BaseURL())
}

func TestConfigured(t *testing.T) {
	require.True(t, NewClient(configured()).Configured())
	require.False(t, NewClient(Config{APIKey: "k", APISecret: "s"}).Configured())
	require.False(t, NewClient(Config{Enabled: true, APIKey: "k"}).Configured())

	var nilClient *Client
	require.False(t, nilClient.Configured())
}

func TestUnconfiguredCallsReturnErrNotConfigured(t *testing.T) {
	client := NewClient(Config{})
	ctx := context.Background()

	_, err := client.CreateShipment(ctx, ShipmentRequest{})
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.TrackShipment(ctx, "BX1")
	require.ErrorIs(t, err, ErrNotConfigured)

	require.ErrorIs(t, client.CancelShipment(ctx, "S1"), ErrNotConfigured)

	_, err = client.CalculateRate(ctx, RateRequest{Comuna: "Santiago"})
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.GenerateLabel(ctx, "S1")
	require.ErrorIs(t, err, ErrNotConfigured)

	var carrierErr *Error
	require.True(t, errors.As(err, &carrierErr))
	require.Equal(t, "API_NOT_CONFIGURED", carrierErr.Code)
}

func TestCreateShipment(t *testing.T) {
	var received ShipmentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/shipments", r.URL.Path)
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.Equal(t, "secret", r.Header.Get("X-Api-Secret"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Shipment{ShipmentID: "S-1", TrackingNumber: "BX123"})
	}))
	defer server.Close()

	client := NewClient(configured(), WithBaseURL(server.URL), WithRateLimit(100))
	shipment, err := client.CreateShipment(context.Background(), ShipmentRequest{Reference: "ABCD1234"})
	require.NoError(t, err)
	require.Equal(t, "BX123", shipment.TrackingNumber)

	_, err = ulid.Parse(received.ClientReference)
	require.NoError(t, err, "client reference should be a ULID")
	require.Equal(t, shipment.ClientReference, received.ClientReference)
	require.Equal(t, "ACC-1", received.Account)
	require.Equal(t, ServiceStandard, received.Service)
}

func TestCalculateRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.InDelta(t, 3.5, req.WeightKg, 0.001)
		_ = json.NewEncoder(w).Encode(Rate{Cost: 5990, Days: 2})
	}))
	defer server.Close()

	client := NewClient(configured(), WithBaseURL(server.URL), WithRateLimit(100))
	quote, err := client.CalculateRate(context.Background(), RateRequest{Comuna: "Ñuñoa", Region: "Región Metropolitana", WeightKg: 3.5})
	require.NoError(t, err)
	require.Equal(t, int64(5990), quote.Cost)
	require.Equal(t, 2, quote.Days)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(Tracking{TrackingNumber: "BX1", Status: "in_transit"})
	}))
	defer server.Close()

	client := NewClient(configured(), WithBaseURL(server.URL), WithRateLimit(100))
	tracking, err := client.TrackShipment(context.Background(), "BX1")
	require.NoError(t, err)
	require.Equal(t, "in_transit", tracking.Status)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(configured(), WithBaseURL(server.URL), WithRateLimit(100))
	err := client.CancelShipment(context.Background(), "S1")

	var carrierErr *Error
	require.ErrorAs(t, err, &carrierErr)
	require.Equal(t, http.StatusBadRequest, carrierErr.Status)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/labels/S-9.pdf", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	client := NewClient(configured(), WithBaseURL(server.URL), WithRateLimit(100))
	label, err := client.GenerateLabel(context.Background(), "S-9")
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(label))
}
