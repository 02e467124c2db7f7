package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// rpcServer starts a JSON-RPC test server that answers with handle's result.
func rpcServer(t *testing.T, handle func(req rpcRequest) interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handle(req),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTPClient_GetBalance(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getBalance" {
			t.Errorf("expected method getBalance, got %s", req.Method)
		}
		if req.Params[0] != "owner1" {
			t.Errorf("expected owner1, got %v", req.Params[0])
		}
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value":   uint64(2_500_000_000),
		}
	})

	client := NewHTTPClient(server.URL)

	lamports, err := client.GetBalance(context.Background(), "owner1")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}

	if lamports != 2_500_000_000 {
		t.Errorf("expected 2500000000 lamports, got %d", lamports)
	}
}

func TestHTTPClient_GetTokenBalance(t *testing.T) {
	account := func(amount string) map[string]interface{} {
		return map[string]interface{}{
			"pubkey": "acc",
			"account": map[string]interface{}{
				"data": map[string]interface{}{
					"parsed": map[string]interface{}{
						"info": map[string]interface{}{
							"tokenAmount": map[string]interface{}{
								"amount":   amount,
								"decimals": 6,
								"uiAmount": 1.0,
							},
						},
					},
				},
			},
		}
	}

	server := rpcServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getTokenAccountsByOwner" {
			t.Errorf("expected method getTokenAccountsByOwner, got %s", req.Method)
		}
		return map[string]interface{}{
			"value": []interface{}{account("7000000"), account("3000000")},
		}
	})

	client := NewHTTPClient(server.URL)

	bal, err := client.GetTokenBalance(context.Background(), "owner1", "mint1")
	if err != nil {
		t.Fatalf("GetTokenBalance: %v", err)
	}

	if bal.Amount != 10_000_000 {
		t.Errorf("expected 10000000, got %d", bal.Amount)
	}
	if bal.Decimals != 6 {
		t.Errorf("expected 6 decimals, got %d", bal.Decimals)
	}
	if bal.Accounts != 2 {
		t.Errorf("expected 2 accounts, got %d", bal.Accounts)
	}
}

func TestHTTPClient_GetTokenBalance_NoAccounts(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		return map[string]interface{}{"value": []interface{}{}}
	})

	client := NewHTTPClient(server.URL)

	bal, err := client.GetTokenBalance(context.Background(), "owner1", "mint1")
	if err != nil {
		t.Fatalf("GetTokenBalance: %v", err)
	}
	if bal.Amount != 0 || bal.Accounts != 0 {
		t.Errorf("expected empty balance, got %+v", bal)
	}
}

func TestHTTPClient_SendTransaction(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		if req.Method != "sendTransaction" {
			t.Errorf("expected method sendTransaction, got %s", req.Method)
		}
		config, ok := req.Params[1].(map[string]interface{})
		if !ok {
			t.Errorf("expected config object, got %T", req.Params[1])
			return ""
		}
		if config["encoding"] != "base64" {
			t.Errorf("expected base64 encoding, got %v", config["encoding"])
		}
		if config["skipPreflight"] != false {
			t.Errorf("expected preflight enabled, got %v", config["skipPreflight"])
		}
		if config["preflightCommitment"] != "confirmed" {
			t.Errorf("expected confirmed preflight, got %v", config["preflightCommitment"])
		}
		return "sig123"
	})

	client := NewHTTPClient(server.URL)

	sig, err := client.SendTransaction(context.Background(), "AQID", SendOptions{PreflightCommitment: CommitmentConfirmed})
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig != "sig123" {
		t.Errorf("expected sig123, got %s", sig)
	}
}

func TestHTTPClient_SendTransaction_BoundedAttempts(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(10),
		WithRetryDelay(time.Millisecond),
	)

	_, err := client.SendTransaction(context.Background(), "AQID", SendOptions{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_GetSignatureStatuses(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getSignatureStatuses" {
			t.Errorf("expected method getSignatureStatuses, got %s", req.Method)
		}
		return map[string]interface{}{
			"value": []interface{}{
				map[string]interface{}{
					"slot":               uint64(100),
					"confirmations":      uint64(3),
					"err":                nil,
					"confirmationStatus": "confirmed",
				},
				nil,
				map[string]interface{}{
					"slot":               uint64(101),
					"confirmations":      nil,
					"err":                map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
					"confirmationStatus": "finalized",
				},
			},
		}
	})

	client := NewHTTPClient(server.URL)

	statuses, err := client.GetSignatureStatuses(context.Background(), "a", "b", "c")
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}

	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses[0] == nil || !statuses[0].Reached(CommitmentConfirmed) {
		t.Errorf("expected first signature confirmed, got %+v", statuses[0])
	}
	if statuses[1] != nil {
		t.Errorf("expected unknown second signature, got %+v", statuses[1])
	}
	if statuses[2] == nil || statuses[2].Err == nil {
		t.Errorf("expected error payload on third signature, got %+v", statuses[2])
	}
}

func TestHTTPClient_GetMintDecimals(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getTokenSupply" {
			t.Errorf("expected method getTokenSupply, got %s", req.Method)
		}
		return map[string]interface{}{
			"value": map[string]interface{}{"amount": "1000", "decimals": 5},
		}
	})

	client := NewHTTPClient(server.URL)

	dec, err := client.GetMintDecimals(context.Background(), "mint1")
	if err != nil {
		t.Fatalf("GetMintDecimals: %v", err)
	}
	if dec != 5 {
		t.Errorf("expected 5 decimals, got %d", dec)
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  int64(999),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	slot, err := client.GetSlot(context.Background())
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}

	if slot != 999 {
		t.Errorf("expected slot 999, got %d", slot)
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_FallbackRotation(t *testing.T) {
	var primaryHits, fallbackHits atomic.Int32

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryHits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer primary.Close()

	fallback := rpcServer(t, func(req rpcRequest) interface{} {
		fallbackHits.Add(1)
		return int64(42)
	})

	client := NewHTTPClient(primary.URL,
		WithFallbackEndpoints(fallback.URL),
		WithRetryDelay(time.Millisecond),
	)

	slot, err := client.GetSlot(context.Background())
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if slot != 42 {
		t.Errorf("expected slot 42, got %d", slot)
	}
	if primaryHits.Load() != 1 || fallbackHits.Load() != 1 {
		t.Errorf("expected one hit each, got primary=%d fallback=%d", primaryHits.Load(), fallbackHits.Load())
	}
	if client.Endpoint() != fallback.URL {
		t.Errorf("expected client to stay on fallback, got %s", client.Endpoint())
	}

	// Subsequent calls go straight to the healthy endpoint.
	if _, err := client.GetSlot(context.Background()); err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if primaryHits.Load() != 1 {
		t.Errorf("expected primary to be skipped, got %d hits", primaryHits.Load())
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32002,
				"message": "Transaction simulation failed",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	_, err := client.SendTransaction(context.Background(), "AQID", SendOptions{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	rpcErr, ok := err.(*rpcError)
	if !ok {
		t.Fatalf("expected rpcError, got %T", err)
	}

	if rpcErr.Code != -32002 {
		t.Errorf("expected code -32002, got %d", rpcErr.Code)
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := client.GetSlot(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
