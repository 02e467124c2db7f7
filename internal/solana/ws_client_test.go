package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsServer runs handler on every upgraded connection.
func wsServer(t *testing.T, handler func(c *websocket.Conn)) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()
		handler(c)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// drain keeps the server side open until the client disconnects.
func drain(c *websocket.Conn) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

func TestWSClient_Connect(t *testing.T) {
	wsURL := wsServer(t, drain)

	client, err := NewWSClient(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if client.closed.Load() {
		t.Error("client should not be closed")
	}
}

func TestWSClient_SubscribeSignature(t *testing.T) {
	wsURL := wsServer(t, func(c *websocket.Conn) {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Method != "signatureSubscribe" {
			t.Errorf("expected signatureSubscribe, got %s", req.Method)
		}
		if req.Params[0] != "sig1" {
			t.Errorf("expected sig1, got %v", req.Params[0])
		}

		subID := int64(7)
		c.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: &subID})

		time.Sleep(20 * time.Millisecond)
		c.WriteJSON(wsNotification{
			JSONRPC: "2.0",
			Method:  "signatureNotification",
			Params: &wsNotificationParams{
				Subscription: subID,
				Result: wsNotificationResult{
					Context: &wsContext{Slot: 555},
					Value:   wsSignatureValue{Err: nil},
				},
			},
		})

		drain(c)
	})

	client, err := NewWSClient(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	sub, err := client.SubscribeSignature(context.Background(), "sig1")
	if err != nil {
		t.Fatalf("SubscribeSignature: %v", err)
	}
	defer sub.Unsubscribe()

	select {
	case n, ok := <-sub.C:
		if !ok {
			t.Fatal("channel closed without notification")
		}
		if n.Signature != "sig1" {
			t.Errorf("expected sig1, got %s", n.Signature)
		}
		if n.Slot != 555 {
			t.Errorf("expected slot 555, got %d", n.Slot)
		}
		if n.Err != nil {
			t.Errorf("expected nil err, got %v", n.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notification")
	}

	// One-shot: channel closes after the notification.
	select {
	case _, ok := <-sub.C:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Error("channel was not closed")
	}
}

func TestWSClient_SignatureNotificationWithError(t *testing.T) {
	wsURL := wsServer(t, func(c *websocket.Conn) {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var req wsRequest
		json.Unmarshal(msg, &req)

		// Subscription ID 0 is valid on some nodes.
		subID := int64(0)
		c.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: &subID})
		c.WriteJSON(wsNotification{
			JSONRPC: "2.0",
			Method:  "signatureNotification",
			Params: &wsNotificationParams{
				Subscription: subID,
				Result: wsNotificationResult{
					Value: wsSignatureValue{Err: map[string]interface{}{"InstructionError": []interface{}{2, map[string]interface{}{"Custom": 6001}}}},
				},
			},
		})
		drain(c)
	})

	client, err := NewWSClient(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	sub, err := client.SubscribeSignature(context.Background(), "sig2")
	if err != nil {
		t.Fatalf("SubscribeSignature: %v", err)
	}
	defer sub.Unsubscribe()

	select {
	case n := <-sub.C:
		if n.Err == nil {
			t.Error("expected error payload")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notification")
	}
}

func TestWSClient_SubscribeTimeout(t *testing.T) {
	wsURL := wsServer(t, drain)

	cfg := DefaultWSConfig()
	cfg.SubscribeTimeout = 50 * time.Millisecond

	client, err := NewWSClient(context.Background(), wsURL, &cfg)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if _, err := client.SubscribeSignature(context.Background(), "sig3"); err == nil {
		t.Fatal("expected subscription timeout")
	}
}

func TestWSClient_Close(t *testing.T) {
	wsURL := wsServer(t, drain)

	client, err := NewWSClient(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	// Second close is a no-op.
	if err := client.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if _, err := client.SubscribeSignature(context.Background(), "sig"); err == nil {
		t.Error("expected error subscribing on closed client")
	}
}
