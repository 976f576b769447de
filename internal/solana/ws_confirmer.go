package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfirmerConfig configures WebSocket confirmation behavior.
type WSConfirmerConfig struct {
	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration
	// WriteTimeout is timeout for writing the subscribe request.
	WriteTimeout time.Duration
	// ReadTimeout is timeout for reading a single message.
	ReadTimeout time.Duration
}

// DefaultWSConfirmerConfig returns default WebSocket confirmation configuration.
func DefaultWSConfirmerConfig() WSConfirmerConfig {
	return WSConfirmerConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      15 * time.Second,
	}
}

// WSConfirmer waits for transaction confirmation via signatureSubscribe.
// Each ConfirmSignature call opens its own short-lived connection: the run
// submits a handful of batches, so per-call connections are cheaper to
// reason about than a shared connection with reconnect state.
type WSConfirmer struct {
	endpoint  string
	config    WSConfirmerConfig
	requestID atomic.Uint64
}

// NewWSConfirmer creates a WSConfirmer for the given ws:// or wss:// endpoint.
func NewWSConfirmer(endpoint string, config *WSConfirmerConfig) *WSConfirmer {
	cfg := DefaultWSConfirmerConfig()
	if config != nil {
		cfg = *config
	}
	return &WSConfirmer{endpoint: endpoint, config: cfg}
}

// wsRequest represents a JSON-RPC 2.0 request over WebSocket.
type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// wsMessage is any inbound frame: subscribe confirmation or notification.
type wsMessage struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	Method string          `json:"method"`
	Params *wsNotifyParams `json:"params"`
}

type wsNotifyParams struct {
	Subscription int64 `json:"subscription"`
	Result       struct {
		Value struct {
			Err interface{} `json:"err"`
		} `json:"value"`
	} `json:"result"`
}

// ConfirmSignature blocks until the signature reaches "confirmed"
// commitment, the transaction fails on chain, or ctx expires.
func (c *WSConfirmer) ConfirmSignature(ctx context.Context, signature string) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	// Unblock the read loop when ctx expires.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]string{"commitment": "confirmed"},
		},
	}

	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	for {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read message: %w", err)
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // Ignore unparseable frames
		}

		if msg.ID == reqID && msg.Error != nil {
			return fmt.Errorf("subscribe failed: %w", msg.Error)
		}

		if msg.Method != "signatureNotification" || msg.Params == nil {
			continue
		}

		// signatureSubscribe auto-cancels after the first notification.
		if txErr := msg.Params.Result.Value.Err; txErr != nil {
			return fmt.Errorf("transaction failed on chain: %v", txErr)
		}
		return nil
	}
}
