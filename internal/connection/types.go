package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
)

// Message wraps raw message data with its receive timestamp.
type Message struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL              string        // WebSocket URL (e.g., wss://stream.binance.com:9443/ws/btcusdt@ticker)
	HandshakeTimeout time.Duration // Dial handshake bound
	ReadTimeout      time.Duration // Max silence (no data, no ping) before the read fails
	WriteTimeout     time.Duration // Deadline for control frames
	BufferSize       int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      5 * time.Minute, // server pings every 3m
		WriteTimeout:     5 * time.Second,
		BufferSize:       1000,
	}
}
