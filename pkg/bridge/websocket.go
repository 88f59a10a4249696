package bridge

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/entrhq/canvas/pkg/logging"
)

const (
	wsWriteWait  = 10 * time.Second
	wsInboundCap = 256
)

// WSTransport carries envelopes over a websocket connection, one text frame
// per message.
type WSTransport struct {
	conn    *websocket.Conn
	in      chan []byte
	writeMu sync.Mutex
	once    sync.Once
	done    chan struct{}
	logger  logging.Sink
}

// NewWSTransport wraps an established connection and starts its read loop.
func NewWSTransport(conn *websocket.Conn, logger logging.Sink) *WSTransport {
	t := &WSTransport{
		conn:   conn,
		in:     make(chan []byte, wsInboundCap),
		done:   make(chan struct{}),
		logger: logging.OrNop(logger),
	}
	go t.readLoop()
	return t
}

// DialWS connects to a host websocket endpoint.
func DialWS(ctx context.Context, url string, logger logging.Sink) (*WSTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return NewWSTransport(conn, logger), nil
}

func (t *WSTransport) readLoop() {
	defer close(t.in)
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.Debugf("websocket read: %v", err)
			}
			t.shutdown()
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		select {
		case t.in <- data:
		case <-t.done:
			return
		}
	}
}

// Send writes one text frame.
func (t *WSTransport) Send(data []byte) error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write websocket message: %w", err)
	}
	return nil
}

// Messages yields inbound frames.
func (t *WSTransport) Messages() <-chan []byte { return t.in }

// Close sends a close frame and tears the connection down.
func (t *WSTransport) Close() error {
	t.writeMu.Lock()
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.writeMu.Unlock()
	t.shutdown()
	return nil
}

func (t *WSTransport) shutdown() {
	t.once.Do(func() {
		close(t.done)
		_ = t.conn.Close()
	})
}

// WSHandler upgrades HTTP requests to websocket transports and hands each
// one to OnConnect.
type WSHandler struct {
	Upgrader  websocket.Upgrader
	OnConnect func(*WSTransport)
	Logger    logging.Sink
}

// NewWSHandler returns a handler accepting connections from any origin. The
// bridge validates every envelope regardless of where the socket came from.
func NewWSHandler(onConnect func(*WSTransport), logger logging.Sink) *WSHandler {
	return &WSHandler{
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		OnConnect: onConnect,
		Logger:    logging.OrNop(logger),
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	h.OnConnect(NewWSTransport(conn, h.Logger))
}
