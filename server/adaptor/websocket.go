package adaptor

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/ponyo877/chatroom/server/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024

	requestBuffer = 32
	outboxBuffer  = 256
)

// Handler upgrades HTTP requests to websocket sessions and bridges each
// connection to the usecase through a request/outbox channel pair. The
// outbox is closed only after the usecase has returned and unregistered the
// session, so broadcast sends never race the close.
type Handler struct {
	uc       Usecase
	upgrader websocket.Upgrader
}

func NewHandler(uc Usecase) *Handler {
	return &Handler{
		uc: uc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	sessionID := ulid.Make().String()
	remote := conn.RemoteAddr().String()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	requests := make(chan domain.Request, requestBuffer)
	outbox := make(chan domain.Event, outboxBuffer)

	writerDone := make(chan struct{})
	go h.writePump(conn, outbox, writerDone)

	usecaseDone := make(chan error, 1)
	go func() {
		err := h.uc.HandleSession(ctx, requests, outbox, sessionID, remote)
		usecaseDone <- err
		if err != nil {
			// A protocol error drops the connection. Canceling unblocks a
			// read pump stuck on a full request buffer; closing the conn
			// unblocks one stuck in a read.
			cancel()
			conn.Close()
		}
	}()

	h.readPump(ctx, conn, requests)

	close(requests)
	if err := <-usecaseDone; err != nil {
		log.Printf("session %s: %v", sessionID, err)
	}
	close(outbox)
	<-writerDone
	conn.Close()
}

// readPump feeds inbound frames to the usecase until the connection closes
// or a frame fails to parse. A malformed frame drops the connection; the
// usecase sees only well-formed requests.
func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, requests chan<- domain.Request) {
	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("failed to set read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var request domain.Request
		if err := conn.ReadJSON(&request); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("unexpected websocket close: %v", err)
			}
			return
		}

		select {
		case requests <- request:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, outbox <-chan domain.Event, done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(done)
	}()

	for {
		select {
		case event, ok := <-outbox:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
