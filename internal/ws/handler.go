package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/DoyleJ11/pfn-backend/internal/hub"
	"github.com/DoyleJ11/pfn-backend/internal/room"
	"github.com/DoyleJ11/pfn-backend/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 5 * time.Minute
)

// Handler streams a room's snapshots to one client and relays its messages
// back as commands. origins is passed through as the accepted origin patterns.
func Handler(h *hub.Hub, origins []string, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		rm, err := h.Lookup(r.Context(), code)
		if err != nil {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: origins,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		log := log.With(zap.String("code", code), zap.String("client_id", clientID))

		out := make(chan room.Snapshot, 8)
		if err := rm.Send(r.Context(), room.Join{ClientID: clientID, Outbox: out}); err != nil {
			conn.Close(websocket.StatusGoingAway, "room closed")
			return
		}
		defer func() {
			// a closed room has already forgotten this client
			_ = rm.Send(context.Background(), room.Leave{ClientID: clientID})
		}()
		log.Debug("client joined")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go writeLoop(ctx, cancel, conn, out, log)

		readLoop(ctx, conn, rm, log)
	}
}

// writeLoop ends when the room closes the outbox, which happens on shutdown
// or when this client fell too far behind.
func writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out <-chan room.Snapshot, log *zap.Logger) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-out:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "room closed")
				return
			}
			pub := types.NewSnapshot(snap.Version, snap.State)
			if err := write(ctx, conn, types.ServerMessage{Type: types.MsgStateSnapshot, Snapshot: &pub}); err != nil {
				log.Debug("snapshot write failed", zap.Error(err))
				return
			}
		}
	}
}

// readLoop decodes client messages itself rather than through wsjson, which
// closes the connection on a malformed payload.
func readLoop(ctx context.Context, conn *websocket.Conn, rm *room.Room, log *zap.Logger) {
	for {
		readCtx, cancel := context.WithTimeout(ctx, readTimeout)
		_, data, err := conn.Read(readCtx)
		cancel()
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				log.Debug("client read ended", zap.Error(err))
			}
			return
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			_ = write(ctx, conn, types.ServerMessage{Type: types.MsgError, Error: "bad json"})
			continue
		}
		cmd, ok := cm.ToCommand()
		if !ok {
			_ = write(ctx, conn, types.ServerMessage{Type: types.MsgError, Error: "unknown type"})
			continue
		}
		if err := rm.Send(ctx, room.FromClient{Cmd: cmd}); err != nil {
			return
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
