package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/pfn-backend/internal/engine"
	"github.com/DoyleJ11/pfn-backend/internal/hub"
	"github.com/DoyleJ11/pfn-backend/internal/room"
	"github.com/DoyleJ11/pfn-backend/internal/types"
)

// NewStateFunc builds the lobby a freshly created room starts from.
type NewStateFunc func() engine.State

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// lookupRoom writes the error response itself when it returns nil.
func lookupRoom(w http.ResponseWriter, r *http.Request, h *hub.Hub) *room.Room {
	rm, err := h.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeUnavailable(w, err)
		return nil
	}
	if rm == nil {
		writeError(w, http.StatusNotFound, "room not found")
	}
	return rm
}

func CreateRoom(h *hub.Hub, newState NewStateFunc, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to generate code")
				return
			}
			existing, err := h.Lookup(r.Context(), c)
			if err != nil {
				writeUnavailable(w, err)
				return
			}
			if existing == nil {
				code = c
				break
			}
			log.Debug("collision on code, regenerating", zap.String("code", c))
		}

		rm, err := h.Ensure(r.Context(), code, newState())
		if err != nil {
			writeUnavailable(w, err)
			return
		}
		if rm == nil {
			writeError(w, http.StatusInternalServerError, "failed to create room")
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func GetRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := lookupRoom(w, r, h)
		if rm == nil {
			return
		}
		view, err := rm.View(r.Context())
		if err != nil {
			writeUnavailable(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.NewSnapshot(view.Version, view.State))
	}
}

// PostCommand queues a client message on the room. The outcome is observed
// through the next snapshot, as rejected commands are silent.
func PostCommand(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := lookupRoom(w, r, h)
		if rm == nil {
			return
		}

		var cm types.ClientMessage
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&cm); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		cmd, ok := cm.ToCommand()
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown type")
			return
		}

		if err := rm.Send(r.Context(), room.FromClient{Cmd: cmd}); err != nil {
			writeUnavailable(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// writeUnavailable maps a failed hub or room exchange to a status: a room that
// has exited is gone, anything else (hub shut down, request cancelled) is 503.
func writeUnavailable(w http.ResponseWriter, err error) {
	if errors.Is(err, room.ErrClosed) {
		writeError(w, http.StatusGone, "room closed")
		return
	}
	writeError(w, http.StatusServiceUnavailable, "service unavailable")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ServerMessage{Type: types.MsgError, Error: msg})
}
