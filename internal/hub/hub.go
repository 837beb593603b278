package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/pfn-backend/internal/engine"
	"github.com/DoyleJ11/pfn-backend/internal/room"
)

var ErrClosed = errors.New("hub closed")

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Code  string
	State engine.State
	Reply chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type EnsureRoom struct {
	Code  string
	State engine.State // only used if creation happens
	Reply chan *room.Room
}

type RemoveRoom struct {
	Code string
}

type CountRooms struct {
	Reply chan int
}

type Hub struct {
	inbox    chan HubMsg
	rooms    map[string]*room.Room
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	log      *zap.Logger
	roomOpts []room.Option
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (CountRooms) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// NewHub starts the registry loop. roomOpts are passed to every room it creates.
func NewHub(parent context.Context, log *zap.Logger, roomOpts ...room.Option) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		rooms:    make(map[string]*room.Room),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		log:      log,
		roomOpts: roomOpts,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub loop has exited.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Lookup returns the room for code, or nil when there is none.
func (h *Hub) Lookup(ctx context.Context, code string) (*room.Room, error) {
	reply := make(chan *room.Room, 1)
	return h.request(ctx, GetRoom{Code: code, Reply: reply}, reply)
}

// Ensure returns the room for code, creating it from state if needed.
func (h *Hub) Ensure(ctx context.Context, code string, state engine.State) (*room.Room, error) {
	reply := make(chan *room.Room, 1)
	return h.request(ctx, EnsureRoom{Code: code, State: state, Reply: reply}, reply)
}

func (h *Hub) request(ctx context.Context, m HubMsg, reply <-chan *room.Room) (*room.Room, error) {
	// the inbox is buffered, so an exited hub could still accept a message
	select {
	case <-h.done:
		return nil, ErrClosed
	default:
	}
	select {
	case h.inbox <- m:
	case <-h.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r, nil
	case <-h.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if r := h.rooms[msg.Code]; r != nil {
					msg.Reply <- r
					break
				}
				msg.Reply <- h.create(msg.Code, msg.State)

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // May be nil

			case EnsureRoom:
				if r := h.rooms[msg.Code]; r != nil {
					msg.Reply <- r
					break
				}
				msg.Reply <- h.create(msg.Code, msg.State)

			case RemoveRoom:
				if r := h.rooms[msg.Code]; r != nil {
					_ = r.Send(context.Background(), room.Shutdown{})
					delete(h.rooms, msg.Code)
					h.log.Info("room removed", zap.String("code", msg.Code))
				}

			case CountRooms:
				msg.Reply <- len(h.rooms)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(code string, state engine.State) *room.Room {
	opts := append([]room.Option{room.WithLogger(h.log.With(zap.String("code", code)))}, h.roomOpts...)
	r := room.New(h.ctx, state, opts...)
	h.rooms[code] = r
	h.log.Info("room created", zap.String("code", code))
	return r
}

func (h *Hub) shutdown() {
	for _, r := range h.rooms {
		_ = r.Send(context.Background(), room.Shutdown{})
	}
	clear(h.rooms)
	h.cancel()
}
