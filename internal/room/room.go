package room

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/pfn-backend/internal/engine"
	"github.com/DoyleJ11/pfn-backend/internal/timer"
)

var ErrClosed = errors.New("room closed")

type Msg interface{ isRoomMsg() }

type FromClient struct {
	Cmd engine.Command
}

func (FromClient) isRoomMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isRoomMsg() {}

type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type Snapshot struct {
	Version int
	State   engine.State
}

type View struct {
	Version     int
	NumClients  int
	TimerActive bool
	State       engine.State
}

type Option func(*Room)

func WithClock(c clockwork.Clock) Option { return func(r *Room) { r.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(r *Room) { r.log = l } }

func WithTickInterval(d time.Duration) Option { return func(r *Room) { r.interval = d } }

// Room owns one game. Every message is handled to completion on a single
// goroutine, timer notifications included, so the state needs no locks.
type Room struct {
	inbox    chan Msg
	ticks    chan timer.Notification
	state    engine.State
	version  int
	clients  map[string]chan Snapshot
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	clock    clockwork.Clock
	interval time.Duration
	log      *zap.Logger
	timer    *timer.Timer
	timerGen uint64
}

func New(parent context.Context, initial engine.State, opts ...Option) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		inbox:    make(chan Msg, 64), // Small buffer
		ticks:    make(chan timer.Notification, 16),
		state:    initial,
		version:  0,
		clients:  make(map[string]chan Snapshot),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		clock:    clockwork.NewRealClock(),
		interval: timer.DefaultInterval,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	go r.loop()
	return r
}

func (r *Room) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case n := <-r.ticks:
			if r.timer == nil || n.Gen != r.timerGen {
				// queued by a timer that has since been replaced
				continue
			}
			if n.TimeUp {
				r.apply(engine.Command{Type: engine.CmdTimeUp})
			} else {
				r.apply(engine.Command{Type: engine.CmdTick, Remaining: n.Remaining})
			}

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				r.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- Snapshot{Version: r.version, State: r.state}

			case Leave:
				delete(r.clients, msg.ClientID)

			case FromClient:
				r.apply(msg.Cmd)

			case GetState:
				msg.Reply <- View{
					Version:     r.version,
					NumClients:  len(r.clients),
					TimerActive: r.timer != nil,
					State:       r.state,
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) apply(cmd engine.Command) {
	events, newState, err := engine.Apply(r.state, cmd)
	if err != nil {
		// rejected commands leave the game as it was
		r.log.Debug("command rejected",
			zap.String("command", string(cmd.Type)),
			zap.String("phase", string(r.state.Phase)),
			zap.Error(err))
		return
	}
	prev := r.state.Phase
	r.state = newState
	r.version++

	if engine.ContainsEvent(events, engine.EvtTimerStopped) {
		r.stopTimer()
	}
	if engine.ContainsEvent(events, engine.EvtTimerStarted) {
		r.startTimer()
	}
	if prev != newState.Phase {
		r.log.Info("phase changed",
			zap.String("from", string(prev)),
			zap.String("to", string(newState.Phase)),
			zap.Int("version", r.version))
	}

	r.broadcast(Snapshot{Version: r.version, State: r.state})
}

func (r *Room) startTimer() {
	r.stopTimer()
	r.timerGen++
	r.timer = timer.Start(r.ctx, r.clock, timer.Config{
		Gen:      r.timerGen,
		Seconds:  r.state.RemainingSeconds,
		Paused:   r.state.IsPaused,
		Interval: r.interval,
	}, r.ticks)
	r.log.Debug("timer started",
		zap.Uint64("gen", r.timerGen),
		zap.Int("seconds", r.state.RemainingSeconds),
		zap.Bool("paused", r.state.IsPaused))
}

func (r *Room) stopTimer() {
	if r.timer == nil {
		return
	}
	r.timer.Stop()
	r.timer = nil
}

func (r *Room) shutdown() {
	r.stopTimer()
	for id, ch := range r.clients {
		close(ch) // Tell client no more snapshots
		delete(r.clients, id)
	}
	r.cancel()
}

func (r *Room) broadcast(snap Snapshot) {
	for id, ch := range r.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(r.clients, id)
			r.log.Warn("dropped slow client", zap.String("client_id", id))
		}
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the room loop has exited.
func (r *Room) Done() <-chan struct{} { return r.done }

// Send delivers m unless the room has exited or ctx ends first.
func (r *Room) Send(ctx context.Context, m Msg) error {
	// the inbox is buffered, so an exited room could still accept a message
	select {
	case <-r.done:
		return ErrClosed
	default:
	}
	select {
	case r.inbox <- m:
		return nil
	case <-r.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View asks the room loop for its current state.
func (r *Room) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := r.Send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-r.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}
