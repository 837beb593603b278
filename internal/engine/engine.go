package engine

import (
	"errors"
	"slices"
)

var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrNotEnoughTeams = errors.New("at least two teams required")
var ErrNoCards = errors.New("card pool is empty")
var ErrDuplicateTeam = errors.New("team already exists")
var ErrInvalidTeam = errors.New("invalid team")
var ErrInvalidSeconds = errors.New("turn seconds must be positive")
var ErrInvalidPlayersPerTeam = errors.New("players per team must be at least one")

const (
	DefaultTurnSeconds    = 60
	DefaultPlayersPerTeam = 2
)

type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhasePrepare       Phase = "turn.prepare"
	PhasePlaying       Phase = "turn.playing"
	PhaseTurnEnd       Phase = "turn.turnEnd"
	PhaseHandoff       Phase = "turn.handoff"
	PhaseBetweenRounds Phase = "betweenRounds"
	PhaseGameOver      Phase = "gameOver"
)

// Card is one clue pair. Hard is worth more than Easy.
type Card struct {
	ID   string `json:"id"`
	Hard string `json:"hard"`
	Easy string `json:"easy"`
}

type Team struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type Rules struct {
	PlayersPerTeam int  `json:"players_per_team"`
	ClampPenalty   bool `json:"clamp_penalty"` // penalties never take a score below zero
}

type State struct {
	Phase              Phase  `json:"phase"`
	Teams              []Team `json:"teams"`
	AllCards           []Card `json:"all_cards"`
	RoundDeck          []Card `json:"round_deck"`
	RoundWon           []Card `json:"round_won"`
	Discarded          []Card `json:"discarded"`
	CurrentCard        *Card  `json:"current_card,omitempty"`
	CurrentCardScored  bool   `json:"current_card_scored"`
	CurrentTeamIndex   int    `json:"current_team_index"`
	CurrentPlayerIndex int    `json:"current_player_index"`
	Round              int    `json:"round"`
	TurnSeconds        int    `json:"turn_seconds"`
	RemainingSeconds   int    `json:"remaining_seconds"`
	IsPaused           bool   `json:"is_paused"`
	Rules              Rules  `json:"rules"`
}

type CommandType string

const (
	CmdAddTeam           CommandType = "AddTeam"
	CmdRemoveTeam        CommandType = "RemoveTeam"
	CmdSetSeconds        CommandType = "SetSeconds"
	CmdSetCards          CommandType = "SetCards"
	CmdSetPlayersPerTeam CommandType = "SetPlayersPerTeam"
	CmdStartGame         CommandType = "StartGame"
	CmdStartTurn         CommandType = "StartTurn"
	CmdGuess             CommandType = "Guess"
	CmdSkip              CommandType = "Skip"
	CmdPenalty           CommandType = "Penalty"
	CmdTogglePause       CommandType = "TogglePause"
	CmdNextCard          CommandType = "NextCard"
	CmdEndTurn           CommandType = "EndTurn"
	CmdTick              CommandType = "Tick"
	CmdTimeUp            CommandType = "TimeUp"
	CmdEndGame           CommandType = "EndGame"
	CmdReset             CommandType = "Reset"
)

type Command struct {
	Type           CommandType
	TeamID         string
	Name           string
	Seconds        int
	PlayersPerTeam int
	Cards          []Card
	Remaining      int
}

type EventType string

const (
	EvtTeamAdded       EventType = "TeamAdded"
	EvtTeamRemoved     EventType = "TeamRemoved"
	EvtSettingsChanged EventType = "SettingsChanged"
	EvtCardsLoaded     EventType = "CardsLoaded"
	EvtRoundStarted    EventType = "RoundStarted"
	EvtTurnStarted     EventType = "TurnStarted"
	EvtCardDrawn       EventType = "CardDrawn"
	EvtCardScored      EventType = "CardScored"
	EvtCardWon         EventType = "CardWon"
	EvtCardRequeued    EventType = "CardRequeued"
	EvtCardDiscarded   EventType = "CardDiscarded"
	EvtPenaltyApplied  EventType = "PenaltyApplied"
	EvtPauseToggled    EventType = "PauseToggled"
	EvtTimerStarted    EventType = "TimerStarted"
	EvtTimerStopped    EventType = "TimerStopped"
	EvtTurnEnded       EventType = "TurnEnded"
	EvtRoundCompleted  EventType = "RoundCompleted"
	EvtGameCompleted   EventType = "GameCompleted"
	EvtGameReset       EventType = "GameReset"
)

type Event struct {
	Type      EventType
	TeamID    string
	CardID    string
	Points    int
	Remaining int
	Paused    bool
}

/*
	Lifecycle of the timer-owning state:
	StartGame / StartTurn -> prepare -> playing      emits EvtTimerStarted
	TogglePause (in playing) -> playing again       emits EvtTimerStopped, EvtTimerStarted
	TimeUp / EndTurn / exhaustion -> turnEnd -> ... emits EvtTimerStopped
	Reset (from playing) -> lobby                   emits EvtTimerStopped
	The host owning the state spawns and tears down the timer from these events.
*/

// Apply runs one command to completion and returns the events it produced and
// the resulting state. The input state is never modified. On error the input
// state is returned unchanged.
func Apply(s State, cmd Command) ([]Event, State, error) {
	if s.Phase == "" {
		s.Phase = PhaseLobby
	}

	if cmd.Type == CmdReset {
		wasPlaying := s.Phase == PhasePlaying
		newState := reset(s)
		events := []Event{{Type: EvtGameReset}}
		if wasPlaying {
			events = append([]Event{{Type: EvtTimerStopped}}, events...)
		}
		return events, newState, nil
	}

	m := &machine{s: s.clone(), wasPlaying: s.Phase == PhasePlaying}

	var err error
	switch s.Phase {
	case PhaseLobby:
		err = m.lobby(cmd)
	case PhasePlaying:
		err = m.playing(cmd)
	case PhaseHandoff:
		err = m.handoff(cmd)
	case PhaseBetweenRounds:
		err = m.betweenRounds(cmd)
	default:
		err = ErrUnsupportedCommand
	}
	if err != nil {
		return nil, s, err
	}

	m.settle()
	m.timerEvents()
	return m.events, m.s, nil
}

type machine struct {
	s          State
	events     []Event
	wasPlaying bool
	entered    bool // entered turn.playing during this command
}

func (m *machine) emit(e Event) { m.events = append(m.events, e) }

func (m *machine) enter(p Phase) {
	m.s.Phase = p
	switch p {
	case PhasePrepare:
		m.shuffleDeck()
		m.drawCard()
		m.resetTurnTimer()
		m.s.IsPaused = false
		m.emit(Event{Type: EvtTurnStarted, TeamID: m.currentTeamID()})
	case PhasePlaying:
		m.entered = true
	case PhaseTurnEnd:
		m.emit(Event{Type: EvtTurnEnded, TeamID: m.currentTeamID()})
		m.nextPlayer()
		m.shuffleDeck()
	case PhaseBetweenRounds:
		m.emit(Event{Type: EvtRoundCompleted})
	case PhaseGameOver:
		m.emit(Event{Type: EvtGameCompleted})
	}
}

// settle follows eventless transitions until the machine rests in a phase
// that waits for input.
func (m *machine) settle() {
	for {
		switch m.s.Phase {
		case PhasePrepare:
			m.enter(PhasePlaying)
		case PhasePlaying:
			if !roundExhausted(m.s) {
				return
			}
			m.enter(PhaseTurnEnd)
		case PhaseTurnEnd:
			if allPlayersDone(m.s) {
				m.enter(PhaseBetweenRounds)
			} else {
				m.enter(PhaseHandoff)
			}
		case PhaseHandoff:
			if !roundExhausted(m.s) {
				return
			}
			m.enter(PhaseGameOver)
		default:
			return
		}
	}
}

func (m *machine) timerEvents() {
	resting := m.s.Phase == PhasePlaying
	if m.wasPlaying && (!resting || m.entered) {
		m.emit(Event{Type: EvtTimerStopped})
	}
	if resting && m.entered {
		m.emit(Event{Type: EvtTimerStarted, Remaining: m.s.RemainingSeconds, Paused: m.s.IsPaused})
	}
}

func (m *machine) lobby(cmd Command) error {
	switch cmd.Type {
	case CmdAddTeam:
		if cmd.TeamID == "" {
			return ErrInvalidTeam
		}
		if slices.ContainsFunc(m.s.Teams, func(t Team) bool { return t.ID == cmd.TeamID }) {
			return ErrDuplicateTeam
		}
		m.s.Teams = append(m.s.Teams, Team{ID: cmd.TeamID, Name: cmd.Name})
		m.emit(Event{Type: EvtTeamAdded, TeamID: cmd.TeamID})

	case CmdRemoveTeam:
		idx := slices.IndexFunc(m.s.Teams, func(t Team) bool { return t.ID == cmd.TeamID })
		if idx < 0 {
			return nil
		}
		m.s.Teams = slices.Delete(m.s.Teams, idx, idx+1)
		m.s.CurrentTeamIndex = 0
		m.emit(Event{Type: EvtTeamRemoved, TeamID: cmd.TeamID})

	case CmdSetSeconds:
		if cmd.Seconds <= 0 {
			return ErrInvalidSeconds
		}
		m.s.TurnSeconds = cmd.Seconds
		m.s.RemainingSeconds = cmd.Seconds
		m.emit(Event{Type: EvtSettingsChanged, Remaining: cmd.Seconds})

	case CmdSetPlayersPerTeam:
		if cmd.PlayersPerTeam < 1 {
			return ErrInvalidPlayersPerTeam
		}
		m.s.Rules.PlayersPerTeam = cmd.PlayersPerTeam
		m.emit(Event{Type: EvtSettingsChanged})

	case CmdSetCards:
		m.s.AllCards = slices.Clone(cmd.Cards)
		m.emit(Event{Type: EvtCardsLoaded, Points: len(cmd.Cards)})

	case CmdStartGame:
		if len(m.s.Teams) < 2 {
			return ErrNotEnoughTeams
		}
		if len(m.s.AllCards) == 0 {
			return ErrNoCards
		}
		m.initRoundDeck()
		m.resetTurnTimer()
		m.enter(PhasePrepare)

	default:
		return ErrUnsupportedCommand
	}
	return nil
}

func (m *machine) playing(cmd Command) error {
	switch cmd.Type {
	case CmdTick:
		m.s.RemainingSeconds = cmd.Remaining

	case CmdGuess:
		m.guess()
		m.drawCard()

	case CmdSkip:
		m.skip()
		m.drawCard()

	case CmdNextCard:
		m.drawCard()

	case CmdPenalty:
		m.penalty()

	case CmdTogglePause:
		m.s.IsPaused = !m.s.IsPaused
		m.emit(Event{Type: EvtPauseToggled, Paused: m.s.IsPaused})
		// re-entering playing respawns the timer with the new pause flag
		m.enter(PhasePlaying)

	case CmdTimeUp:
		m.skip()
		m.enter(PhaseTurnEnd)

	case CmdEndTurn:
		// the card stays up and the next turn's prepare keeps it
		m.enter(PhaseTurnEnd)

	default:
		return ErrUnsupportedCommand
	}
	return nil
}

func (m *machine) handoff(cmd Command) error {
	switch cmd.Type {
	case CmdStartTurn:
		m.enter(PhasePrepare)
	case CmdEndGame:
		m.enter(PhaseGameOver)
	default:
		return ErrUnsupportedCommand
	}
	return nil
}

func (m *machine) betweenRounds(cmd Command) error {
	switch cmd.Type {
	case CmdStartTurn:
		m.initRoundDeck()
		m.resetTurnTimer()
		m.enter(PhasePrepare)
	case CmdEndGame:
		m.enter(PhaseGameOver)
	default:
		return ErrUnsupportedCommand
	}
	return nil
}

func (s State) clone() State {
	c := s
	c.Teams = slices.Clone(s.Teams)
	c.AllCards = slices.Clone(s.AllCards)
	c.RoundDeck = slices.Clone(s.RoundDeck)
	c.RoundWon = slices.Clone(s.RoundWon)
	c.Discarded = slices.Clone(s.Discarded)
	if s.CurrentCard != nil {
		card := *s.CurrentCard
		c.CurrentCard = &card
	}
	return c
}

func reset(s State) State {
	n := NewEmptyState()
	n.AllCards = slices.Clone(s.AllCards)
	n.Rules = s.Rules
	if s.TurnSeconds > 0 {
		n.TurnSeconds = s.TurnSeconds
		n.RemainingSeconds = s.TurnSeconds
	}
	return n
}
