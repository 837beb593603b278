package types

import (
	"github.com/google/uuid"

	"github.com/DoyleJ11/pfn-backend/internal/engine"
	pub "github.com/DoyleJ11/pfn-backend/pkg/types"
)

type ClientMessage struct {
	Type           string        `json:"type"`
	TeamID         string        `json:"team_id,omitempty"`
	Name           string        `json:"name,omitempty"`
	Seconds        int           `json:"seconds,omitempty"`
	PlayersPerTeam int           `json:"players_per_team,omitempty"`
	Cards          []engine.Card `json:"cards,omitempty"`
}

const (
	MsgStateSnapshot = "StateSnapshot"
	MsgError         = "Error"
)

type ServerMessage struct {
	Type     string        `json:"type"`
	Snapshot *pub.Snapshot `json:"snapshot,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// ToCommand maps a client message onto an engine command. Tick and time-up
// only ever come from the room's own timer, so clients cannot send them.
func (m ClientMessage) ToCommand() (engine.Command, bool) {
	switch m.Type {
	case "ADD_TEAM":
		id := m.TeamID
		if id == "" {
			id = uuid.NewString()
		}
		return engine.Command{Type: engine.CmdAddTeam, TeamID: id, Name: m.Name}, true
	case "REMOVE_TEAM":
		return engine.Command{Type: engine.CmdRemoveTeam, TeamID: m.TeamID}, true
	case "SET_SECONDS":
		return engine.Command{Type: engine.CmdSetSeconds, Seconds: m.Seconds}, true
	case "SET_PLAYERS_PER_TEAM":
		return engine.Command{Type: engine.CmdSetPlayersPerTeam, PlayersPerTeam: m.PlayersPerTeam}, true
	case "SET_CARDS":
		return engine.Command{Type: engine.CmdSetCards, Cards: m.Cards}, true
	case "START_GAME":
		return engine.Command{Type: engine.CmdStartGame}, true
	case "START_TURN":
		return engine.Command{Type: engine.CmdStartTurn}, true
	case "GUESS", "GUESS_1":
		return engine.Command{Type: engine.CmdGuess}, true
	case "SKIP":
		return engine.Command{Type: engine.CmdSkip}, true
	case "PENALTY":
		return engine.Command{Type: engine.CmdPenalty}, true
	case "TOGGLE_PAUSE":
		return engine.Command{Type: engine.CmdTogglePause}, true
	case "NEXT_CARD":
		return engine.Command{Type: engine.CmdNextCard}, true
	case "END_TURN":
		return engine.Command{Type: engine.CmdEndTurn}, true
	case "END_GAME":
		return engine.Command{Type: engine.CmdEndGame}, true
	case "RESET":
		return engine.Command{Type: engine.CmdReset}, true
	default:
		return engine.Command{}, false
	}
}

func NewSnapshot(version int, s engine.State) pub.Snapshot {
	snap := pub.Snapshot{
		Version:            version,
		Phase:              string(s.Phase),
		Round:              s.Round,
		Teams:              make([]pub.TeamView, 0, len(s.Teams)),
		CurrentTeamIndex:   s.CurrentTeamIndex,
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		PlayersPerTeam:     s.Rules.PlayersPerTeam,
		DeckRemaining:      len(s.RoundDeck),
		CardsLeft:          engine.CardsLeft(s),
		WonThisRound:       len(s.RoundWon),
		CardScored:         s.CurrentCardScored,
		TurnSeconds:        s.TurnSeconds,
		RemainingSeconds:   s.RemainingSeconds,
		Paused:             s.IsPaused,
	}
	for _, t := range s.Teams {
		snap.Teams = append(snap.Teams, pub.TeamView{ID: t.ID, Name: t.Name, Score: t.Score})
	}
	if s.CurrentTeamIndex >= 0 && s.CurrentTeamIndex < len(s.Teams) {
		snap.CurrentTeamName = s.Teams[s.CurrentTeamIndex].Name
	}
	if s.CurrentCard != nil {
		snap.CurrentCard = &pub.CardView{ID: s.CurrentCard.ID, Hard: s.CurrentCard.Hard, Easy: s.CurrentCard.Easy}
	}
	if s.Phase == engine.PhaseGameOver || s.Phase == engine.PhaseBetweenRounds {
		for _, t := range engine.Leaders(s) {
			snap.Leaders = append(snap.Leaders, t.ID)
		}
	}
	return snap
}
