package types

// Snapshot is everything a renderer needs to draw one frame of the game.
//
//	phase:              "lobby" | "turn.playing" | "turn.handoff" | "betweenRounds" | "gameOver"
//	current_card:       null when no card is in play
//	deck_remaining:     cards still in the deck, not counting the one in play
//	cards_left:         deck_remaining plus the card in play
//	leaders:            ids of the teams sharing the top score
type Snapshot struct {
	Version            int        `json:"version"`
	Phase              string     `json:"phase"`
	Round              int        `json:"round"`
	Teams              []TeamView `json:"teams"`
	CurrentTeamIndex   int        `json:"current_team_index"`
	CurrentTeamName    string     `json:"current_team_name,omitempty"`
	CurrentPlayerIndex int        `json:"current_player_index"`
	PlayersPerTeam     int        `json:"players_per_team"`
	DeckRemaining      int        `json:"deck_remaining"`
	CardsLeft          int        `json:"cards_left"`
	WonThisRound       int        `json:"won_this_round"`
	CurrentCard        *CardView  `json:"current_card"`
	CardScored         bool       `json:"card_scored"`
	TurnSeconds        int        `json:"turn_seconds"`
	RemainingSeconds   int        `json:"remaining_seconds"`
	Paused             bool       `json:"paused"`
	Leaders            []string   `json:"leaders,omitempty"`
}

type TeamView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type CardView struct {
	ID   string `json:"id"`
	Hard string `json:"hard"`
	Easy string `json:"easy"`
}
