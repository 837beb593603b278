package engine

func NewEmptyState() State {
	return State{
		Phase:            PhaseLobby,
		Teams:            []Team{},
		AllCards:         []Card{},
		RoundDeck:        []Card{},
		RoundWon:         []Card{},
		Discarded:        []Card{},
		TurnSeconds:      DefaultTurnSeconds,
		RemainingSeconds: DefaultTurnSeconds,
		Rules:            Rules{PlayersPerTeam: DefaultPlayersPerTeam},
	}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// roundExhausted reports an empty deck with nothing in play.
func roundExhausted(s State) bool {
	return len(s.RoundDeck) == 0 && s.CurrentCard == nil
}

func allPlayersDone(s State) bool {
	players := s.Rules.PlayersPerTeam
	if players < 1 {
		players = 1
	}
	return s.CurrentPlayerIndex >= len(s.Teams)*players
}

// CardsLeft counts the deck plus the card in play.
func CardsLeft(s State) int {
	n := len(s.RoundDeck)
	if s.CurrentCard != nil {
		n++
	}
	return n
}

// Leaders returns the teams sharing the top score.
func Leaders(s State) []Team {
	var out []Team
	for _, t := range s.Teams {
		switch {
		case len(out) == 0 || t.Score > out[0].Score:
			out = []Team{t}
		case t.Score == out[0].Score:
			out = append(out, t)
		}
	}
	return out
}
