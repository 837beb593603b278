package engine

import "math/rand"

// shuffleCards returns a shuffled copy. Tests swap it for a deterministic order.
var shuffleCards = func(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (m *machine) initRoundDeck() {
	m.s.RoundDeck = shuffleCards(m.s.AllCards)
	m.s.RoundWon = []Card{}
	m.s.Discarded = []Card{}
	m.s.CurrentCard = nil
	m.s.CurrentCardScored = false
	m.s.CurrentPlayerIndex = 0
	m.s.Round++
	m.emit(Event{Type: EvtRoundStarted, Points: m.s.Round})
}

func (m *machine) shuffleDeck() {
	m.s.RoundDeck = shuffleCards(m.s.RoundDeck)
}

func (m *machine) resetTurnTimer() {
	m.s.RemainingSeconds = m.s.TurnSeconds
}

// drawCard is a no-op while a card is already in play.
func (m *machine) drawCard() {
	if m.s.CurrentCard != nil || len(m.s.RoundDeck) == 0 {
		return
	}
	next := m.s.RoundDeck[0]
	m.s.RoundDeck = m.s.RoundDeck[1:]
	m.s.CurrentCard = &next
	m.s.CurrentCardScored = false
	m.emit(Event{Type: EvtCardDrawn, CardID: next.ID})
}

// guess scores the card in play in two stages: the first guess is worth one
// point and keeps the card up, the second is worth two more and wins it.
func (m *machine) guess() {
	if m.s.CurrentCard == nil {
		return
	}
	card := *m.s.CurrentCard
	team := m.currentTeamID()

	if !m.s.CurrentCardScored {
		m.addScore(1)
		m.s.CurrentCardScored = true
		m.emit(Event{Type: EvtCardScored, TeamID: team, CardID: card.ID, Points: 1})
		return
	}

	m.addScore(2)
	m.s.RoundWon = append(m.s.RoundWon, card)
	m.s.CurrentCard = nil
	m.s.CurrentCardScored = false
	m.emit(Event{Type: EvtCardWon, TeamID: team, CardID: card.ID, Points: 2})
}

// skip puts an unscored card at the back of the deck. A card that already
// earned partial credit leaves the round for good.
func (m *machine) skip() {
	if m.s.CurrentCard == nil {
		return
	}
	card := *m.s.CurrentCard

	if m.s.CurrentCardScored {
		m.s.Discarded = append(m.s.Discarded, card)
		m.emit(Event{Type: EvtCardDiscarded, CardID: card.ID})
	} else {
		m.s.RoundDeck = append(m.s.RoundDeck, card)
		m.emit(Event{Type: EvtCardRequeued, CardID: card.ID})
	}
	m.s.CurrentCard = nil
	m.s.CurrentCardScored = false
}

func (m *machine) penalty() {
	if len(m.s.Teams) == 0 {
		return
	}
	m.addScore(-1)
	m.emit(Event{Type: EvtPenaltyApplied, TeamID: m.currentTeamID(), Points: -1})
}

func (m *machine) addScore(points int) {
	i := m.s.CurrentTeamIndex
	if i < 0 || i >= len(m.s.Teams) {
		return
	}
	score := m.s.Teams[i].Score + points
	if m.s.Rules.ClampPenalty && score < 0 {
		score = 0
	}
	m.s.Teams[i].Score = score
}

func (m *machine) nextPlayer() {
	m.s.CurrentPlayerIndex++
	if len(m.s.Teams) > 0 {
		m.s.CurrentTeamIndex = (m.s.CurrentTeamIndex + 1) % len(m.s.Teams)
	}
}

func (m *machine) currentTeamID() string {
	i := m.s.CurrentTeamIndex
	if i < 0 || i >= len(m.s.Teams) {
		return ""
	}
	return m.s.Teams[i].ID
}
