package engine

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keep deck order predictable
func stableShuffle(t *testing.T) {
	t.Helper()
	orig := shuffleCards
	shuffleCards = func(cards []Card) []Card { return slices.Clone(cards) }
	t.Cleanup(func() { shuffleCards = orig })
}

func testCards(n int) []Card {
	ids := []string{"1", "2", "3", "4", "5", "6"}
	cards := make([]Card, 0, n)
	for _, id := range ids[:n] {
		cards = append(cards, Card{ID: id, Hard: "hard " + id, Easy: "easy " + id})
	}
	return cards
}

func mustApply(t *testing.T, s State, cmd Command) ([]Event, State) {
	t.Helper()
	events, next, err := Apply(s, cmd)
	require.NoError(t, err, "apply %s", cmd.Type)
	return events, next
}

// lobby with two teams and the given cards, one player per team
func newLobby(t *testing.T, cards int, playersPerTeam int) State {
	t.Helper()
	s := NewEmptyState()
	_, s = mustApply(t, s, Command{Type: CmdAddTeam, TeamID: "a", Name: "Team A"})
	_, s = mustApply(t, s, Command{Type: CmdAddTeam, TeamID: "b", Name: "Team B"})
	_, s = mustApply(t, s, Command{Type: CmdSetCards, Cards: testCards(cards)})
	_, s = mustApply(t, s, Command{Type: CmdSetPlayersPerTeam, PlayersPerTeam: playersPerTeam})
	return s
}

func started(t *testing.T, cards int, playersPerTeam int) State {
	t.Helper()
	_, s := mustApply(t, newLobby(t, cards, playersPerTeam), Command{Type: CmdStartGame})
	require.Equal(t, PhasePlaying, s.Phase)
	return s
}

func totalCards(s State) int {
	return CardsLeft(s) + len(s.RoundWon) + len(s.Discarded)
}

func TestStartGameGuards(t *testing.T) {
	cases := []struct {
		name    string
		setup   func() State
		wantErr error
	}{
		{
			name: "one team",
			setup: func() State {
				s := NewEmptyState()
				s.Teams = []Team{{ID: "a"}}
				s.AllCards = testCards(2)
				return s
			},
			wantErr: ErrNotEnoughTeams,
		},
		{
			name: "no cards",
			setup: func() State {
				s := NewEmptyState()
				s.Teams = []Team{{ID: "a"}, {ID: "b"}}
				return s
			},
			wantErr: ErrNoCards,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.setup()
			events, next, err := Apply(s, Command{Type: CmdStartGame})
			if err == nil || !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			assert.Nil(t, events)
			assert.Equal(t, PhaseLobby, next.Phase)
			assert.Equal(t, s, next)
		})
	}
}

func TestStartGameDrawsAndStartsTimer(t *testing.T) {
	stableShuffle(t)
	s := newLobby(t, 3, 1)
	_, s = mustApply(t, s, Command{Type: CmdSetSeconds, Seconds: 30})

	events, next := mustApply(t, s, Command{Type: CmdStartGame})

	assert.Equal(t, PhasePlaying, next.Phase)
	require.NotNil(t, next.CurrentCard)
	assert.Equal(t, "1", next.CurrentCard.ID)
	assert.Len(t, next.RoundDeck, 2)
	assert.Equal(t, 30, next.RemainingSeconds)
	assert.Equal(t, 0, next.CurrentPlayerIndex)
	assert.Equal(t, 1, next.Round)
	assert.True(t, ContainsEvent(events, EvtRoundStarted))
	assert.True(t, ContainsEvent(events, EvtTimerStarted))
	assert.False(t, ContainsEvent(events, EvtTimerStopped))

	// input untouched
	assert.Equal(t, PhaseLobby, s.Phase)
	assert.Empty(t, s.RoundDeck)
}

func TestTwoStageGuess(t *testing.T) {
	stableShuffle(t)
	s := started(t, 3, 1)

	events, s := mustApply(t, s, Command{Type: CmdGuess})
	assert.Equal(t, 1, s.Teams[0].Score)
	assert.True(t, s.CurrentCardScored)
	require.NotNil(t, s.CurrentCard)
	assert.Equal(t, "1", s.CurrentCard.ID)
	assert.True(t, ContainsEvent(events, EvtCardScored))
	assert.False(t, ContainsEvent(events, EvtCardDrawn))

	events, s = mustApply(t, s, Command{Type: CmdGuess})
	assert.Equal(t, 3, s.Teams[0].Score)
	assert.False(t, s.CurrentCardScored)
	assert.Equal(t, []Card{testCards(1)[0]}, s.RoundWon)
	require.NotNil(t, s.CurrentCard)
	assert.Equal(t, "2", s.CurrentCard.ID)
	assert.True(t, ContainsEvent(events, EvtCardWon))
	assert.True(t, ContainsEvent(events, EvtCardDrawn))
	assert.Equal(t, 0, s.Teams[1].Score)
}

func TestSkip(t *testing.T) {
	stableShuffle(t)

	t.Run("unscored card goes to the back", func(t *testing.T) {
		s := started(t, 3, 1)
		_, s = mustApply(t, s, Command{Type: CmdSkip})
		require.NotNil(t, s.CurrentCard)
		assert.Equal(t, "2", s.CurrentCard.ID)
		assert.Equal(t, "1", s.RoundDeck[len(s.RoundDeck)-1].ID)
		assert.Empty(t, s.Discarded)
	})

	t.Run("scored card is discarded", func(t *testing.T) {
		s := started(t, 3, 1)
		_, s = mustApply(t, s, Command{Type: CmdGuess})
		events, s := mustApply(t, s, Command{Type: CmdSkip})
		assert.True(t, ContainsEvent(events, EvtCardDiscarded))
		assert.Equal(t, []Card{testCards(1)[0]}, s.Discarded)
		assert.False(t, slices.ContainsFunc(s.RoundDeck, func(c Card) bool { return c.ID == "1" }))
		assert.False(t, s.CurrentCardScored)
		assert.Equal(t, 1, s.Teams[0].Score)
	})
}

func TestCardAccountingInvariant(t *testing.T) {
	s := started(t, 6, 2)
	cmds := []CommandType{CmdSkip, CmdGuess, CmdSkip, CmdGuess, CmdGuess, CmdNextCard, CmdSkip, CmdGuess, CmdSkip, CmdPenalty, CmdGuess, CmdGuess}
	for _, c := range cmds {
		_, s = mustApply(t, s, Command{Type: c})
		assert.Equal(t, 6, totalCards(s), "after %s", c)
		if s.CurrentCard == nil {
			assert.False(t, s.CurrentCardScored)
		} else {
			assert.NotContains(t, s.RoundDeck, *s.CurrentCard)
		}
	}
}

func TestSkipWithoutCardOnlyDraws(t *testing.T) {
	s := started(t, 1, 1)
	s.RoundDeck = []Card{{ID: "x"}}
	s.CurrentCard = nil

	events, next, err := Apply(s, Command{Type: CmdPenalty})
	require.NoError(t, err)
	assert.True(t, ContainsEvent(events, EvtPenaltyApplied))
	assert.Nil(t, next.CurrentCard)

	events, after, err := Apply(next, Command{Type: CmdSkip})
	require.NoError(t, err)
	require.NotNil(t, after.CurrentCard)
	assert.Equal(t, "x", after.CurrentCard.ID)
	assert.False(t, ContainsEvent(events, EvtCardRequeued))
	assert.Empty(t, after.RoundDeck)
}

func TestNextCardDrawsOnlyWhenEmpty(t *testing.T) {
	s := started(t, 1, 1)
	s.RoundDeck = []Card{{ID: "x"}}
	s.CurrentCard = nil

	events, next, err := Apply(s, Command{Type: CmdNextCard})
	require.NoError(t, err)
	require.NotNil(t, next.CurrentCard)
	assert.Equal(t, "x", next.CurrentCard.ID)
	assert.True(t, ContainsEvent(events, EvtCardDrawn))

	events, again, err := Apply(next, Command{Type: CmdNextCard})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, "x", again.CurrentCard.ID)
}

func TestPenalty(t *testing.T) {
	cases := []struct {
		name  string
		clamp bool
		want  int
	}{
		{name: "unclamped", clamp: false, want: -1},
		{name: "clamped at zero", clamp: true, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := started(t, 2, 1)
			s.Rules.ClampPenalty = tc.clamp
			_, s = mustApply(t, s, Command{Type: CmdPenalty})
			assert.Equal(t, tc.want, s.Teams[0].Score)
			assert.NotNil(t, s.CurrentCard)
			assert.Equal(t, PhasePlaying, s.Phase)
		})
	}
}

func TestTickOverwritesRemaining(t *testing.T) {
	s := started(t, 2, 1)
	events, s := mustApply(t, s, Command{Type: CmdTick, Remaining: 42})
	assert.Equal(t, 42, s.RemainingSeconds)
	assert.Empty(t, events)

	_, s = mustApply(t, s, Command{Type: CmdTick, Remaining: 50})
	assert.Equal(t, 50, s.RemainingSeconds)
}

func TestTogglePauseRestartsTimer(t *testing.T) {
	s := started(t, 2, 1)
	_, s = mustApply(t, s, Command{Type: CmdTick, Remaining: 17})

	events, s := mustApply(t, s, Command{Type: CmdTogglePause})
	require.Len(t, events, 3)
	assert.Equal(t, EvtPauseToggled, events[0].Type)
	assert.Equal(t, EvtTimerStopped, events[1].Type)
	assert.Equal(t, EvtTimerStarted, events[2].Type)
	assert.True(t, events[2].Paused)
	assert.Equal(t, 17, events[2].Remaining)
	assert.True(t, s.IsPaused)
	assert.Equal(t, PhasePlaying, s.Phase)

	events, s = mustApply(t, s, Command{Type: CmdTogglePause})
	assert.False(t, s.IsPaused)
	assert.False(t, events[len(events)-1].Paused)
	assert.Equal(t, 17, s.RemainingSeconds)
}

// 2 teams, 3 cards, one player each.
func TestScenarioFirstTurn(t *testing.T) {
	stableShuffle(t)
	s := started(t, 3, 1)
	require.Equal(t, "1", s.CurrentCard.ID)

	_, s = mustApply(t, s, Command{Type: CmdGuess})
	_, s = mustApply(t, s, Command{Type: CmdGuess})
	assert.Equal(t, 3, s.Teams[0].Score)
	assert.Equal(t, "1", s.RoundWon[0].ID)
	require.Equal(t, "2", s.CurrentCard.ID)

	_, s = mustApply(t, s, Command{Type: CmdSkip})
	require.Equal(t, "3", s.CurrentCard.ID)
	assert.Equal(t, []string{"2"}, ids(s.RoundDeck))

	events, s := mustApply(t, s, Command{Type: CmdTimeUp})
	assert.True(t, ContainsEvent(events, EvtCardRequeued))
	assert.True(t, ContainsEvent(events, EvtTurnEnded))
	assert.True(t, ContainsEvent(events, EvtTimerStopped))
	assert.Nil(t, s.CurrentCard)
	assert.ElementsMatch(t, []string{"2", "3"}, ids(s.RoundDeck))
	assert.Equal(t, 1, s.CurrentTeamIndex)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	assert.Equal(t, PhaseHandoff, s.Phase)
}

func TestEndTurnKeepsCardInPlay(t *testing.T) {
	stableShuffle(t)
	s := started(t, 3, 1)

	_, s = mustApply(t, s, Command{Type: CmdGuess})
	events, s := mustApply(t, s, Command{Type: CmdEndTurn})
	assert.True(t, ContainsEvent(events, EvtTimerStopped))
	assert.False(t, ContainsEvent(events, EvtCardDiscarded))
	assert.False(t, ContainsEvent(events, EvtCardRequeued))
	require.Equal(t, PhaseHandoff, s.Phase)
	require.NotNil(t, s.CurrentCard)
	assert.Equal(t, "1", s.CurrentCard.ID)
	assert.True(t, s.CurrentCardScored)
	assert.Empty(t, s.Discarded)
	assert.Equal(t, 3, totalCards(s))

	events, s = mustApply(t, s, Command{Type: CmdStartTurn})
	assert.False(t, ContainsEvent(events, EvtCardDrawn))
	require.Equal(t, PhasePlaying, s.Phase)
	assert.Equal(t, "1", s.CurrentCard.ID)
	assert.True(t, s.CurrentCardScored)
	assert.Equal(t, 1, s.CurrentTeamIndex)

	// second stage lands on the team now holding the card
	_, s = mustApply(t, s, Command{Type: CmdGuess})
	assert.Equal(t, 1, s.Teams[0].Score)
	assert.Equal(t, 2, s.Teams[1].Score)
	assert.Equal(t, "2", s.CurrentCard.ID)
}

func TestRoundExhaustionEndsTurn(t *testing.T) {
	stableShuffle(t)
	s := started(t, 1, 2)

	_, s = mustApply(t, s, Command{Type: CmdGuess})
	events, s := mustApply(t, s, Command{Type: CmdGuess})

	assert.True(t, ContainsEvent(events, EvtTurnEnded))
	assert.True(t, ContainsEvent(events, EvtTimerStopped))
	assert.True(t, ContainsEvent(events, EvtGameCompleted))
	assert.Equal(t, PhaseGameOver, s.Phase)
	assert.Equal(t, 3, s.Teams[0].Score)
}

func TestExhaustionViaDiscard(t *testing.T) {
	s := started(t, 1, 2)
	_, s = mustApply(t, s, Command{Type: CmdGuess})
	_, s = mustApply(t, s, Command{Type: CmdSkip})
	assert.Equal(t, PhaseGameOver, s.Phase)
	assert.Len(t, s.Discarded, 1)
}

func TestTurnRotationAndRounds(t *testing.T) {
	s := started(t, 4, 2)

	seen := []int{s.CurrentTeamIndex}
	lastPlayer := s.CurrentPlayerIndex
	for turn := 0; turn < 4; turn++ {
		require.Equal(t, PhasePlaying, s.Phase)
		_, s = mustApply(t, s, Command{Type: CmdEndTurn})
		assert.Greater(t, s.CurrentPlayerIndex, lastPlayer)
		lastPlayer = s.CurrentPlayerIndex
		seen = append(seen, s.CurrentTeamIndex)

		if turn < 3 {
			require.Equal(t, PhaseHandoff, s.Phase)
			_, s = mustApply(t, s, Command{Type: CmdStartTurn})
		}
	}
	assert.Equal(t, []int{0, 1, 0, 1, 0}, seen)
	assert.Equal(t, PhaseBetweenRounds, s.Phase)
	assert.Equal(t, 4, totalCards(s))

	events, s := mustApply(t, s, Command{Type: CmdStartTurn})
	assert.True(t, ContainsEvent(events, EvtRoundStarted))
	assert.Equal(t, 2, s.Round)
	assert.Equal(t, 0, s.CurrentPlayerIndex)
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Equal(t, 4, CardsLeft(s))
}

func TestHandoffEndGame(t *testing.T) {
	s := started(t, 3, 1)
	_, s = mustApply(t, s, Command{Type: CmdEndTurn})
	require.Equal(t, PhaseHandoff, s.Phase)

	_, _, err := Apply(s, Command{Type: CmdGuess})
	assert.ErrorIs(t, err, ErrUnsupportedCommand)

	events, s := mustApply(t, s, Command{Type: CmdEndGame})
	assert.True(t, ContainsEvent(events, EvtGameCompleted))
	assert.False(t, ContainsEvent(events, EvtTimerStopped))
	assert.Equal(t, PhaseGameOver, s.Phase)

	_, _, err = Apply(s, Command{Type: CmdStartTurn})
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
}

func TestResetFromGameOver(t *testing.T) {
	s := started(t, 1, 1)
	_, s = mustApply(t, s, Command{Type: CmdPenalty})
	_, s = mustApply(t, s, Command{Type: CmdEndTurn})
	require.Equal(t, PhaseHandoff, s.Phase)
	_, s = mustApply(t, s, Command{Type: CmdStartTurn})
	_, s = mustApply(t, s, Command{Type: CmdGuess})
	_, s = mustApply(t, s, Command{Type: CmdGuess})
	require.Equal(t, PhaseBetweenRounds, s.Phase)
	assert.Equal(t, -1, s.Teams[0].Score)
	assert.Equal(t, 3, s.Teams[1].Score)
	_, s = mustApply(t, s, Command{Type: CmdEndGame})
	require.Equal(t, PhaseGameOver, s.Phase)

	events, s := mustApply(t, s, Command{Type: CmdReset})
	assert.True(t, ContainsEvent(events, EvtGameReset))

	want := NewEmptyState()
	want.AllCards = testCards(1)
	want.Rules.PlayersPerTeam = 1
	assert.Equal(t, want, s)
}

func TestResetWhilePlayingStopsTimer(t *testing.T) {
	s := started(t, 2, 1)
	events, s := mustApply(t, s, Command{Type: CmdReset})
	assert.Equal(t, EvtTimerStopped, events[0].Type)
	assert.Equal(t, PhaseLobby, s.Phase)
	assert.Empty(t, s.Teams)
}

func TestLobbyCommands(t *testing.T) {
	s := NewEmptyState()

	_, _, err := Apply(s, Command{Type: CmdAddTeam})
	assert.ErrorIs(t, err, ErrInvalidTeam)

	_, s = mustApply(t, s, Command{Type: CmdAddTeam, TeamID: "a", Name: "A"})
	_, _, err = Apply(s, Command{Type: CmdAddTeam, TeamID: "a", Name: "A again"})
	assert.ErrorIs(t, err, ErrDuplicateTeam)

	events, same, err := Apply(s, Command{Type: CmdRemoveTeam, TeamID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, s, same)

	_, s = mustApply(t, s, Command{Type: CmdRemoveTeam, TeamID: "a"})
	assert.Empty(t, s.Teams)

	_, _, err = Apply(s, Command{Type: CmdSetSeconds, Seconds: 0})
	assert.ErrorIs(t, err, ErrInvalidSeconds)
	_, _, err = Apply(s, Command{Type: CmdSetPlayersPerTeam, PlayersPerTeam: 0})
	assert.ErrorIs(t, err, ErrInvalidPlayersPerTeam)

	_, _, err = Apply(s, Command{Type: CmdTick, Remaining: 3})
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
}

func TestLeaders(t *testing.T) {
	s := State{Teams: []Team{{ID: "a", Score: 4}, {ID: "b", Score: 7}, {ID: "c", Score: 7}}}
	assert.Equal(t, []string{"b", "c"}, teamIDs(Leaders(s)))
	assert.Empty(t, Leaders(State{}))
}

func ids(cards []Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func teamIDs(teams []Team) []string {
	out := make([]string, 0, len(teams))
	for _, t := range teams {
		out = append(out, t.ID)
	}
	return out
}
