// Package cards loads the card pool a game is played with.
package cards

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/pfn-backend/internal/engine"
)

var ErrEmptyPool = errors.New("card pool is empty")

type Source interface {
	Load(ctx context.Context) ([]engine.Card, error)
}

// Fallback serves the built-in deck whenever Primary fails or comes back empty.
type Fallback struct {
	Primary Source
	Logger  *zap.Logger
}

func (f Fallback) Load(ctx context.Context) ([]engine.Card, error) {
	log := f.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if f.Primary == nil {
		return SampleCards(), nil
	}

	cards, err := f.Primary.Load(ctx)
	if err == nil && len(cards) == 0 {
		err = ErrEmptyPool
	}
	if err != nil {
		log.Warn("failed to load card pool, using built-in deck", zap.Error(err))
		return SampleCards(), nil
	}
	return cards, nil
}

// Limit keeps the first n cards. n <= 0 keeps them all.
func Limit(cards []engine.Card, n int) []engine.Card {
	if n <= 0 || n >= len(cards) {
		return cards
	}
	return cards[:n]
}

func SampleCards() []engine.Card {
	return []engine.Card{
		{ID: "1", Easy: "Quiz", Hard: "Pop Quiz"},
		{ID: "2", Easy: "Side", Hard: "Bedside"},
		{ID: "3", Easy: "Love", Hard: "Love Letter"},
		{ID: "4", Easy: "Mind", Hard: "Mind Reader"},
		{ID: "5", Easy: "Tongue", Hard: "Tongue-Tied"},
		{ID: "6", Easy: "Skin", Hard: "Snake Skin"},
		{ID: "7", Easy: "Hair", Hard: "Bad Hair Day"},
		{ID: "8", Easy: "Split", Hard: "Split Ends"},
		{ID: "9", Easy: "Talk", Hard: "Talk Radio"},
		{ID: "10", Easy: "Ghost", Hard: "Ghost Town"},
		{ID: "11", Easy: "Fence", Hard: "Electric Fence"},
		{ID: "12", Easy: "Window", Hard: "Window Shopping"},
		{ID: "13", Easy: "Taco", Hard: "Taco Salad"},
		{ID: "14", Easy: "Wedding", Hard: "Wedding Ring"},
		{ID: "15", Easy: "Tape", Hard: "Tape Recorder"},
		{ID: "16", Easy: "Fall", Hard: "Trust Fall"},
		{ID: "17", Easy: "Wife", Hard: "Trophy Wife"},
		{ID: "18", Easy: "Toilet", Hard: "Toilet Paper"},
		{ID: "19", Easy: "Sun", Hard: "Sunburn"},
		{ID: "20", Easy: "Golf", Hard: "Mini Golf"},
	}
}
