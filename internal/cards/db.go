package cards

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/pfn-backend/internal/engine"
)

type cardRow struct {
	ID   uint   `gorm:"primaryKey"`
	Easy string `gorm:"not null"`
	Hard string `gorm:"not null"`
}

func (cardRow) TableName() string { return "cards" }

// DBSource reads the pool from the cards table.
type DBSource struct {
	DB *gorm.DB
}

func OpenDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open card database: %w", err)
	}
	return db, nil
}

func (s DBSource) Load(ctx context.Context) ([]engine.Card, error) {
	var rows []cardRow
	if err := s.DB.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}

	cards := make([]engine.Card, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, engine.Card{ID: strconv.FormatUint(uint64(r.ID), 10), Easy: r.Easy, Hard: r.Hard})
	}
	return cards, nil
}

// Seed creates the table if needed and fills it when it is empty.
func Seed(ctx context.Context, db *gorm.DB, cards []engine.Card) error {
	if err := db.WithContext(ctx).AutoMigrate(&cardRow{}); err != nil {
		return fmt.Errorf("failed to migrate cards table: %w", err)
	}
	var count int64
	if err := db.WithContext(ctx).Model(&cardRow{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count cards: %w", err)
	}
	if count > 0 {
		return nil
	}

	rows := make([]cardRow, 0, len(cards))
	for _, c := range cards {
		rows = append(rows, cardRow{Easy: c.Easy, Hard: c.Hard})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to seed cards: %w", err)
	}
	return nil
}
