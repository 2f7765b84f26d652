// Package store persists hall registrations. Runtime matchmaking state
// (queue, invites, claims) is deliberately not stored — the hall actor
// is the authority; this is only the slow-changing venue catalog that
// seeds actors and backs the REST listing.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("hall not found")

type Hall struct {
	ID       string  `gorm:"primaryKey;size:32" json:"hallId"`
	Name     string  `gorm:"size:120;not null" json:"name"`
	Location string  `gorm:"size:200" json:"location"`
	Tables   []Table `gorm:"constraint:OnDelete:CASCADE" json:"tables"`
}

type Table struct {
	ID     string `gorm:"primaryKey;size:32" json:"tableId"`
	HallID string `gorm:"index;size:32" json:"hallId"`
	Number int    `gorm:"not null" json:"tableNumber"`
}

type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Hall{}, &Table{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) ListHalls(ctx context.Context) ([]Hall, error) {
	var halls []Hall
	err := s.db.WithContext(ctx).Preload("Tables").Order("name").Find(&halls).Error
	return halls, err
}

func (s *Store) GetHall(ctx context.Context, id string) (Hall, error) {
	var h Hall
	err := s.db.WithContext(ctx).Preload("Tables").First(&h, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Hall{}, ErrNotFound
	}
	return h, err
}

// CreateHall registers a hall with numTables numbered tables.
func (s *Store) CreateHall(ctx context.Context, name, location string, numTables int) (Hall, error) {
	h := Hall{
		ID:       newID(),
		Name:     name,
		Location: location,
		Tables:   make([]Table, 0, numTables),
	}
	for i := 1; i <= numTables; i++ {
		h.Tables = append(h.Tables, Table{ID: newID(), HallID: h.ID, Number: i})
	}
	if err := s.db.WithContext(ctx).Create(&h).Error; err != nil {
		return Hall{}, err
	}
	return h, nil
}

func newID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return hex.EncodeToString(buf)
}
