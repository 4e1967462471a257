package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/server/store"
)

var _ store.HealthStore = (*HealthStore)(nil)

// HealthStore checks the database behind the revision history
type HealthStore struct {
	db *gorm.DB
}

func NewHealthStore(db *gorm.DB) *HealthStore {
	return &HealthStore{db: db}
}

// CheckConnectivity runs a trivial query
func (s *HealthStore) CheckConnectivity(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}
