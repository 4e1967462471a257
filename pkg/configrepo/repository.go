// Package configrepo keeps the history of the pipeline configuration file in
// the database.
package configrepo

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/configfile"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/model"
)

var ErrRevisionNotFound = errors.New("config revision not found")

// Ensure Repository records revisions written through a data source
var _ configfile.RevisionRecorder = (*Repository)(nil)

// Repository stores config revisions using GORM.
type Repository struct {
	db *gorm.DB
	// keep is the number of revisions kept after each recorded save, 0 keeps all
	keep int
}

func NewRepository(db *gorm.DB, keep int) *Repository {
	return &Repository{db: db, keep: keep}
}

// Save stores rev. A revision whose md5 is already stored is ignored.
func (r *Repository) Save(ctx context.Context, rev *model.ConfigRevision) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "md5"}}, DoNothing: true}).
		Create(rev).Error
	if err != nil {
		return fmt.Errorf("failed to save config revision: %w", err)
	}
	return nil
}

// Latest returns the most recently saved revision.
func (r *Repository) Latest(ctx context.Context) (*model.ConfigRevision, error) {
	var rev model.ConfigRevision
	if err := r.db.WithContext(ctx).Order("id DESC").First(&rev).Error; err != nil {
		return nil, notFound(err)
	}
	return &rev, nil
}

func (r *Repository) FindByMd5(ctx context.Context, md5 string) (*model.ConfigRevision, error) {
	var rev model.ConfigRevision
	if err := r.db.WithContext(ctx).Where("md5 = ?", md5).First(&rev).Error; err != nil {
		return nil, notFound(err)
	}
	return &rev, nil
}

// List returns up to limit revisions, newest first. A limit of 0 or less
// lists every revision.
func (r *Repository) List(ctx context.Context, limit int) ([]model.ConfigRevision, error) {
	query := r.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var revs []model.ConfigRevision
	if err := query.Find(&revs).Error; err != nil {
		return nil, fmt.Errorf("failed to list config revisions: %w", err)
	}
	return revs, nil
}

// Prune deletes all but the newest keep revisions and returns the number
// deleted. A keep of 0 or less deletes nothing.
func (r *Repository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Exec(
		"DELETE FROM config_revisions WHERE id NOT IN (SELECT id FROM config_revisions ORDER BY id DESC LIMIT ?)",
		keep,
	)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune config revisions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// RecordRevision saves a revision written by a data source, then prunes the
// history down to the configured size.
func (r *Repository) RecordRevision(ctx context.Context, rev configfile.Revision) error {
	err := r.Save(ctx, &model.ConfigRevision{
		Md5:           rev.Md5,
		Username:      rev.Username,
		SchemaVersion: rev.SchemaVersion,
		Content:       string(rev.Content),
		CreatedAt:     rev.Time,
	})
	if err != nil {
		return err
	}

	pruned, err := r.Prune(ctx, r.keep)
	if err != nil {
		return err
	}
	if pruned > 0 {
		log.WithField("count", pruned).Debug("pruned config revisions")
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRevisionNotFound
	}
	return fmt.Errorf("failed to get config revision: %w", err)
}
