package model

import "time"

// ConfigRevision is a saved copy of the pipeline configuration file
type ConfigRevision struct {
	ID            uint64    `gorm:"column:id;primaryKey" json:"id"`
	Md5           string    `gorm:"column:md5;uniqueIndex" json:"md5"`
	Username      string    `gorm:"column:username" json:"username"`
	SchemaVersion int       `gorm:"column:schema_version" json:"schema_version"`
	Content       string    `gorm:"column:content" json:"-"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ConfigRevision) TableName() string {
	return "config_revisions"
}
