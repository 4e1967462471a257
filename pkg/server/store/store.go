package store

import (
	"context"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/configfile"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/cruiseconfig"
	"github.com/doodlesbykumbi/cruise-in-go/pkg/model"
)

// HealthStore provides health check operations
type HealthStore interface {
	// CheckConnectivity verifies database connectivity
	CheckConnectivity(ctx context.Context) error
}

// ConfigStore holds the pipeline configuration
type ConfigStore interface {
	// Current returns the last accepted configuration, nil before the first load
	Current() *configfile.Holder
	// Parse validates content without saving it
	Parse(content []byte) (*configfile.Holder, error)
	// Write saves cfg if md5 matches the current configuration
	Write(ctx context.Context, cfg *cruiseconfig.CruiseConfig, md5, user string) (*configfile.Holder, error)
}

// RevisionStore reads the configuration history
type RevisionStore interface {
	List(ctx context.Context, limit int) ([]model.ConfigRevision, error)
	FindByMd5(ctx context.Context, md5 string) (*model.ConfigRevision, error)
}
