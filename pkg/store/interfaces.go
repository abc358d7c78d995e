package store

import (
	"context"

	"swiftgo/pkg/model"
)

// ModelStore handles the installed model set.
type ModelStore interface {
	SaveModel(ctx context.Context, m *model.Model) error
	GetModel(ctx context.Context, title string) (*model.Model, error)
	ListModels(ctx context.Context) ([]model.Model, error)
	FindModels(ctx context.Context, icaoType string) ([]model.Model, error)
	DeleteModel(ctx context.Context, title string) error
}

// DisabledModelStore handles models excluded after failed adds.
type DisabledModelStore interface {
	DisableModel(ctx context.Context, title, reason string) error
	EnableModel(ctx context.Context, title string) error
	IsModelDisabled(ctx context.Context, title string) (bool, error)
	ListDisabledModels(ctx context.Context) ([]model.DisabledModel, error)
}

// ElevationStore persists measured ground elevations keyed by cell.
type ElevationStore interface {
	GetElevation(ctx context.Context, cell string) (float64, bool)
	SaveElevation(ctx context.Context, cell string, elevationFt float64) error
	RecentElevations(ctx context.Context, limit int) (map[string]float64, error)
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}
