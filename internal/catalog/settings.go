// internal/catalog/settings.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"showcase-sync/internal/apperrors"
	"showcase-sync/internal/database"
	"showcase-sync/internal/model"
)

const (
	settingLastSynced = "last_synced_at"
	settingRateLimit  = "rate_limit"
)

// SetLastSynced records the completion time of the most recent sync run.
func (r *Repository) SetLastSynced(ctx context.Context, t time.Time) error {
	err := database.New(r.pool).UpsertSetting(ctx, database.UpsertSettingParams{
		Key:   settingLastSynced,
		Value: t.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return &apperrors.StorageError{Op: "settings", Err: err}
	}
	return nil
}

// LastSynced returns the recorded completion time of the most recent sync
// run, or the zero time when no run has completed yet.
func (r *Repository) LastSynced(ctx context.Context) (time.Time, error) {
	value, err := database.New(r.pool).GetSetting(ctx, settingLastSynced)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, &apperrors.StorageError{Op: "settings", Err: err}
	}
	return time.Parse(time.RFC3339, value)
}

// SaveRateLimit persists a rate-limit snapshot. Implements the API client's
// RateLimitStore.
func (r *Repository) SaveRateLimit(ctx context.Context, rl model.RateLimit) error {
	payload, err := json.Marshal(rl)
	if err != nil {
		return err
	}
	err = database.New(r.pool).UpsertSetting(ctx, database.UpsertSettingParams{
		Key:   settingRateLimit,
		Value: string(payload),
	})
	if err != nil {
		return &apperrors.StorageError{Op: "settings", Err: err}
	}
	return nil
}

// LoadRateLimit returns the last persisted rate-limit snapshot.
func (r *Repository) LoadRateLimit(ctx context.Context) (model.RateLimit, error) {
	var rl model.RateLimit

	value, err := database.New(r.pool).GetSetting(ctx, settingRateLimit)
	if errors.Is(err, pgx.ErrNoRows) {
		return rl, nil
	}
	if err != nil {
		return rl, &apperrors.StorageError{Op: "settings", Err: err}
	}

	if err := json.Unmarshal([]byte(value), &rl); err != nil {
		return model.RateLimit{}, err
	}
	return rl, nil
}
