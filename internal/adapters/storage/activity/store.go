package activity

import (
	"context"
	"time"

	domain "parky/internal/domain/activity"
)

// Store persists parking activities and their histories.
type Store interface {
	SaveActivity(ctx context.Context, value domain.Activity) error
	SaveHistory(ctx context.Context, value domain.History) error
	ListActivities(ctx context.Context) ([]domain.Activity, error)
	ListActivitiesBetween(ctx context.Context, start, end time.Time) ([]domain.Activity, error)
	ListHistories(ctx context.Context) ([]domain.History, error)
}
