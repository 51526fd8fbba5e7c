package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovableswim/swim-api/internal/models"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

func TestProgressDefaultsToNotStarted(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.store.Progress(), nil, nil)

	progress, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, progress, len(svc.Skills()))
	for _, p := range progress {
		assert.Equal(t, models.ProgressNotStarted, p.Status)
		assert.Equal(t, "u1", p.StudentID)
	}
}

func TestProgressUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewProgressService(f.store.Progress(), nil, nil)
	svc.now = func() time.Time { return fixedNow }

	updated, err := svc.Update(ctx, "u1", models.UpdateProgressRequest{SkillID: "s2", Status: models.ProgressAchieved})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, updated.LastUpdated)

	_, err = svc.Update(ctx, "u1", models.UpdateProgressRequest{SkillID: "s2", Status: models.ProgressWorkingOn})
	require.NoError(t, err)

	progress, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "s2", progress[1].SkillID)
	assert.Equal(t, models.ProgressWorkingOn, progress[1].Status, "upsert keeps one row per skill")

	_, err = svc.Update(ctx, "u1", models.UpdateProgressRequest{SkillID: "s99", Status: models.ProgressAchieved})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Update(ctx, "u1", models.UpdateProgressRequest{SkillID: "s1", Status: "Mastered"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Update(ctx, "ghost", models.UpdateProgressRequest{SkillID: "s1", Status: models.ProgressAchieved})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
