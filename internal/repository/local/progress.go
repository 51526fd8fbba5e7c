package local

import (
	"context"
	"sort"
	"time"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
)

type progressRepository struct {
	v *view
}

func (r *progressRepository) List(_ context.Context, studentID string) ([]models.StudentProgress, error) {
	progress := []models.StudentProgress{}
	err := r.v.read(func(st *state) error {
		for _, p := range st.progress {
			if p.StudentID == studentID {
				progress = append(progress, p)
			}
		}
		return nil
	})
	sort.Slice(progress, func(i, j int) bool { return progress[i].SkillID < progress[j].SkillID })
	return progress, err
}

func (r *progressRepository) Get(_ context.Context, studentID, skillID string) (*models.StudentProgress, error) {
	var progress models.StudentProgress
	err := r.v.read(func(st *state) error {
		found, ok := st.progress[progressKey(studentID, skillID)]
		if !ok {
			return repository.NotFound("progress", progressKey(studentID, skillID))
		}
		progress = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *progressRepository) Upsert(ctx context.Context, progress *models.StudentProgress) error {
	if progress.LastUpdated.IsZero() {
		progress.LastUpdated = time.Now().UTC()
	}
	if err := repository.ValidateEntity(progress); err != nil {
		return err
	}
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.users[progress.StudentID]; !ok {
			return repository.NotFound("user", progress.StudentID)
		}
		st.progress[progressKey(progress.StudentID, progress.SkillID)] = *progress
		return nil
	}, keyProgress)
}

func (r *progressRepository) Delete(ctx context.Context, studentID, skillID string) error {
	return r.v.write(ctx, func(st *state) error {
		delete(st.progress, progressKey(studentID, skillID))
		return nil
	}, keyProgress)
}

type settingsRepository struct {
	v *view
}

func (r *settingsRepository) Get(_ context.Context) (*models.Settings, error) {
	var settings *models.Settings
	err := r.v.read(func(st *state) error {
		if st.settings == nil {
			return repository.NotFound("settings", "1")
		}
		copied := *st.settings
		settings = &copied
		return nil
	})
	return settings, err
}

func (r *settingsRepository) Save(ctx context.Context, settings *models.Settings) error {
	if err := repository.ValidateEntity(settings); err != nil {
		return err
	}
	copied := *settings
	return r.v.write(ctx, func(st *state) error {
		st.settings = &copied
		return nil
	}, keySettings)
}
