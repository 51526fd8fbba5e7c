package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

var skillCatalogue = []models.Skill{
	{ID: "s1", Name: "Face Submersion (5s)", Category: "Comfort"},
	{ID: "s2", Name: "Front Float (Unsupported)", Category: "Buoyancy"},
	{ID: "s3", Name: "Freestyle Arms", Category: "Strokes"},
	{ID: "s4", Name: "Side Breathing", Category: "Strokes"},
	{ID: "s5", Name: "Treading Water (1min)", Category: "Safety"},
}

// ProgressService tracks student skill progress against the fixed catalogue.
type ProgressService struct {
	repo      repository.ProgressRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewProgressService constructs the progress service.
func NewProgressService(repo repository.ProgressRepository, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProgressService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// Skills returns the catalogue.
func (s *ProgressService) Skills() []models.Skill {
	out := make([]models.Skill, len(skillCatalogue))
	copy(out, skillCatalogue)
	return out
}

// List returns one entry per catalogue skill; skills without a stored row
// are reported as Not Started.
func (s *ProgressService) List(ctx context.Context, studentID string) ([]models.StudentProgress, error) {
	stored, err := s.repo.List(ctx, studentID)
	if err != nil {
		return nil, storageError(err, "failed to list progress")
	}
	bySkill := make(map[string]models.StudentProgress, len(stored))
	for _, p := range stored {
		bySkill[p.SkillID] = p
	}

	out := make([]models.StudentProgress, 0, len(skillCatalogue))
	for _, skill := range skillCatalogue {
		if p, ok := bySkill[skill.ID]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, models.StudentProgress{StudentID: studentID, SkillID: skill.ID, Status: models.ProgressNotStarted})
	}
	return out, nil
}

// Update sets the status of one skill for a student.
func (s *ProgressService) Update(ctx context.Context, studentID string, req models.UpdateProgressRequest) (*models.StudentProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid progress payload")
	}
	if !knownSkill(req.SkillID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "skill not found")
	}

	progress := &models.StudentProgress{
		StudentID:   studentID,
		SkillID:     req.SkillID,
		Status:      req.Status,
		LastUpdated: s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, progress); err != nil {
		return nil, storageError(err, "failed to save progress")
	}
	return progress, nil
}

func knownSkill(id string) bool {
	for _, skill := range skillCatalogue {
		if skill.ID == id {
			return true
		}
	}
	return false
}
