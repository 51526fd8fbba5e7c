package local

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
)

type sessionRepository struct {
	v *view
}

func (r *sessionRepository) List(_ context.Context, filter models.SessionFilter) ([]models.LessonSession, error) {
	sessions := []models.LessonSession{}
	err := r.v.read(func(st *state) error {
		for _, session := range st.sessions {
			if matchesSession(session, filter) {
				sessions = append(sessions, copySession(session))
			}
		}
		return nil
	})
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].StartTime.Equal(sessions[j].StartTime) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
	return sessions, err
}

func matchesSession(session models.LessonSession, filter models.SessionFilter) bool {
	if filter.ClassTypeID != "" && session.ClassTypeID != filter.ClassTypeID {
		return false
	}
	if filter.InstructorID != "" && session.InstructorID != filter.InstructorID {
		return false
	}
	if filter.UserID != "" && !session.HasEnrolled(filter.UserID) {
		return false
	}
	if filter.From != nil && session.StartTime.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !session.StartTime.Before(*filter.To) {
		return false
	}
	if filter.OnlyOpen && session.IsFull() {
		return false
	}
	return true
}

func (r *sessionRepository) GetByID(_ context.Context, id string) (*models.LessonSession, error) {
	var session models.LessonSession
	err := r.v.read(func(st *state) error {
		found, ok := st.sessions[id]
		if !ok {
			return repository.NotFound("session", id)
		}
		session = copySession(found)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Create(ctx context.Context, session *models.LessonSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if err := repository.ValidateEntity(session); err != nil {
		return err
	}
	enrolled := uniqueIDs(session.EnrolledUserIDs)
	if len(enrolled) > session.Capacity {
		return repository.SessionFull(session.ID)
	}

	return r.v.write(ctx, func(st *state) error {
		if _, exists := st.sessions[session.ID]; exists {
			return repository.Conflict(fmt.Sprintf("session %s already exists", session.ID))
		}
		if _, ok := st.classTypes[session.ClassTypeID]; !ok {
			return repository.Conflict("session references an unknown class type or instructor")
		}
		if _, ok := st.users[session.InstructorID]; !ok {
			return repository.Conflict("session references an unknown class type or instructor")
		}
		for _, userID := range enrolled {
			if _, ok := st.users[userID]; !ok {
				return repository.NotFound("user", userID)
			}
		}
		session.EnrolledUserIDs = enrolled
		st.sessions[session.ID] = copySession(*session)
		return nil
	}, keySessions)
}

func (r *sessionRepository) Update(ctx context.Context, session *models.LessonSession) error {
	if err := repository.ValidateEntity(session); err != nil {
		return err
	}
	return r.v.write(ctx, func(st *state) error {
		existing, ok := st.sessions[session.ID]
		if !ok {
			return repository.NotFound("session", session.ID)
		}
		if session.Capacity < len(existing.EnrolledUserIDs) {
			return repository.Invalid(fmt.Sprintf("capacity %d is below the %d enrolled clients", session.Capacity, len(existing.EnrolledUserIDs)))
		}
		session.EnrolledUserIDs = append([]string{}, existing.EnrolledUserIDs...)
		st.sessions[session.ID] = copySession(*session)
		return nil
	}, keySessions)
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.v.write(ctx, func(st *state) error {
		delete(st.sessions, id)
		return nil
	}, keySessions)
}

func (r *sessionRepository) Enroll(ctx context.Context, sessionID, userID string) (bool, error) {
	var added bool
	err := r.v.write(ctx, func(st *state) error {
		session, ok := st.sessions[sessionID]
		if !ok {
			return repository.NotFound("session", sessionID)
		}
		if session.HasEnrolled(userID) {
			return nil
		}
		if _, ok := st.users[userID]; !ok {
			return repository.NotFound("user", userID)
		}
		if session.IsFull() {
			return repository.SessionFull(sessionID)
		}
		session.EnrolledUserIDs = append(session.EnrolledUserIDs, userID)
		st.sessions[sessionID] = session
		added = true
		return nil
	}, keySessions)
	if err != nil {
		return false, err
	}
	return added, nil
}

func (r *sessionRepository) Unenroll(ctx context.Context, sessionID, userID string) (bool, error) {
	var removed bool
	err := r.v.write(ctx, func(st *state) error {
		session, ok := st.sessions[sessionID]
		if !ok || !session.HasEnrolled(userID) {
			return nil
		}
		session.EnrolledUserIDs = removeID(session.EnrolledUserIDs, userID)
		st.sessions[sessionID] = session
		removed = true
		return nil
	}, keySessions)
	return removed, err
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
