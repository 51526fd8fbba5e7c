package local

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
)

type userRepository struct {
	v *view
}

func (r *userRepository) List(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	users := []models.User{}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	err := r.v.read(func(st *state) error {
		for _, user := range st.users {
			if filter.Role != nil && user.Role != *filter.Role {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(user.Name), search) && !strings.Contains(user.Email, search) {
				continue
			}
			users = append(users, user)
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name == users[j].Name {
			return users[i].ID < users[j].ID
		}
		return users[i].Name < users[j].Name
	})
	return users, err
}

func (r *userRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.v.read(func(st *state) error {
		found, ok := st.users[id]
		if !ok {
			return repository.NotFound("user", id)
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	var user *models.User
	email = models.NormalizeEmail(email)
	err := r.v.read(func(st *state) error {
		if found, ok := findByEmail(st, email); ok {
			user = &found
			return nil
		}
		return repository.NotFound("user", email)
	})
	return user, err
}

func findByEmail(st *state, email string) (models.User, bool) {
	for _, user := range st.users {
		if user.Email == email {
			return user, true
		}
	}
	return models.User{}, false
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = models.NormalizeEmail(user.Email)
	if err := repository.ValidateEntity(user); err != nil {
		return err
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	return r.v.write(ctx, func(st *state) error {
		if _, exists := st.users[user.ID]; exists {
			return repository.Conflict(fmt.Sprintf("user %s already exists", user.ID))
		}
		if _, taken := findByEmail(st, user.Email); taken {
			return repository.Conflict(fmt.Sprintf("email %s is already registered", user.Email))
		}
		st.users[user.ID] = *user
		return nil
	}, keyUsers)
}

// Update writes profile fields. The stored credit balance is kept; credits
// only change through AdjustCredits.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	if err := repository.ValidateEntity(user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()

	return r.v.write(ctx, func(st *state) error {
		existing, ok := st.users[user.ID]
		if !ok {
			return repository.NotFound("user", user.ID)
		}
		if other, taken := findByEmail(st, user.Email); taken && other.ID != user.ID {
			return repository.Conflict(fmt.Sprintf("email %s is already registered", user.Email))
		}
		user.CreatedAt = existing.CreatedAt
		user.PackageCredits = existing.PackageCredits
		st.users[user.ID] = *user
		return nil
	}, keyUsers)
}

// Delete removes the user and everything that references it, like the
// foreign keys of the relational schema. A user who still teaches sessions
// cannot be deleted.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return nil
		}
		for _, session := range st.sessions {
			if session.InstructorID == id {
				return repository.Conflict(fmt.Sprintf("user %s still teaches session %s", id, session.ID))
			}
		}
		delete(st.users, id)
		for sid, session := range st.sessions {
			if session.HasEnrolled(id) {
				session.EnrolledUserIDs = removeID(session.EnrolledUserIDs, id)
				st.sessions[sid] = session
			}
		}
		for pid, purchase := range st.purchases {
			if purchase.UserID == id {
				delete(st.purchases, pid)
			}
		}
		for aid, slot := range st.availability {
			if slot.InstructorID == id {
				delete(st.availability, aid)
			}
		}
		for bid, blockout := range st.blockouts {
			if blockout.InstructorID == id {
				delete(st.blockouts, bid)
			}
		}
		for key, progress := range st.progress {
			if progress.StudentID == id {
				delete(st.progress, key)
			}
		}
		return nil
	}, keyUsers, keySessions, keyPurchases, keyAvailability, keyBlockouts, keyProgress)
}

func (r *userRepository) AdjustCredits(ctx context.Context, id string, delta int) (int, error) {
	var balance int
	err := r.v.write(ctx, func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return repository.NotFound("user", id)
		}
		if user.PackageCredits+delta < 0 {
			return repository.InsufficientCredits(id)
		}
		user.PackageCredits += delta
		user.UpdatedAt = time.Now().UTC()
		st.users[id] = user
		balance = user.PackageCredits
		return nil
	}, keyUsers)
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
