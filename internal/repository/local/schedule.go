package local

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
)

type availabilityRepository struct {
	v *view
}

func (r *availabilityRepository) List(_ context.Context, instructorID string) ([]models.Availability, error) {
	slots := []models.Availability{}
	err := r.v.read(func(st *state) error {
		for _, slot := range st.availability {
			if instructorID == "" || slot.InstructorID == instructorID {
				slots = append(slots, slot)
			}
		}
		return nil
	})
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		if slots[i].StartTime != slots[j].StartTime {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].ID < slots[j].ID
	})
	return slots, err
}

func (r *availabilityRepository) GetByID(_ context.Context, id string) (*models.Availability, error) {
	var slot models.Availability
	err := r.v.read(func(st *state) error {
		found, ok := st.availability[id]
		if !ok {
			return repository.NotFound("availability", id)
		}
		slot = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *availabilityRepository) Create(ctx context.Context, slot *models.Availability) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if err := validateAvailability(slot); err != nil {
		return err
	}
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.users[slot.InstructorID]; !ok {
			return repository.NotFound("instructor", slot.InstructorID)
		}
		st.availability[slot.ID] = *slot
		return nil
	}, keyAvailability)
}

func (r *availabilityRepository) Update(ctx context.Context, slot *models.Availability) error {
	if err := validateAvailability(slot); err != nil {
		return err
	}
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.availability[slot.ID]; !ok {
			return repository.NotFound("availability", slot.ID)
		}
		st.availability[slot.ID] = *slot
		return nil
	}, keyAvailability)
}

func (r *availabilityRepository) Delete(ctx context.Context, id string) error {
	return r.v.write(ctx, func(st *state) error {
		delete(st.availability, id)
		return nil
	}, keyAvailability)
}

func validateAvailability(slot *models.Availability) error {
	if err := repository.ValidateEntity(slot); err != nil {
		return err
	}
	return repository.ValidateWindow(slot.StartTime, slot.EndTime)
}

type blockoutRepository struct {
	v *view
}

func (r *blockoutRepository) List(_ context.Context, instructorID string) ([]models.Blockout, error) {
	blockouts := []models.Blockout{}
	err := r.v.read(func(st *state) error {
		for _, blockout := range st.blockouts {
			if instructorID == "" || blockout.InstructorID == instructorID {
				blockouts = append(blockouts, blockout)
			}
		}
		return nil
	})
	sort.Slice(blockouts, func(i, j int) bool {
		if blockouts[i].Date != blockouts[j].Date {
			return blockouts[i].Date < blockouts[j].Date
		}
		if blockouts[i].StartTime != blockouts[j].StartTime {
			return blockouts[i].StartTime < blockouts[j].StartTime
		}
		return blockouts[i].ID < blockouts[j].ID
	})
	return blockouts, err
}

func (r *blockoutRepository) GetByID(_ context.Context, id string) (*models.Blockout, error) {
	var blockout models.Blockout
	err := r.v.read(func(st *state) error {
		found, ok := st.blockouts[id]
		if !ok {
			return repository.NotFound("blockout", id)
		}
		blockout = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &blockout, nil
}

func (r *blockoutRepository) Create(ctx context.Context, blockout *models.Blockout) error {
	if blockout.ID == "" {
		blockout.ID = uuid.NewString()
	}
	if err := validateBlockout(blockout); err != nil {
		return err
	}
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.users[blockout.InstructorID]; !ok {
			return repository.NotFound("instructor", blockout.InstructorID)
		}
		st.blockouts[blockout.ID] = *blockout
		return nil
	}, keyBlockouts)
}

func (r *blockoutRepository) Update(ctx context.Context, blockout *models.Blockout) error {
	if err := validateBlockout(blockout); err != nil {
		return err
	}
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.blockouts[blockout.ID]; !ok {
			return repository.NotFound("blockout", blockout.ID)
		}
		st.blockouts[blockout.ID] = *blockout
		return nil
	}, keyBlockouts)
}

func (r *blockoutRepository) Delete(ctx context.Context, id string) error {
	return r.v.write(ctx, func(st *state) error {
		delete(st.blockouts, id)
		return nil
	}, keyBlockouts)
}

func validateBlockout(blockout *models.Blockout) error {
	if err := repository.ValidateEntity(blockout); err != nil {
		return err
	}
	return repository.ValidateWindow(blockout.StartTime, blockout.EndTime)
}
