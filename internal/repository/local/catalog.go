package local

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/repository"
)

type classTypeRepository struct {
	v *view
}

func (r *classTypeRepository) List(_ context.Context) ([]models.ClassType, error) {
	var classTypes []models.ClassType
	err := r.v.read(func(st *state) error {
		classTypes = sortedValues(st.classTypes)
		return nil
	})
	sort.SliceStable(classTypes, func(i, j int) bool { return classTypes[i].Name < classTypes[j].Name })
	for i := range classTypes {
		classTypes[i].ApplyDefaults()
	}
	return classTypes, err
}

func (r *classTypeRepository) GetByID(_ context.Context, id string) (*models.ClassType, error) {
	var classType models.ClassType
	err := r.v.read(func(st *state) error {
		found, ok := st.classTypes[id]
		if !ok {
			return repository.NotFound("class type", id)
		}
		classType = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	classType.ApplyDefaults()
	return &classType, nil
}

func (r *classTypeRepository) Create(ctx context.Context, classType *models.ClassType) error {
	if classType.ID == "" {
		classType.ID = uuid.NewString()
	}
	classType.ApplyDefaults()
	if err := repository.ValidateEntity(classType); err != nil {
		return err
	}
	return r.v.write(ctx, func(st *state) error {
		if _, exists := st.classTypes[classType.ID]; exists {
			return repository.Conflict(fmt.Sprintf("class type %s already exists", classType.ID))
		}
		st.classTypes[classType.ID] = *classType
		return nil
	}, keyClasses)
}

func (r *classTypeRepository) Update(ctx context.Context, classType *models.ClassType) error {
	classType.ApplyDefaults()
	if err := repository.ValidateEntity(classType); err != nil {
		return err
	}
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.classTypes[classType.ID]; !ok {
			return repository.NotFound("class type", classType.ID)
		}
		st.classTypes[classType.ID] = *classType
		return nil
	}, keyClasses)
}

// Delete also drops the sessions scheduled from the class type.
func (r *classTypeRepository) Delete(ctx context.Context, id string) error {
	return r.v.write(ctx, func(st *state) error {
		delete(st.classTypes, id)
		for sid, session := range st.sessions {
			if session.ClassTypeID == id {
				delete(st.sessions, sid)
			}
		}
		return nil
	}, keyClasses, keySessions)
}

type packageRepository struct {
	v *view
}

func (r *packageRepository) List(_ context.Context) ([]models.Package, error) {
	var packages []models.Package
	err := r.v.read(func(st *state) error {
		packages = sortedValues(st.packages)
		return nil
	})
	sort.SliceStable(packages, func(i, j int) bool { return packages[i].Price < packages[j].Price })
	return packages, err
}

func (r *packageRepository) GetByID(_ context.Context, id string) (*models.Package, error) {
	var pkg models.Package
	err := r.v.read(func(st *state) error {
		found, ok := st.packages[id]
		if !ok {
			return repository.NotFound("package", id)
		}
		pkg = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *packageRepository) Create(ctx context.Context, pkg *models.Package) error {
	if pkg.ID == "" {
		pkg.ID = uuid.NewString()
	}
	if err := repository.ValidateEntity(pkg); err != nil {
		return err
	}
	return r.v.write(ctx, func(st *state) error {
		if _, exists := st.packages[pkg.ID]; exists {
			return repository.Conflict(fmt.Sprintf("package %s already exists", pkg.ID))
		}
		st.packages[pkg.ID] = *pkg
		return nil
	}, keyPackages)
}

func (r *packageRepository) Update(ctx context.Context, pkg *models.Package) error {
	if err := repository.ValidateEntity(pkg); err != nil {
		return err
	}
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.packages[pkg.ID]; !ok {
			return repository.NotFound("package", pkg.ID)
		}
		st.packages[pkg.ID] = *pkg
		return nil
	}, keyPackages)
}

func (r *packageRepository) Delete(ctx context.Context, id string) error {
	return r.v.write(ctx, func(st *state) error {
		delete(st.packages, id)
		return nil
	}, keyPackages)
}

type purchaseRepository struct {
	v *view
}

func (r *purchaseRepository) List(_ context.Context, filter models.PurchaseFilter) ([]models.Purchase, error) {
	purchases := []models.Purchase{}
	err := r.v.read(func(st *state) error {
		for _, purchase := range st.purchases {
			if filter.UserID != "" && purchase.UserID != filter.UserID {
				continue
			}
			if filter.From != nil && purchase.Date.Before(*filter.From) {
				continue
			}
			if filter.To != nil && !purchase.Date.Before(*filter.To) {
				continue
			}
			purchases = append(purchases, purchase)
		}
		return nil
	})
	sort.Slice(purchases, func(i, j int) bool {
		if purchases[i].Date.Equal(purchases[j].Date) {
			return purchases[i].ID < purchases[j].ID
		}
		return purchases[i].Date.After(purchases[j].Date)
	})
	return purchases, err
}

func (r *purchaseRepository) GetByID(_ context.Context, id string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.v.read(func(st *state) error {
		found, ok := st.purchases[id]
		if !ok {
			return repository.NotFound("purchase", id)
		}
		purchase = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *models.Purchase) error {
	if purchase.ID == "" {
		purchase.ID = uuid.NewString()
	}
	if purchase.Date.IsZero() {
		purchase.Date = time.Now().UTC()
	}
	if err := repository.ValidateEntity(purchase); err != nil {
		return err
	}
	return r.v.write(ctx, func(st *state) error {
		if _, exists := st.purchases[purchase.ID]; exists {
			return repository.Conflict(fmt.Sprintf("purchase %s already exists", purchase.ID))
		}
		if _, ok := st.users[purchase.UserID]; !ok {
			return repository.NotFound("user", purchase.UserID)
		}
		st.purchases[purchase.ID] = *purchase
		return nil
	}, keyPurchases)
}
