// Package booking holds the booking wizard: a per-user draft that walks
// from class selection to a confirmed enrollment.
package booking

import (
	"fmt"
	"time"

	"github.com/lovableswim/swim-api/internal/models"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
)

// Step is a wizard state.
type Step string

const (
	StepSelectClass    Step = "SELECT_CLASS"
	StepSelectSchedule Step = "SELECT_SCHEDULE"
	StepSelectPackage  Step = "SELECT_PACKAGE"
	StepConfirm        Step = "CONFIRM"
	StepCompleted      Step = "COMPLETED"
)

// Draft is the wizard state of one booking attempt.
type Draft struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Step         Step      `json:"step"`
	ClassTypeID  string    `json:"class_type_id,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	PackageID    string    `json:"package_id,omitempty"`
	PayPerLesson bool      `json:"pay_per_lesson"`
	LastError    string    `json:"last_error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Result is returned once a draft is committed.
type Result struct {
	Draft          *Draft               `json:"draft"`
	Session        models.LessonSession `json:"session"`
	Purchase       *models.Purchase     `json:"purchase,omitempty"`
	PackageCredits int                  `json:"package_credits"`
}

// NewDraft starts a wizard at class selection.
func NewDraft(id, userID string, now time.Time) *Draft {
	return &Draft{ID: id, UserID: userID, Step: StepSelectClass, CreatedAt: now, UpdatedAt: now}
}

func (d *Draft) Expect(step Step, action string) error {
	if d.Step != step {
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot %s while in %s", action, d.Step))
	}
	return nil
}

func (d *Draft) moveTo(step Step, now time.Time) {
	d.Step = step
	d.LastError = ""
	d.UpdatedAt = now
}

// ChooseClass records the class type and moves to schedule selection.
func (d *Draft) ChooseClass(classTypeID string, now time.Time) error {
	if err := d.Expect(StepSelectClass, "choose a class"); err != nil {
		return err
	}
	d.ClassTypeID = classTypeID
	d.moveTo(StepSelectSchedule, now)
	return nil
}

// ChooseSession records the session. Clients with credits go straight to
// confirmation; the others have to pick a package first.
func (d *Draft) ChooseSession(sessionID string, credits int, now time.Time) error {
	if err := d.Expect(StepSelectSchedule, "choose a session"); err != nil {
		return err
	}
	d.SessionID = sessionID
	d.PackageID = ""
	d.PayPerLesson = false
	if credits > 0 {
		d.moveTo(StepConfirm, now)
	} else {
		d.moveTo(StepSelectPackage, now)
	}
	return nil
}

// ChoosePackage records the package to buy on confirmation.
func (d *Draft) ChoosePackage(packageID string, now time.Time) error {
	if err := d.Expect(StepSelectPackage, "choose a package"); err != nil {
		return err
	}
	d.PackageID = packageID
	d.PayPerLesson = false
	d.moveTo(StepConfirm, now)
	return nil
}

// ChoosePayPerLesson pays for this lesson alone on confirmation.
func (d *Draft) ChoosePayPerLesson(now time.Time) error {
	if err := d.Expect(StepSelectPackage, "choose pay per lesson"); err != nil {
		return err
	}
	d.PackageID = ""
	d.PayPerLesson = true
	d.moveTo(StepConfirm, now)
	return nil
}

// Back returns to the previous selection. From confirmation or package
// selection it goes back to schedule selection and forgets the session.
func (d *Draft) Back(now time.Time) error {
	switch d.Step {
	case StepConfirm, StepSelectPackage:
		d.SessionID = ""
		d.PackageID = ""
		d.PayPerLesson = false
		d.moveTo(StepSelectSchedule, now)
	case StepSelectSchedule:
		d.ClassTypeID = ""
		d.moveTo(StepSelectClass, now)
	default:
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot go back from %s", d.Step))
	}
	return nil
}

// CanConfirm reports whether the draft is ready to commit.
func (d *Draft) CanConfirm() error {
	return d.Expect(StepConfirm, "confirm")
}

// Complete marks a committed draft.
func (d *Draft) Complete(now time.Time) error {
	if err := d.CanConfirm(); err != nil {
		return err
	}
	d.moveTo(StepCompleted, now)
	return nil
}

// Fail keeps the draft in confirmation and remembers why the commit failed.
func (d *Draft) Fail(err error, now time.Time) {
	d.LastError = err.Error()
	d.UpdatedAt = now
}
