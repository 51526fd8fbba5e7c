package models

import "time"

// LessonSession is a scheduled lesson with its enrolled clients.
type LessonSession struct {
	ID               string    `db:"id" json:"id"`
	ClassTypeID      string    `db:"class_type_id" json:"class_type_id" validate:"required"`
	InstructorID     string    `db:"instructor_id" json:"instructor_id" validate:"required"`
	StartTime        time.Time `db:"start_time" json:"start_time" validate:"required"`
	EndTime          time.Time `db:"end_time" json:"end_time" validate:"required,gtfield=StartTime"`
	Capacity         int       `db:"capacity" json:"capacity" validate:"gt=0"`
	RecurringGroupID *string   `db:"recurring_group_id" json:"recurring_group_id,omitempty"`
	EnrolledUserIDs  []string  `db:"-" json:"enrolled_user_ids"`
}

// IsFull reports whether no seat is left.
func (s LessonSession) IsFull() bool {
	return len(s.EnrolledUserIDs) >= s.Capacity
}

// SpotsLeft returns the number of free seats.
func (s LessonSession) SpotsLeft() int {
	if left := s.Capacity - len(s.EnrolledUserIDs); left > 0 {
		return left
	}
	return 0
}

// HasEnrolled reports whether userID holds a seat.
func (s LessonSession) HasEnrolled(userID string) bool {
	for _, id := range s.EnrolledUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// SessionFilter narrows session listings. Zero values mean no filter.
type SessionFilter struct {
	ClassTypeID  string
	InstructorID string
	UserID       string
	From         *time.Time
	To           *time.Time
	OnlyOpen     bool
}

// CreateSessionRequest schedules one session, or a weekly series when Weeks
// is greater than one. Date and StartTime are wall-clock values in the
// schedule timezone.
type CreateSessionRequest struct {
	InstructorID string `json:"instructor_id" validate:"required"`
	ClassTypeID  string `json:"class_type_id" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time" validate:"required,datetime=15:04"`
	Capacity     int    `json:"capacity" validate:"omitempty,gt=0"`
	Override     bool   `json:"override"`
	Weeks        int    `json:"weeks" validate:"omitempty,min=1,max=52"`
}

// EnrollRequest lets staff enroll a specific client.
type EnrollRequest struct {
	UserID string `json:"user_id"`
}
