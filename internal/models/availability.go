package models

// Availability is an instructor's recurring weekly window. Times are "HH:MM"
// in the schedule timezone and the window is half-open.
type Availability struct {
	ID           string `db:"id" json:"id"`
	InstructorID string `db:"instructor_id" json:"instructor_id" validate:"required"`
	DayOfWeek    int    `db:"day_of_week" json:"day_of_week" validate:"min=0,max=6"`
	StartTime    string `db:"start_time" json:"start_time" validate:"required,datetime=15:04"`
	EndTime      string `db:"end_time" json:"end_time" validate:"required,datetime=15:04"`
}

// Blockout is a one-off unavailability on a given date; it takes precedence
// over Availability.
type Blockout struct {
	ID           string `db:"id" json:"id"`
	InstructorID string `db:"instructor_id" json:"instructor_id" validate:"required"`
	Date         string `db:"date" json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string `db:"start_time" json:"start_time" validate:"required,datetime=15:04"`
	EndTime      string `db:"end_time" json:"end_time" validate:"required,datetime=15:04"`
	Reason       string `db:"reason" json:"reason"`
}
