package models

import "time"

// ProgressStatus tracks how far a student is with a skill.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "Not Started"
	ProgressWorkingOn  ProgressStatus = "Working On"
	ProgressAchieved   ProgressStatus = "Achieved"
)

// Skill is an entry of the fixed skills catalogue.
type Skill struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// StudentProgress is keyed by (StudentID, SkillID).
type StudentProgress struct {
	StudentID   string         `db:"student_id" json:"student_id" validate:"required"`
	SkillID     string         `db:"skill_id" json:"skill_id" validate:"required"`
	Status      ProgressStatus `db:"status" json:"status" validate:"required,oneof='Not Started' 'Working On' Achieved"`
	LastUpdated time.Time      `db:"updated_at" json:"last_updated"`
}

// UpdateProgressRequest sets the status of one skill.
type UpdateProgressRequest struct {
	SkillID string         `json:"skill_id" validate:"required"`
	Status  ProgressStatus `json:"status" validate:"required,oneof='Not Started' 'Working On' Achieved"`
}
