package models

// InstructorDashboard bundles what an instructor portal shows.
type InstructorDashboard struct {
	InstructorID string          `json:"instructor_id"`
	Availability []Availability  `json:"availability"`
	Blockouts    []Blockout      `json:"blockouts"`
	Sessions     []LessonSession `json:"sessions"`
}

// ClientDashboard bundles what a client portal shows.
type ClientDashboard struct {
	User      User              `json:"user"`
	Upcoming  []LessonSession   `json:"upcoming"`
	Past      []LessonSession   `json:"past"`
	Purchases []Purchase        `json:"purchases"`
	Progress  []StudentProgress `json:"progress"`
}
