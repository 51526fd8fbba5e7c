package models

// Settings is the single-row system configuration, saved wholesale.
type Settings struct {
	PoolCapacity      int    `db:"pool_capacity" json:"pool_capacity" validate:"gt=0"`
	CancellationHours int    `db:"cancellation_hours" json:"cancellation_hours" validate:"min=0"`
	MaintenanceMode   bool   `db:"maintenance_mode" json:"maintenance_mode"`
	ContactEmail      string `db:"contact_email" json:"contact_email" validate:"required,email"`
}
