package models

// Difficulty grades a class type.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// DefaultClassCapacity applies when a class type is created without one.
const DefaultClassCapacity = 10

// ClassType describes a kind of lesson that sessions are scheduled from.
type ClassType struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name" validate:"required"`
	Description     string     `db:"description" json:"description"`
	PriceSingle     float64    `db:"price" json:"price_single" validate:"min=0"`
	PricePackage    float64    `db:"price_package" json:"price_package" validate:"min=0"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes" validate:"required,gt=0"`
	Difficulty      Difficulty `db:"difficulty" json:"difficulty" validate:"required,oneof=Beginner Intermediate Advanced"`
	Capacity        int        `db:"capacity" json:"capacity" validate:"gt=0"`
}

// ApplyDefaults fills capacity and package price the same way rows coming
// back from storage are interpreted.
func (c *ClassType) ApplyDefaults() {
	if c.Capacity <= 0 {
		c.Capacity = DefaultClassCapacity
	}
	if c.PricePackage <= 0 {
		c.PricePackage = c.PriceSingle
	}
	if c.Difficulty == "" {
		c.Difficulty = DifficultyBeginner
	}
}
