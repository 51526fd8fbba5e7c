package local

import (
	"time"

	"github.com/lovableswim/swim-api/internal/models"
)

// Seed is the initial data of a fresh local store.
type Seed struct {
	Users        []models.User
	ClassTypes   []models.ClassType
	Packages     []models.Package
	Purchases    []models.Purchase
	Availability []models.Availability
	Settings     *models.Settings
}

// DemoSeed returns the demo accounts (client u1, instructor i1, admin a1)
// sharing one password hash, the instructor's default weekly hours and the
// given settings.
func DemoSeed(passwordHash string, settings models.Settings) *Seed {
	now := time.Now().UTC()
	user := func(id, name, email string, role models.UserRole, credits int) models.User {
		return models.User{
			ID: id, Name: name, Email: email, Role: role, PackageCredits: credits,
			PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now,
		}
	}
	return &Seed{
		Users: []models.User{
			user("u1", "Demo Client", "client@example.com", models.RoleClient, 5),
			user("i1", "Demo Instructor", "instructor@example.com", models.RoleInstructor, 0),
			user("a1", "Demo Admin", "admin@example.com", models.RoleAdmin, 0),
		},
		ClassTypes: []models.ClassType{
			{ID: "c1", Name: "Beginner Group", Description: "Water confidence and floating", PriceSingle: 40, PricePackage: 35, DurationMinutes: 45, Difficulty: models.DifficultyBeginner, Capacity: 4},
			{ID: "c2", Name: "Private Lesson", Description: "One to one coaching", PriceSingle: 75, PricePackage: 65, DurationMinutes: 30, Difficulty: models.DifficultyIntermediate, Capacity: 1},
		},
		Packages: []models.Package{
			{ID: "p1", Name: "Starter Pack", Description: "Five lessons", Credits: 5, Price: 200},
			{ID: "p2", Name: "Ten Pack", Description: "Ten lessons", Credits: 10, Price: 350},
		},
		Purchases: []models.Purchase{
			{ID: "pur1", UserID: "u1", PackageID: "p1", PackageName: "Starter Pack", Credits: 5, Price: 200, Date: time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC)},
		},
		Availability: []models.Availability{
			{ID: "av1", InstructorID: "i1", DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"},
			{ID: "av2", InstructorID: "i1", DayOfWeek: 3, StartTime: "09:00", EndTime: "17:00"},
			{ID: "av3", InstructorID: "i1", DayOfWeek: 5, StartTime: "09:00", EndTime: "16:00"},
		},
		Settings: &settings,
	}
}

func (s *Seed) apply(st *state) {
	for _, u := range s.Users {
		st.users[u.ID] = u
	}
	for _, c := range s.ClassTypes {
		st.classTypes[c.ID] = c
	}
	for _, p := range s.Packages {
		st.packages[p.ID] = p
	}
	for _, p := range s.Purchases {
		st.purchases[p.ID] = p
	}
	for _, a := range s.Availability {
		st.availability[a.ID] = a
	}
	if s.Settings != nil {
		settings := *s.Settings
		st.settings = &settings
	}
}
