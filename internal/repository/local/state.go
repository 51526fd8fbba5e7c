package local

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lovableswim/swim-api/internal/models"
)

// Snapshot keys, one JSON document per collection.
const (
	keyUsers        = "ls_users"
	keyClasses      = "ls_classes"
	keyPackages     = "ls_packages"
	keySessions     = "ls_sessions"
	keyProgress     = "ls_progress"
	keySettings     = "ls_settings"
	keyAvailability = "ls_availability"
	keyBlockouts    = "ls_blockouts"
	keyPurchases    = "ls_purchases"
)

var allKeys = []string{
	keyUsers, keyClasses, keyPackages, keySessions, keyProgress,
	keySettings, keyAvailability, keyBlockouts, keyPurchases,
}

type state struct {
	users        map[string]models.User
	classTypes   map[string]models.ClassType
	sessions     map[string]models.LessonSession
	packages     map[string]models.Package
	purchases    map[string]models.Purchase
	availability map[string]models.Availability
	blockouts    map[string]models.Blockout
	progress     map[string]models.StudentProgress
	settings     *models.Settings
}

func newState() *state {
	return &state{
		users:        map[string]models.User{},
		classTypes:   map[string]models.ClassType{},
		sessions:     map[string]models.LessonSession{},
		packages:     map[string]models.Package{},
		purchases:    map[string]models.Purchase{},
		availability: map[string]models.Availability{},
		blockouts:    map[string]models.Blockout{},
		progress:     map[string]models.StudentProgress{},
	}
}

func progressKey(studentID, skillID string) string {
	return studentID + "/" + skillID
}

func copyMap[T any](src map[string]T) map[string]T {
	dst := make(map[string]T, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copySession(s models.LessonSession) models.LessonSession {
	s.EnrolledUserIDs = append([]string{}, s.EnrolledUserIDs...)
	if s.RecurringGroupID != nil {
		group := *s.RecurringGroupID
		s.RecurringGroupID = &group
	}
	return s
}

// clone returns a deep copy; writers mutate the copy and swap it in.
func (s *state) clone() *state {
	c := &state{
		users:        copyMap(s.users),
		classTypes:   copyMap(s.classTypes),
		sessions:     make(map[string]models.LessonSession, len(s.sessions)),
		packages:     copyMap(s.packages),
		purchases:    copyMap(s.purchases),
		availability: copyMap(s.availability),
		blockouts:    copyMap(s.blockouts),
		progress:     copyMap(s.progress),
	}
	for id, session := range s.sessions {
		c.sessions[id] = copySession(session)
	}
	if s.settings != nil {
		settings := *s.settings
		c.settings = &settings
	}
	return c
}

func sortedValues[T any](m map[string]T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func (s *state) encode(key string) ([]byte, error) {
	var v interface{}
	switch key {
	case keyUsers:
		users := sortedValues(s.users)
		rows := make([]storedUser, len(users))
		for i, u := range users {
			rows[i] = storedUser{User: u, PasswordHash: u.PasswordHash}
		}
		v = rows
	case keyClasses:
		v = sortedValues(s.classTypes)
	case keySessions:
		v = sortedValues(s.sessions)
	case keyPackages:
		v = sortedValues(s.packages)
	case keyPurchases:
		v = sortedValues(s.purchases)
	case keyAvailability:
		v = sortedValues(s.availability)
	case keyBlockouts:
		v = sortedValues(s.blockouts)
	case keyProgress:
		v = sortedValues(s.progress)
	case keySettings:
		v = s.settings
	default:
		return nil, fmt.Errorf("unknown snapshot key %s", key)
	}
	return json.Marshal(v)
}

// storedUser keeps the password hash, which the API representation omits.
type storedUser struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

func (s *state) decode(key string, raw []byte) error {
	switch key {
	case keyUsers:
		var rows []storedUser
		if err := json.Unmarshal(raw, &rows); err != nil {
			return err
		}
		for _, row := range rows {
			row.User.PasswordHash = row.PasswordHash
			s.users[row.ID] = row.User
		}
	case keyClasses:
		return decodeInto(raw, s.classTypes, func(c models.ClassType) string { return c.ID })
	case keySessions:
		return decodeInto(raw, s.sessions, func(v models.LessonSession) string { return v.ID })
	case keyPackages:
		return decodeInto(raw, s.packages, func(v models.Package) string { return v.ID })
	case keyPurchases:
		return decodeInto(raw, s.purchases, func(v models.Purchase) string { return v.ID })
	case keyAvailability:
		return decodeInto(raw, s.availability, func(v models.Availability) string { return v.ID })
	case keyBlockouts:
		return decodeInto(raw, s.blockouts, func(v models.Blockout) string { return v.ID })
	case keyProgress:
		return decodeInto(raw, s.progress, func(v models.StudentProgress) string { return progressKey(v.StudentID, v.SkillID) })
	case keySettings:
		var settings *models.Settings
		if err := json.Unmarshal(raw, &settings); err != nil {
			return err
		}
		s.settings = settings
	default:
		return fmt.Errorf("unknown snapshot key %s", key)
	}
	return nil
}

func decodeInto[T any](raw []byte, dst map[string]T, id func(T) string) error {
	var rows []T
	if err := json.Unmarshal(raw, &rows); err != nil {
		return err
	}
	for _, row := range rows {
		dst[id(row)] = row
	}
	return nil
}
