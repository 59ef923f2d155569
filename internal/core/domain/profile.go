package domain

import "time"

// User is the local account notifications are addressed to.
type User struct {
	ID       string
	Username string
	Email    string
}

// Profile holds a user's saved search criteria. MaxPriceBase of zero means
// no upper bound.
type Profile struct {
	ID           string
	UserID       string
	MinPriceBase int
	MaxPriceBase int
	BirthDate    time.Time
	Cities       []string
}

// Age returns the profile owner's age in whole years at the given moment.
func (p Profile) Age(at time.Time) int {
	age := at.Year() - p.BirthDate.Year()
	anniversary := time.Date(at.Year(), p.BirthDate.Month(), p.BirthDate.Day(), 0, 0, 0, 0, at.Location())
	if at.Before(anniversary) {
		age--
	}
	return age
}
