package domain

import "time"

// Donor is a registered donor as the matching and acceptance code sees one.
//
// ActiveResponseID is non-nil iff the donor holds exactly one Response in
// status accepted whose parent Request is not terminal. Stores enforce this
// atomically; services never write the field directly.
type Donor struct {
	ID               string
	BloodType        BloodType
	Location         *Coordinate
	ActiveResponseID *string
	LastDonatedAt    *time.Time
}

// EligibleAt reports whether the donor is past the post-donation cooldown
// at the given instant. Disaster mode suspends this check at the call site.
func (d Donor) EligibleAt(now time.Time, cooldown time.Duration) bool {
	if d.LastDonatedAt == nil {
		return true
	}
	return now.Sub(*d.LastDonatedAt) >= cooldown
}
