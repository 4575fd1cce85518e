package domain

import "time"

// DisasterModeState is the per-region operational policy flag. While active,
// search radii widen, donation cooldowns are suspended, and all requests rank
// as high urgency. Written only through the disaster service's SetActive.
type DisasterModeState struct {
	Region      string
	Active      bool
	ActivatedAt time.Time
	ActivatedBy string
}
