package domain

import "fmt"

// BloodType is one of the 8 ABO/Rh groups. It is used as a map key
// throughout the inventory and compatibility code.
type BloodType string

const (
	ONeg  BloodType = "O-"
	OPos  BloodType = "O+"
	ANeg  BloodType = "A-"
	APos  BloodType = "A+"
	BNeg  BloodType = "B-"
	BPos  BloodType = "B+"
	ABNeg BloodType = "AB-"
	ABPos BloodType = "AB+"
)

// AllBloodTypes lists every group in a fixed order. The order is load-bearing:
// allocation priority and tie-breaking both iterate it, so it must stay stable.
var AllBloodTypes = []BloodType{ONeg, OPos, ANeg, APos, BNeg, BPos, ABNeg, ABPos}

// ParseBloodType validates a raw string from a collaborator.
func ParseBloodType(s string) (BloodType, error) {
	bt := BloodType(s)
	for _, known := range AllBloodTypes {
		if bt == known {
			return bt, nil
		}
	}
	return "", fmt.Errorf("unknown blood type %q", s)
}
