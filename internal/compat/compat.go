// Package compat models ABO/Rh transfusion compatibility. A single
// donor→recipient rule table is the source of truth; the recipient→donor
// view is derived from it at init so the two can never drift apart.
package compat

import "bloodlink/internal/domain"

// donorRule maps each donor type to the recipient types it may satisfy.
var donorRule = map[domain.BloodType][]domain.BloodType{
	domain.ONeg:  {domain.ONeg, domain.OPos, domain.ANeg, domain.APos, domain.BNeg, domain.BPos, domain.ABNeg, domain.ABPos},
	domain.OPos:  {domain.OPos, domain.APos, domain.BPos, domain.ABPos},
	domain.ANeg:  {domain.ANeg, domain.APos, domain.ABNeg, domain.ABPos},
	domain.APos:  {domain.APos, domain.ABPos},
	domain.BNeg:  {domain.BNeg, domain.BPos, domain.ABNeg, domain.ABPos},
	domain.BPos:  {domain.BPos, domain.ABPos},
	domain.ABNeg: {domain.ABNeg, domain.ABPos},
	domain.ABPos: {domain.ABPos},
}

// recipientView[r] lists donor types that may satisfy r, in the fixed
// domain.AllBloodTypes order. Built by inverting donorRule.
var recipientView map[domain.BloodType][]domain.BloodType

func init() {
	canDonate := make(map[domain.BloodType]map[domain.BloodType]bool, len(donorRule))
	for donor, recipients := range donorRule {
		canDonate[donor] = make(map[domain.BloodType]bool, len(recipients))
		for _, r := range recipients {
			canDonate[donor][r] = true
		}
	}
	recipientView = make(map[domain.BloodType][]domain.BloodType, len(domain.AllBloodTypes))
	for _, recipient := range domain.AllBloodTypes {
		for _, donor := range domain.AllBloodTypes {
			if canDonate[donor][recipient] {
				recipientView[recipient] = append(recipientView[recipient], donor)
			}
		}
	}
}

// IsCompatible reports whether blood from donor may be given to recipient.
func IsCompatible(donor, recipient domain.BloodType) bool {
	for _, r := range donorRule[donor] {
		if r == recipient {
			return true
		}
	}
	return false
}

// CompatibleRecipients returns the recipient types a donor may satisfy.
func CompatibleRecipients(donor domain.BloodType) []domain.BloodType {
	return append([]domain.BloodType(nil), donorRule[donor]...)
}

// CompatibleDonors returns the donor types that may satisfy the requested
// type, in stable domain.AllBloodTypes order.
func CompatibleDonors(requested domain.BloodType) []domain.BloodType {
	return append([]domain.BloodType(nil), recipientView[requested]...)
}

// AllocationOrder returns compatible donor types ranked for drawing stock:
// the exact type first, then O- if compatible and distinct, then the rest in
// stable order. Spending exact matches before the universal donor keeps O-
// available for recipients who have no alternative.
func AllocationOrder(requested domain.BloodType) []domain.BloodType {
	donors := recipientView[requested]
	order := make([]domain.BloodType, 0, len(donors))
	order = append(order, requested)
	if requested != domain.ONeg {
		order = append(order, domain.ONeg)
	}
	for _, d := range donors {
		if d != requested && d != domain.ONeg {
			order = append(order, d)
		}
	}
	return order
}
