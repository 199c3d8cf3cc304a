package onboardingbus

import (
	"net/mail"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/types/bloodgroup"
	"github.com/nssmahe/portal/business/types/name"
	"github.com/nssmahe/portal/business/types/password"
)

// NewPending contains information needed to invite a volunteer.
type NewPending struct {
	Name               name.Name
	Email              mail.Address
	InstitutionalEmail mail.Address
	TenantID           uuid.UUID
}

// CompleteProfile contains the details an invitee supplies to finish
// onboarding.
type CompleteProfile struct {
	Password       password.Password
	About          string
	Position       string
	BloodGroup     bloodgroup.Null
	ProfilePicture *uuid.UUID
}

// Pending is a page of users waiting for approval.
type Pending struct {
	Users []userbus.User
	Total int
}
