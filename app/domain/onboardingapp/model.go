package onboardingapp

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/business/domain/onboardingbus"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/types/bloodgroup"
	"github.com/nssmahe/portal/business/types/name"
	"github.com/nssmahe/portal/business/types/password"
)

// Membership is a tenant role of a user.
type Membership struct {
	TenantID string `json:"tenantId"`
	Role     string `json:"role"`
}

// User represents a user moving through onboarding.
type User struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Email              string       `json:"email"`
	InstitutionalEmail string       `json:"institutionalEmail"`
	About              string       `json:"about,omitempty"`
	Position           string       `json:"position,omitempty"`
	BloodGroup         string       `json:"bloodGroup,omitempty"`
	Status             string       `json:"status"`
	Tenants            []Membership `json:"tenants"`
	DateCreated        string       `json:"dateCreated"`
}

// Encode implements the web.Encoder interface.
func (app User) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppUser(bus userbus.User) User {
	tenants := make([]Membership, len(bus.Tenants))
	for i, m := range bus.Tenants {
		tenants[i] = Membership{TenantID: m.TenantID.String(), Role: m.Role.String()}
	}

	var bg string
	if bus.BloodGroup.Valid() {
		bg = bus.BloodGroup.String()
	}

	return User{
		ID:                 bus.ID.String(),
		Name:               bus.Name.String(),
		Email:              bus.Email.Address,
		InstitutionalEmail: bus.InstitutionalEmail.Address,
		About:              bus.About,
		Position:           bus.Position,
		BloodGroup:         bg,
		Status:             bus.Status.String(),
		Tenants:            tenants,
		DateCreated:        bus.CreatedAt.Format(time.RFC3339),
	}
}

func toAppUsers(users []userbus.User) []User {
	app := make([]User, len(users))
	for i, usr := range users {
		app[i] = toAppUser(usr)
	}
	return app
}

// =============================================================================

// Outcome acknowledges a state change.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"userId,omitempty"`
}

// Encode implements the web.Encoder interface.
func (app Outcome) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

// TokenOwner is returned for a live onboarding token.
type TokenOwner struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

// Encode implements the web.Encoder interface.
func (app TokenOwner) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

// =============================================================================

// NewPending defines the data needed to invite a volunteer.
type NewPending struct {
	Name               string `json:"name" validate:"required"`
	Email              string `json:"email" validate:"required,email"`
	InstitutionalEmail string `json:"institutionalEmail" validate:"required,email"`
	TenantID           string `json:"tenantId" validate:"required,uuid"`
}

// Decode implements the web.Decoder interface.
func (app *NewPending) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewPending) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusNewPending(app NewPending) (onboardingbus.NewPending, error) {
	nme, err := name.Parse(app.Name)
	if err != nil {
		return onboardingbus.NewPending{}, fmt.Errorf("parse name: %w", err)
	}

	addr, err := mail.ParseAddress(app.Email)
	if err != nil {
		return onboardingbus.NewPending{}, fmt.Errorf("parse email: %w", err)
	}

	inst, err := mail.ParseAddress(app.InstitutionalEmail)
	if err != nil {
		return onboardingbus.NewPending{}, fmt.Errorf("parse institutional email: %w", err)
	}

	tenantID, err := uuid.Parse(app.TenantID)
	if err != nil {
		return onboardingbus.NewPending{}, fmt.Errorf("parse tenant id: %w", err)
	}

	bus := onboardingbus.NewPending{
		Name:               nme,
		Email:              *addr,
		InstitutionalEmail: *inst,
		TenantID:           tenantID,
	}

	return bus, nil
}

// =============================================================================

// CompleteOnboarding defines the profile an invitee submits with the token.
type CompleteOnboarding struct {
	Token          string `json:"token" validate:"required"`
	Password       string `json:"password"`
	About          string `json:"about"`
	Position       string `json:"position"`
	BloodGroup     string `json:"bloodGroup"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,uuid"`
}

// Decode implements the web.Decoder interface.
func (app *CompleteOnboarding) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app CompleteOnboarding) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

// toBusCompleteProfile leaves the password empty when none was sent so the
// business layer reports the missing credential.
func toBusCompleteProfile(app CompleteOnboarding) (onboardingbus.CompleteProfile, error) {
	var pass password.Password
	if app.Password != "" {
		p, err := password.Parse(app.Password)
		if err != nil {
			return onboardingbus.CompleteProfile{}, fmt.Errorf("parse password: %w", err)
		}
		pass = p
	}

	bg, err := bloodgroup.ParseNull(app.BloodGroup)
	if err != nil {
		return onboardingbus.CompleteProfile{}, fmt.Errorf("parse blood group: %w", err)
	}

	var picture *uuid.UUID
	if app.ProfilePicture != "" {
		id, err := uuid.Parse(app.ProfilePicture)
		if err != nil {
			return onboardingbus.CompleteProfile{}, fmt.Errorf("parse profile picture: %w", err)
		}
		picture = &id
	}

	bus := onboardingbus.CompleteProfile{
		Password:       pass,
		About:          app.About,
		Position:       app.Position,
		BloodGroup:     bg,
		ProfilePicture: picture,
	}

	return bus, nil
}

// =============================================================================

// Rejection carries the optional reason given to the rejected user.
type Rejection struct {
	Reason string `json:"reason"`
}

// Decode implements the web.Decoder interface.
func (app *Rejection) Decode(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, app)
}
