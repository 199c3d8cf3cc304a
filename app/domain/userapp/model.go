package userapp

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/types/bloodgroup"
	"github.com/nssmahe/portal/business/types/name"
	"github.com/nssmahe/portal/business/types/password"
	"github.com/nssmahe/portal/business/types/role"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/business/types/tenantrole"
)

// Membership is a tenant role of a user.
type Membership struct {
	TenantID string `json:"tenantId" validate:"required,uuid"`
	Role     string `json:"role" validate:"required"`
}

// User represents information about an individual user.
type User struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Email              string       `json:"email"`
	InstitutionalEmail string       `json:"institutionalEmail"`
	About              string       `json:"about"`
	Position           string       `json:"position"`
	BloodGroup         string       `json:"bloodGroup,omitempty"`
	ProfilePicture     string       `json:"profilePicture,omitempty"`
	Roles              []string     `json:"roles"`
	Tenants            []Membership `json:"tenants"`
	Status             string       `json:"status"`
	DateCreated        string       `json:"dateCreated"`
	DateUpdated        string       `json:"dateUpdated"`
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

	var picture string
	if bus.ProfilePicture != nil {
		picture = bus.ProfilePicture.String()
	}

	return User{
		ID:                 bus.ID.String(),
		Name:               bus.Name.String(),
		Email:              bus.Email.Address,
		InstitutionalEmail: bus.InstitutionalEmail.Address,
		About:              bus.About,
		Position:           bus.Position,
		BloodGroup:         bg,
		ProfilePicture:     picture,
		Roles:              role.ParseToString(bus.Roles),
		Tenants:            tenants,
		Status:             bus.Status.String(),
		DateCreated:        bus.CreatedAt.Format(time.RFC3339),
		DateUpdated:        bus.UpdatedAt.Format(time.RFC3339),
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

// UpdateUser defines the data needed to update a user. Status, Roles and
// Tenants are administrative fields.
type UpdateUser struct {
	Name               *string      `json:"name"`
	Email              *string      `json:"email" validate:"omitempty,email"`
	InstitutionalEmail *string      `json:"institutionalEmail" validate:"omitempty,email"`
	About              *string      `json:"about"`
	Position           *string      `json:"position"`
	BloodGroup         *string      `json:"bloodGroup"`
	ProfilePicture     *string      `json:"profilePicture" validate:"omitempty,uuid"`
	Password           *string      `json:"password"`
	PasswordConfirm    *string      `json:"passwordConfirm" validate:"omitempty,eqfield=Password"`
	Status             *string      `json:"status"`
	Roles              []string     `json:"roles"`
	Tenants            []Membership `json:"tenants" validate:"omitempty,dive"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateUser) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateUser) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusUpdateUser(app UpdateUser) (userbus.UpdateUser, error) {
	var uu userbus.UpdateUser

	if app.Name != nil {
		nme, err := name.Parse(*app.Name)
		if err != nil {
			return userbus.UpdateUser{}, fmt.Errorf("parse name: %w", err)
		}
		uu.Name = &nme
	}

	if app.Email != nil {
		addr, err := mail.ParseAddress(*app.Email)
		if err != nil {
			return userbus.UpdateUser{}, fmt.Errorf("parse email: %w", err)
		}
		uu.Email = addr
	}

	if app.InstitutionalEmail != nil {
		addr, err := mail.ParseAddress(*app.InstitutionalEmail)
		if err != nil {
			return userbus.UpdateUser{}, fmt.Errorf("parse institutional email: %w", err)
		}
		uu.InstitutionalEmail = addr
	}

	uu.About = app.About
	uu.Position = app.Position

	if app.BloodGroup != nil {
		bg, err := bloodgroup.ParseNull(*app.BloodGroup)
		if err != nil {
			return userbus.UpdateUser{}, fmt.Errorf("parse blood group: %w", err)
		}
		uu.BloodGroup = &bg
	}

	if app.ProfilePicture != nil {
		id, err := uuid.Parse(*app.ProfilePicture)
		if err != nil {
			return userbus.UpdateUser{}, fmt.Errorf("parse profile picture: %w", err)
		}
		uu.ProfilePicture = &id
	}

	if app.Password != nil {
		pw, err := password.Parse(*app.Password)
		if err != nil {
			return userbus.UpdateUser{}, fmt.Errorf("parse password: %w", err)
		}
		uu.Password = &pw
	}

	if app.Status != nil {
		st, err := status.Parse(*app.Status)
		if err != nil {
			return userbus.UpdateUser{}, fmt.Errorf("parse status: %w", err)
		}
		uu.Status = &st
	}

	if app.Roles != nil {
		roles, err := role.ParseMany(app.Roles)
		if err != nil {
			return userbus.UpdateUser{}, fmt.Errorf("parse roles: %w", err)
		}
		uu.Roles = roles
	}

	if app.Tenants != nil {
		ms := make([]userbus.Membership, len(app.Tenants))
		for i, m := range app.Tenants {
			tenantID, err := uuid.Parse(m.TenantID)
			if err != nil {
				return userbus.UpdateUser{}, fmt.Errorf("parse tenant id: %w", err)
			}

			r, err := tenantrole.Parse(m.Role)
			if err != nil {
				return userbus.UpdateUser{}, fmt.Errorf("parse tenant role: %w", err)
			}

			ms[i] = userbus.Membership{TenantID: tenantID, Role: r}
		}
		uu.Tenants = ms
	}

	return uu, nil
}
