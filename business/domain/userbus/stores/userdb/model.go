package userdb

import (
	"database/sql"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/types/bloodgroup"
	"github.com/nssmahe/portal/business/types/name"
	"github.com/nssmahe/portal/business/types/role"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/business/types/tenantrole"
)

type userDB struct {
	ID                 uuid.UUID      `db:"user_id"`
	Name               string         `db:"name"`
	Email              string         `db:"email"`
	InstitutionalEmail string         `db:"institutional_email"`
	About              string         `db:"about"`
	Position           string         `db:"position"`
	BloodGroup         sql.NullString `db:"blood_group"`
	ProfilePicture     uuid.NullUUID  `db:"profile_picture"`
	Roles              pq.StringArray `db:"roles"`
	PasswordHash       []byte         `db:"password_hash"`
	OnboardingToken    sql.NullString `db:"onboarding_token"`
	TokenExpiry        sql.NullTime   `db:"token_expiry"`
	Status             string         `db:"status"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

// params returns the named parameters of the user row along with the
// membership arrays used by the unnest based writes.
func (db userDB) params(tenants []userbus.Membership) map[string]any {
	ids := make([]string, len(tenants))
	roles := make([]string, len(tenants))
	for i, m := range tenants {
		ids[i] = m.TenantID.String()
		roles[i] = m.Role.String()
	}

	return map[string]any{
		"user_id":             db.ID,
		"name":                db.Name,
		"email":               db.Email,
		"institutional_email": db.InstitutionalEmail,
		"about":               db.About,
		"position":            db.Position,
		"blood_group":         db.BloodGroup,
		"profile_picture":     db.ProfilePicture,
		"roles":               db.Roles,
		"password_hash":       db.PasswordHash,
		"onboarding_token":    db.OnboardingToken,
		"token_expiry":        db.TokenExpiry,
		"status":              db.Status,
		"created_at":          db.CreatedAt,
		"updated_at":          db.UpdatedAt,
		"tenant_ids":          pq.StringArray(ids),
		"tenant_roles":        pq.StringArray(roles),
	}
}

func toDBUser(bus userbus.User) userDB {
	db := userDB{
		ID:                 bus.ID,
		Name:               bus.Name.String(),
		Email:              bus.Email.Address,
		InstitutionalEmail: bus.InstitutionalEmail.Address,
		About:              bus.About,
		Position:           bus.Position,
		BloodGroup:         bloodgroup.ToSQLNullString(bus.BloodGroup),
		Roles:              role.ParseToString(bus.Roles),
		PasswordHash:       bus.PasswordHash,
		Status:             bus.Status.String(),
		CreatedAt:          bus.CreatedAt.UTC(),
		UpdatedAt:          bus.UpdatedAt.UTC(),
	}

	if bus.ProfilePicture != nil {
		db.ProfilePicture = uuid.NullUUID{UUID: *bus.ProfilePicture, Valid: true}
	}

	if bus.OnboardingToken != nil {
		db.OnboardingToken = sql.NullString{String: *bus.OnboardingToken, Valid: true}
	}

	if bus.TokenExpiry != nil {
		db.TokenExpiry = sql.NullTime{Time: bus.TokenExpiry.UTC(), Valid: true}
	}

	return db
}

func toBusUser(db userDB, memberships []membershipDB) (userbus.User, error) {
	nme, err := name.Parse(db.Name)
	if err != nil {
		return userbus.User{}, fmt.Errorf("parse name: %w", err)
	}

	roles, err := role.ParseMany(db.Roles)
	if err != nil {
		return userbus.User{}, fmt.Errorf("parse roles: %w", err)
	}

	st, err := status.Parse(db.Status)
	if err != nil {
		return userbus.User{}, fmt.Errorf("parse status: %w", err)
	}

	bg, err := bloodgroup.ParseNull(db.BloodGroup.String)
	if err != nil {
		return userbus.User{}, fmt.Errorf("parse blood group: %w", err)
	}

	tenants := make([]userbus.Membership, 0, len(memberships))
	for _, m := range memberships {
		r, err := tenantrole.Parse(m.Role)
		if err != nil {
			return userbus.User{}, fmt.Errorf("parse tenant role: %w", err)
		}
		tenants = append(tenants, userbus.Membership{TenantID: m.TenantID, Role: r})
	}

	bus := userbus.User{
		ID:                 db.ID,
		Name:               nme,
		Email:              mail.Address{Address: db.Email},
		InstitutionalEmail: mail.Address{Address: db.InstitutionalEmail},
		About:              db.About,
		Position:           db.Position,
		BloodGroup:         bg,
		Roles:              roles,
		Tenants:            tenants,
		PasswordHash:       db.PasswordHash,
		Status:             st,
		CreatedAt:          db.CreatedAt.In(time.Local),
		UpdatedAt:          db.UpdatedAt.In(time.Local),
	}

	if db.ProfilePicture.Valid {
		id := db.ProfilePicture.UUID
		bus.ProfilePicture = &id
	}

	if db.OnboardingToken.Valid {
		tkn := db.OnboardingToken.String
		bus.OnboardingToken = &tkn
	}

	if db.TokenExpiry.Valid {
		exp := db.TokenExpiry.Time.In(time.Local)
		bus.TokenExpiry = &exp
	}

	return bus, nil
}

// =============================================================================

type membershipDB struct {
	UserID   uuid.UUID `db:"user_id"`
	TenantID uuid.UUID `db:"tenant_id"`
	Role     string    `db:"role"`
}
