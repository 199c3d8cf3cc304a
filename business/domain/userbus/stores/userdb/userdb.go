// Package userdb contains user related CRUD functionality.
package userdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/order"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/sqldb"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/foundation/logger"
)

const selectUser = `
	SELECT
		u.user_id, u.name, u.email, u.institutional_email, u.about, u.position, u.blood_group,
		u.profile_picture, u.roles, u.password_hash, u.onboarding_token, u.token_expiry,
		u.status, u.created_at, u.updated_at
	FROM
		"public"."users" AS u`

// Store manages the set of APIs for user database access.
type Store struct {
	log *logger.Logger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db sqlx.ExtContext) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// Create inserts a new user and its tenant memberships in a single statement.
func (s *Store) Create(ctx context.Context, usr userbus.User) error {
	const q = `
	WITH new_user AS (
		INSERT INTO "public"."users"
			(user_id, name, email, institutional_email, about, position, blood_group, profile_picture,
			roles, password_hash, onboarding_token, token_expiry, status, created_at, updated_at)
		VALUES
			(:user_id, :name, :email, :institutional_email, :about, :position, :blood_group, :profile_picture,
			:roles, :password_hash, :onboarding_token, :token_expiry, :status, :created_at, :updated_at)
		RETURNING user_id
	)
	INSERT INTO "public"."user_tenants"
		(user_id, tenant_id, role, ord)
	SELECT
		nu.user_id, m.tenant_id, m.role, m.ord
	FROM
		new_user AS nu
	CROSS JOIN
		unnest(CAST(:tenant_ids AS uuid[]), CAST(:tenant_roles AS text[])) WITH ORDINALITY AS m(tenant_id, role, ord)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBUser(usr).params(usr.Tenants)); err != nil {
		return mapWriteError(err)
	}

	return nil
}

// Update replaces a user row and reconciles its tenant memberships in a
// single statement.
func (s *Store) Update(ctx context.Context, usr userbus.User) error {
	const q = `
	WITH upd AS (
		UPDATE
			"public"."users"
		SET
			name = :name,
			email = :email,
			institutional_email = :institutional_email,
			about = :about,
			position = :position,
			blood_group = :blood_group,
			profile_picture = :profile_picture,
			roles = :roles,
			password_hash = :password_hash,
			onboarding_token = :onboarding_token,
			token_expiry = :token_expiry,
			status = :status,
			updated_at = :updated_at
		WHERE
			user_id = :user_id
		RETURNING user_id
	), del AS (
		DELETE FROM
			"public"."user_tenants"
		WHERE
			user_id = :user_id AND NOT (tenant_id = ANY(CAST(:tenant_ids AS uuid[])))
	)
	INSERT INTO "public"."user_tenants"
		(user_id, tenant_id, role, ord)
	SELECT
		upd.user_id, m.tenant_id, m.role, m.ord
	FROM
		upd
	CROSS JOIN
		unnest(CAST(:tenant_ids AS uuid[]), CAST(:tenant_roles AS text[])) WITH ORDINALITY AS m(tenant_id, role, ord)
	ON CONFLICT (user_id, tenant_id) DO UPDATE SET
		role = EXCLUDED.role,
		ord = EXCLUDED.ord`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBUser(usr).params(usr.Tenants)); err != nil {
		return mapWriteError(err)
	}

	return nil
}

// UpdateWhere replaces the user row only while the stored row still matches
// cond. The check and the write are one statement so concurrent callers
// cannot both succeed.
func (s *Store) UpdateWhere(ctx context.Context, usr userbus.User, cond where.Clause) error {
	data := toDBUser(usr).params(nil)

	const q = `
	UPDATE
		"public"."users" AS u
	SET
		name = :name,
		email = :email,
		institutional_email = :institutional_email,
		about = :about,
		position = :position,
		blood_group = :blood_group,
		profile_picture = :profile_picture,
		roles = :roles,
		password_hash = :password_hash,
		onboarding_token = :onboarding_token,
		token_expiry = :token_expiry,
		status = :status,
		updated_at = :updated_at
	WHERE
		u.user_id = :user_id`

	buf := bytes.NewBufferString(q)

	clause, err := where.SQL(cond, columns, data)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	buf.WriteString(" AND ")
	buf.WriteString(clause)

	if err := sqldb.NamedExecContextAffected(ctx, s.log, s.db, buf.String(), data); err != nil {
		if errors.Is(err, sqldb.ErrNoRowsAffected) {
			return fmt.Errorf("namedexeccontext: %w", userbus.ErrStale)
		}
		return mapWriteError(err)
	}

	return nil
}

// Delete removes a user from the database. Memberships cascade.
func (s *Store) Delete(ctx context.Context, usr userbus.User) error {
	data := struct {
		ID uuid.UUID `db:"user_id"`
	}{
		ID: usr.ID,
	}

	const q = `
	DELETE FROM
		"public"."users"
	WHERE
		user_id = :user_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Query retrieves a list of existing users from the database.
func (s *Store) Query(ctx context.Context, filter where.Clause, orderBy order.By, page page.Page) ([]userbus.User, error) {
	data := map[string]any{
		"offset":        page.Offset(),
		"rows_per_page": page.RowsPerPage(),
	}

	buf := bytes.NewBufferString(selectUser)
	if err := applyFilter(filter, data, buf); err != nil {
		return nil, err
	}

	orderByClause, err := orderByClause(orderBy)
	if err != nil {
		return nil, err
	}

	buf.WriteString(orderByClause)
	buf.WriteString(" OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY")

	var dbUsrs []userDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, buf.String(), data, &dbUsrs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return s.toBusUsers(ctx, dbUsrs)
}

// Count returns the total number of users in the DB.
func (s *Store) Count(ctx context.Context, filter where.Clause) (int, error) {
	data := map[string]any{}

	const q = `
	SELECT
		count(1)
	FROM
		"public"."users" AS u`

	buf := bytes.NewBufferString(q)
	if err := applyFilter(filter, data, buf); err != nil {
		return 0, err
	}

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, buf.String(), data, &count); err != nil {
		return 0, fmt.Errorf("db: %w", err)
	}

	return count.Count, nil
}

// QueryByID gets the specified user from the database.
func (s *Store) QueryByID(ctx context.Context, userID uuid.UUID) (userbus.User, error) {
	data := struct {
		ID string `db:"user_id"`
	}{
		ID: userID.String(),
	}

	q := selectUser + `
	WHERE
		u.user_id = :user_id`

	return s.queryOne(ctx, q, data)
}

// QueryByEmail gets the specified user from the database by email.
func (s *Store) QueryByEmail(ctx context.Context, email mail.Address) (userbus.User, error) {
	data := struct {
		Email string `db:"email"`
	}{
		Email: email.Address,
	}

	q := selectUser + `
	WHERE
		lower(u.email) = lower(:email)`

	return s.queryOne(ctx, q, data)
}

// =============================================================================

func (s *Store) queryOne(ctx context.Context, q string, data any) (userbus.User, error) {
	var dbUsr userDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbUsr); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return userbus.User{}, fmt.Errorf("db: %w", userbus.ErrNotFound)
		}
		return userbus.User{}, fmt.Errorf("db: %w", err)
	}

	usrs, err := s.toBusUsers(ctx, []userDB{dbUsr})
	if err != nil {
		return userbus.User{}, err
	}

	return usrs[0], nil
}

func (s *Store) memberships(ctx context.Context, userIDs []string) (map[uuid.UUID][]membershipDB, error) {
	data := map[string]any{
		"user_ids": pq.StringArray(userIDs),
	}

	const q = `
	SELECT
		user_id, tenant_id, role
	FROM
		"public"."user_tenants"
	WHERE
		user_id = ANY(CAST(:user_ids AS uuid[]))
	ORDER BY
		user_id, ord`

	var dbMems []membershipDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbMems); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	byUser := make(map[uuid.UUID][]membershipDB)
	for _, m := range dbMems {
		byUser[m.UserID] = append(byUser[m.UserID], m)
	}

	return byUser, nil
}

func (s *Store) toBusUsers(ctx context.Context, dbs []userDB) ([]userbus.User, error) {
	if len(dbs) == 0 {
		return []userbus.User{}, nil
	}

	ids := make([]string, len(dbs))
	for i, db := range dbs {
		ids[i] = db.ID.String()
	}

	mems, err := s.memberships(ctx, ids)
	if err != nil {
		return nil, err
	}

	bus := make([]userbus.User, len(dbs))
	for i, db := range dbs {
		bus[i], err = toBusUser(db, mems[db.ID])
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}

func mapWriteError(err error) error {
	var dupErr sqldb.ErrDBDuplicatedEntry
	if errors.As(err, &dupErr) {
		switch dupErr.Column {
		case "users_email_key":
			return fmt.Errorf("namedexeccontext: %w", userbus.ErrUniqueEmail)
		case "users_onboarding_token_key":
			return fmt.Errorf("namedexeccontext: %w", userbus.ErrUniqueToken)
		case "user_tenants_pkey":
			return fmt.Errorf("namedexeccontext: %w", userbus.ErrDuplicateMembership)
		}
	}

	return fmt.Errorf("namedexeccontext: %w", err)
}
