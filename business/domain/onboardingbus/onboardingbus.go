// Package onboardingbus moves volunteers through onboarding. An invited user
// starts in pending_setup holding a single-use token, completes the profile
// with it to reach pending_approval, and is then approved (active) or
// rejected by an approver of one of its tenants.
package onboardingbus

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/mailer"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/actions"
	"github.com/nssmahe/portal/business/types/resource"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/business/types/tenantrole"
	"github.com/nssmahe/portal/foundation/logger"
	"github.com/nssmahe/portal/foundation/otel"
)

// Set of error variables for onboarding operations.
var (
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrMissingCredential   = errors.New("password is required")
	ErrNotPendingApproval  = errors.New("user is not pending approval")
	ErrNotifyFailed        = errors.New("failed to send onboarding email")
	ErrInstitutionalDomain = errors.New("institutional email domain is not allowed")
	ErrForbidden           = accessbus.ErrForbidden
)

// DefaultTokenTTL is how long an onboarding token stays valid.
const DefaultTokenTTL = 120 * time.Hour

// DefaultInstitutionalDomains are the e-mail domains invitations may be sent to.
var DefaultInstitutionalDomains = []string{"learner.manipal.edu", "manipal.edu"}

// Config holds the dependencies of the onboarding core.
type Config struct {
	Log                  *logger.Logger
	UserBus              *userbus.Core
	TenantBus            *tenantbus.Core
	Access               *accessbus.Core
	Sender               mailer.Sender
	PublicURL            string
	TokenTTL             time.Duration
	InstitutionalDomains []string
	Now                  func() time.Time
}

// Core manages the set of APIs for onboarding.
type Core struct {
	log       *logger.Logger
	userBus   *userbus.Core
	tenantBus *tenantbus.Core
	access    *accessbus.Core
	sender    mailer.Sender
	publicURL string
	tokenTTL  time.Duration
	domains   map[string]struct{}
	now       func() time.Time
}

// NewCore constructs an onboarding core.
func NewCore(cfg Config) *Core {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	domains := make(map[string]struct{}, len(cfg.InstitutionalDomains))
	for _, d := range cfg.InstitutionalDomains {
		domains[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))] = struct{}{}
	}

	return &Core{
		log:       cfg.Log,
		userBus:   cfg.UserBus,
		tenantBus: cfg.TenantBus,
		access:    cfg.Access,
		sender:    cfg.Sender,
		publicURL: cfg.PublicURL,
		tokenTTL:  ttl,
		domains:   domains,
		now:       now,
	}
}

// Invite creates a pending_setup volunteer in the tenant and mails the
// onboarding link to the institutional address. When the mail cannot be
// delivered the user is removed again and ErrNotifyFailed is returned.
func (c *Core) Invite(ctx context.Context, actor *userbus.User, np NewPending) (userbus.User, error) {
	ctx, span := otel.AddSpan(ctx, "business.onboardingbus.invite")
	defer span.End()

	if err := c.checkDomain(np.InstitutionalEmail); err != nil {
		return userbus.User{}, err
	}

	target := userbus.User{Tenants: []userbus.Membership{{TenantID: np.TenantID}}}
	req := accessbus.Request{Principal: actor, Action: actions.Create, Resource: resource.User}
	if err := c.access.Check(ctx, req, target); err != nil {
		return userbus.User{}, fmt.Errorf("tenant[%s]: %w", np.TenantID, err)
	}

	tenant, err := c.tenantBus.QueryByID(ctx, np.TenantID)
	if err != nil {
		return userbus.User{}, fmt.Errorf("tenant: %w", err)
	}

	switch _, err := c.userBus.QueryByEmail(ctx, np.Email); {
	case err == nil:
		return userbus.User{}, fmt.Errorf("email[%s]: %w", np.Email.Address, userbus.ErrUniqueEmail)
	case !errors.Is(err, userbus.ErrNotFound):
		return userbus.User{}, fmt.Errorf("querybyemail: %w", err)
	}

	token, expiry, err := c.Issue()
	if err != nil {
		return userbus.User{}, fmt.Errorf("issue: %w", err)
	}

	nu := userbus.NewUser{
		Name:               np.Name,
		Email:              np.Email,
		InstitutionalEmail: np.InstitutionalEmail,
		Tenants:            []userbus.Membership{{TenantID: tenant.ID, Role: tenantrole.UnitVolunteer}},
		Status:             status.PendingSetup,
		OnboardingToken:    &token,
		TokenExpiry:        &expiry,
	}

	usr, err := c.userBus.Create(ctx, nu)
	if err != nil {
		return userbus.User{}, fmt.Errorf("create: %w", err)
	}

	msg, err := invitationEmail(np.InstitutionalEmail, invitation{
		Name: np.Name.String(),
		Unit: tenant.Name,
		URL:  onboardingURL(c.publicURL, token),
		Days: int(c.tokenTTL.Hours() / 24),
	})
	if err != nil {
		c.rollback(ctx, usr)
		return userbus.User{}, fmt.Errorf("%w: %w", ErrNotifyFailed, err)
	}

	if res := c.sender.Send(ctx, msg); !res.Success {
		c.rollback(ctx, usr)
		return userbus.User{}, fmt.Errorf("%w: %w", ErrNotifyFailed, res.Err)
	}

	c.log.Info(ctx, "onboarding: invited", "user_id", usr.ID, "tenant_id", tenant.ID, "expires", expiry)

	return usr, nil
}

// Complete finishes onboarding for the holder of token. The user moves to
// pending_approval and the token can never be used again.
func (c *Core) Complete(ctx context.Context, token string, cp CompleteProfile) (userbus.User, error) {
	ctx, span := otel.AddSpan(ctx, "business.onboardingbus.complete")
	defer span.End()

	if cp.Password.String() == "" {
		return userbus.User{}, ErrMissingCredential
	}

	usr, err := c.Consume(ctx, token, cp)
	if err != nil {
		return userbus.User{}, err
	}

	c.log.Info(ctx, "onboarding: completed", "user_id", usr.ID)

	return usr, nil
}

// Approve activates a user waiting for approval.
func (c *Core) Approve(ctx context.Context, actor *userbus.User, userID uuid.UUID) (userbus.User, error) {
	ctx, span := otel.AddSpan(ctx, "business.onboardingbus.approve")
	defer span.End()

	usr, err := c.decide(ctx, actor, userID, status.Active)
	if err != nil {
		return userbus.User{}, err
	}

	c.log.Info(ctx, "onboarding: approved", "user_id", usr.ID, "actor_id", actor.ID)

	return usr, nil
}

// Reject turns down a user waiting for approval and tells them why. A failed
// notification is logged and does not undo the rejection.
func (c *Core) Reject(ctx context.Context, actor *userbus.User, userID uuid.UUID, reason string) (userbus.User, error) {
	ctx, span := otel.AddSpan(ctx, "business.onboardingbus.reject")
	defer span.End()

	usr, err := c.decide(ctx, actor, userID, status.Rejected)
	if err != nil {
		return userbus.User{}, err
	}

	c.log.Info(ctx, "onboarding: rejected", "user_id", usr.ID, "actor_id", actor.ID)

	if usr.InstitutionalEmail.Address != "" {
		msg, err := rejectionEmail(usr.InstitutionalEmail, rejection{Name: usr.Name.String(), Reason: reason})
		if err != nil {
			c.log.Error(ctx, "onboarding: render rejection", "user_id", usr.ID, "err", err)
			return usr, nil
		}

		if res := c.sender.Send(ctx, msg); !res.Success {
			c.log.Error(ctx, "onboarding: notify rejection", "user_id", usr.ID, "err", res.Err)
		}
	}

	return usr, nil
}

// ListPending returns the users waiting for a decision the actor can make.
// An actor that approves for no tenant gets ErrForbidden, not an empty list.
func (c *Core) ListPending(ctx context.Context, actor *userbus.User, pg page.Page) (Pending, error) {
	ctx, span := otel.AddSpan(ctx, "business.onboardingbus.listpending")
	defer span.End()

	g := c.access.Decide(ctx, accessbus.Request{Principal: actor, Action: actions.Approve, Resource: resource.User})
	if g.IsDenied() {
		return Pending{}, ErrForbidden
	}

	filter := g.Scope(where.Equals(userbus.FieldStatus, status.PendingApproval))

	users, err := c.userBus.Query(ctx, filter, userbus.DefaultOrderBy, pg)
	if err != nil {
		return Pending{}, fmt.Errorf("query: %w", err)
	}

	total, err := c.userBus.Count(ctx, filter)
	if err != nil {
		return Pending{}, fmt.Errorf("count: %w", err)
	}

	return Pending{Users: users, Total: total}, nil
}

// =============================================================================

// decide moves a pending_approval user to next. The state check comes before
// the permission check and the write is conditional on the state, so a user
// already decided by someone else is reported as not pending.
func (c *Core) decide(ctx context.Context, actor *userbus.User, userID uuid.UUID, next status.Status) (userbus.User, error) {
	usr, err := c.userBus.QueryByID(ctx, userID)
	if err != nil {
		return userbus.User{}, fmt.Errorf("query: %w", err)
	}

	if !usr.Status.Equal(status.PendingApproval) {
		return userbus.User{}, fmt.Errorf("status[%s]: %w", usr.Status, ErrNotPendingApproval)
	}

	req := accessbus.Request{Principal: actor, Action: actions.Approve, Resource: resource.User, TargetID: userID}
	if err := c.access.Check(ctx, req, usr); err != nil {
		return userbus.User{}, fmt.Errorf("user[%s]: %w", userID, err)
	}

	uu := userbus.UpdateUser{Status: &next}

	usr, err = c.userBus.UpdateWhere(ctx, usr, uu, where.Equals(userbus.FieldStatus, status.PendingApproval))
	if err != nil {
		if errors.Is(err, userbus.ErrStale) {
			return userbus.User{}, ErrNotPendingApproval
		}
		return userbus.User{}, fmt.Errorf("updatewhere: %w", err)
	}

	return usr, nil
}

func (c *Core) rollback(ctx context.Context, usr userbus.User) {
	if err := c.userBus.Delete(ctx, usr); err != nil {
		c.log.Error(ctx, "onboarding: rollback invite", "user_id", usr.ID, "err", err)
	}
}

func (c *Core) checkDomain(addr mail.Address) error {
	if len(c.domains) == 0 {
		return nil
	}

	at := strings.LastIndex(addr.Address, "@")
	if at < 0 {
		return ErrInstitutionalDomain
	}

	if _, exists := c.domains[strings.ToLower(addr.Address[at+1:])]; !exists {
		return fmt.Errorf("domain[%s]: %w", addr.Address[at+1:], ErrInstitutionalDomain)
	}

	return nil
}
