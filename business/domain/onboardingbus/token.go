package onboardingbus

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/foundation/otel"
)

// tokenBytes is the entropy of an onboarding token.
const tokenBytes = 32

// Issue returns a fresh onboarding token and its expiry.
func (c *Core) Issue() (string, time.Time, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, fmt.Errorf("rand: %w", err)
	}

	return hex.EncodeToString(b), c.now().Add(c.tokenTTL), nil
}

// Validate returns the user holding token while the token is live. Unknown,
// expired and already used tokens are indistinguishable: all of them return
// ErrInvalidToken.
func (c *Core) Validate(ctx context.Context, token string) (userbus.User, error) {
	ctx, span := otel.AddSpan(ctx, "business.onboardingbus.validate")
	defer span.End()

	if token == "" {
		return userbus.User{}, ErrInvalidToken
	}

	users, err := c.userBus.Query(ctx, c.liveToken(token), userbus.DefaultOrderBy, page.MustParse("1", "1"))
	if err != nil {
		return userbus.User{}, fmt.Errorf("query: %w", err)
	}

	if len(users) == 0 {
		return userbus.User{}, ErrInvalidToken
	}

	return users[0], nil
}

// Consume spends token to complete the profile of its holder. Only one of
// several concurrent calls with the same token succeeds.
func (c *Core) Consume(ctx context.Context, token string, cp CompleteProfile) (userbus.User, error) {
	ctx, span := otel.AddSpan(ctx, "business.onboardingbus.consume")
	defer span.End()

	usr, err := c.Validate(ctx, token)
	if err != nil {
		return userbus.User{}, err
	}

	next := status.PendingApproval
	pw := cp.Password

	uu := userbus.UpdateUser{
		About:          &cp.About,
		Position:       &cp.Position,
		BloodGroup:     &cp.BloodGroup,
		ProfilePicture: cp.ProfilePicture,
		Password:       &pw,
		Status:         &next,
	}

	usr, err = c.userBus.UpdateWhere(ctx, usr, uu, c.liveToken(token))
	if err != nil {
		if errors.Is(err, userbus.ErrStale) {
			return userbus.User{}, ErrInvalidToken
		}
		return userbus.User{}, fmt.Errorf("updatewhere: %w", err)
	}

	return usr, nil
}

// liveToken matches the user holding token while it is unexpired and unused.
func (c *Core) liveToken(token string) where.Clause {
	return where.And(
		where.Equals(userbus.FieldToken, token),
		where.GreaterThan(userbus.FieldTokenExpiry, c.now()),
		where.Equals(userbus.FieldStatus, status.PendingSetup),
	)
}
