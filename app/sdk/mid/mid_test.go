package mid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/unitest"
	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/nssmahe/portal/business/types/actions"
	"github.com/nssmahe/portal/business/types/resource"
	"github.com/nssmahe/portal/business/types/role"
	"github.com/nssmahe/portal/business/types/slug"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/business/types/tenantrole"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(ctx context.Context, r *http.Request) web.Encoder {
	return nil
}

func code(t *testing.T, resp web.Encoder) errs.ErrCode {
	t.Helper()

	var appErr *errs.Error
	require.True(t, errors.As(resp.(error), &appErr), "expected *errs.Error, got %T", resp)

	return appErr.Code
}

func Test_RateLimit(t *testing.T) {
	h := RateLimit(0.001, 2)(ok)

	call := func(ip string) web.Encoder {
		r := httptest.NewRequest(http.MethodGet, "/v1/users/validate-token/x", nil)
		r.RemoteAddr = ip + ":5000"
		return h(context.Background(), r)
	}

	assert.Nil(t, call("10.0.0.1"))
	assert.Nil(t, call("10.0.0.1"))
	assert.Equal(t, errs.TooManyRequests, code(t, call("10.0.0.1")))

	assert.Nil(t, call("10.0.0.2"), "buckets are per client")
}

func Test_RateLimitForwardedFor(t *testing.T) {
	call := func(h web.HandlerFunc, peer string, xff string) web.Encoder {
		r := httptest.NewRequest(http.MethodPost, "/v1/users/complete-onboarding", nil)
		r.RemoteAddr = peer + ":5000"
		r.Header.Set("X-Forwarded-For", xff)
		return h(context.Background(), r)
	}

	t.Run("untrusted-peer", func(t *testing.T) {
		h := RateLimit(0.001, 2)(ok)

		var limited int
		for i := range 100 {
			if call(h, "10.0.0.1", fmt.Sprintf("1.2.3.%d", i)) != nil {
				limited++
			}
		}

		assert.Equal(t, 98, limited, "rotating the header does not open new buckets")
	})

	t.Run("trusted-proxy", func(t *testing.T) {
		h := RateLimit(0.001, 1, netip.MustParsePrefix("10.0.0.0/8"))(ok)

		assert.Nil(t, call(h, "10.0.0.1", "203.0.113.7"))
		assert.Equal(t, errs.TooManyRequests, code(t, call(h, "10.0.0.2", "203.0.113.7")), "same client behind two proxies")
		assert.Nil(t, call(h, "10.0.0.1", "203.0.113.8"))
	})

	t.Run("right-most-untrusted-hop", func(t *testing.T) {
		h := RateLimit(0.001, 1, netip.MustParsePrefix("10.0.0.0/8"))(ok)

		assert.Nil(t, call(h, "10.0.0.1", "198.51.100.1, 203.0.113.9, 10.1.1.1"))
		assert.Equal(t, errs.TooManyRequests, code(t, call(h, "10.0.0.1", "198.51.100.2, 203.0.113.9, 10.1.1.1")), "spoofed left-most hop is ignored")
	})
}

func Test_LimiterSweep(t *testing.T) {
	l := limiter{buckets: make(map[string]*bucket), perSecond: 1, burst: 1}

	now := time.Now()
	l.allow("a", now)
	l.allow("b", now.Add(4*time.Minute))
	assert.Len(t, l.buckets, 2)

	l.allow("c", now.Add(8*time.Minute))
	assert.Len(t, l.buckets, 2, "idle bucket a is evicted")
	assert.NotContains(t, l.buckets, "a")
}

func Test_Authorize(t *testing.T) {
	policy, err := accessbus.NewPolicy(accessbus.DefaultRules())
	require.NoError(t, err)

	access := accessbus.NewCore(unitest.Logger(), policy)

	tenantID := uuid.New()
	volunteer := userbus.User{
		ID:      uuid.New(),
		Roles:   []role.Role{role.User},
		Tenants: []userbus.Membership{{TenantID: tenantID, Role: tenantrole.UnitVolunteer}},
		Status:  status.Active,
	}

	var got accessbus.Grant
	capture := func(ctx context.Context, r *http.Request) web.Encoder {
		g, err := GetGrant(ctx)
		require.NoError(t, err)
		got = g
		return nil
	}

	t.Run("anonymous-denied", func(t *testing.T) {
		h := Authorize(access, resource.User, actions.Read, "")(capture)
		resp := h(context.Background(), httptest.NewRequest(http.MethodGet, "/v1/users", nil))
		assert.Equal(t, errs.Unauthenticated, code(t, resp))
	})

	t.Run("volunteer-approve-forbidden", func(t *testing.T) {
		h := Authorize(access, resource.User, actions.Approve, "")(capture)
		ctx := setUser(context.Background(), volunteer)
		resp := h(ctx, httptest.NewRequest(http.MethodGet, "/v1/users/pending-users", nil))
		assert.Equal(t, errs.PermissionDenied, code(t, resp))
	})

	t.Run("anonymous-page-read", func(t *testing.T) {
		h := Authorize(access, resource.Page, actions.Read, "")(capture)
		resp := h(context.Background(), httptest.NewRequest(http.MethodGet, "/v1/pages", nil))
		require.Nil(t, resp)

		f, ok := got.Filter()
		assert.True(t, ok)
		assert.Equal(t, "tenant_public = true", f.String())
	})

	t.Run("self-read", func(t *testing.T) {
		h := Authorize(access, resource.User, actions.Read, "user_id")(capture)

		r := httptest.NewRequest(http.MethodGet, "/v1/users/"+volunteer.ID.String(), nil)
		r.SetPathValue("user_id", volunteer.ID.String())

		resp := h(setUser(context.Background(), volunteer), r)
		require.Nil(t, resp)
		assert.True(t, got.IsAllowedAll())
	})

	t.Run("bad-id", func(t *testing.T) {
		h := Authorize(access, resource.User, actions.Read, "user_id")(capture)

		r := httptest.NewRequest(http.MethodGet, "/v1/users/abc", nil)
		r.SetPathValue("user_id", "abc")

		resp := h(setUser(context.Background(), volunteer), r)
		assert.Equal(t, errs.InvalidArgument, code(t, resp))
	})
}

func Test_SelectedTenant(t *testing.T) {
	domain := "mit.nssmahe.edu"
	tenant := tenantbus.Tenant{ID: uuid.New(), Name: "MIT", Slug: slug.MustParse("mit"), Domain: &domain}

	tenantBus := tenantbus.NewCore(unitest.Logger(), unitest.NewTenantStore(tenant))

	var got uuid.UUID
	h := SelectedTenant(unitest.Logger(), tenantBus)(func(ctx context.Context, r *http.Request) web.Encoder {
		got = GetSelectedTenant(ctx)
		return nil
	})

	t.Run("cookie", func(t *testing.T) {
		id := uuid.New()
		r := httptest.NewRequest(http.MethodGet, "/v1/pages", nil)
		r.AddCookie(&http.Cookie{Name: TenantCookie, Value: id.String()})

		h(context.Background(), r)
		assert.Equal(t, id, got)
	})

	t.Run("host", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/pages", nil)
		r.Host = "MIT.nssmahe.edu:443"

		h(context.Background(), r)
		assert.Equal(t, tenant.ID, got)
	})

	t.Run("none", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/pages", nil)
		r.Host = "elsewhere.org"
		r.AddCookie(&http.Cookie{Name: TenantCookie, Value: "not-a-uuid"})

		h(context.Background(), r)
		assert.Equal(t, uuid.Nil, got)
	})
}

func Test_Errors(t *testing.T) {
	log := unitest.Logger()

	t.Run("internal-only-log-hidden", func(t *testing.T) {
		h := Errors(log)(func(ctx context.Context, r *http.Request) web.Encoder {
			return errs.Errorf(errs.InternalOnlyLog, "db password is hunter2")
		})

		resp := h(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
		appErr := resp.(*errs.Error)
		assert.Equal(t, errs.Internal, appErr.Code)
		assert.Equal(t, "Internal Server Error", appErr.Message)
	})

	t.Run("app-error-kept", func(t *testing.T) {
		h := Errors(log)(func(ctx context.Context, r *http.Request) web.Encoder {
			return errs.New(errs.InvalidToken, errors.New("invalid or expired token"))
		})

		resp := h(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
		appErr := resp.(*errs.Error)
		assert.Equal(t, errs.InvalidToken, appErr.Code)
		assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus())
	})
}

func Test_Panics(t *testing.T) {
	h := Panics()(func(ctx context.Context, r *http.Request) web.Encoder {
		panic("boom")
	})

	resp := h(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, errs.InternalOnlyLog, code(t, resp))
}
