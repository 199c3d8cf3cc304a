package accessbus

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/nssmahe/portal/business/types/actions"
	"github.com/nssmahe/portal/business/types/resource"
	"github.com/nssmahe/portal/business/types/tenantrole"
)

const casbinModel = `
[request_definition]
r = role, obj, act

[policy_definition]
p = role, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.role == p.role && r.obj == p.obj && r.act == p.act
`

// Rule states that a tenant role may perform act on res inside its tenant.
type Rule struct {
	Role     tenantrole.Role
	Resource resource.Resource
	Action   actions.Action
}

// DefaultRules returns the role table of the portal.
func DefaultRules() []Rule {
	var rules []Rule

	add := func(res resource.Resource, act actions.Action, roles ...tenantrole.Role) {
		for _, r := range roles {
			rules = append(rules, Rule{Role: r, Resource: res, Action: act})
		}
	}

	add(resource.Tenant, actions.Update, tenantrole.AdminEquivalent...)
	add(resource.Tenant, actions.Delete, tenantrole.AdminEquivalent...)

	add(resource.User, actions.Create, tenantrole.AdminEquivalent...)
	add(resource.User, actions.Read, tenantrole.AdminEquivalent...)
	add(resource.User, actions.Update, tenantrole.AdminEquivalent...)
	add(resource.User, actions.Delete, tenantrole.AdminEquivalent...)
	add(resource.User, actions.Approve, tenantrole.Approvers...)

	add(resource.Media, actions.Create, tenantrole.All()...)
	add(resource.Media, actions.Read, tenantrole.All()...)
	add(resource.Media, actions.Update, tenantrole.All()...)
	add(resource.Media, actions.Delete, tenantrole.AdminEquivalent...)

	add(resource.Page, actions.Update, tenantrole.AdminEquivalent...)

	return rules
}

// Policy answers which tenant roles satisfy a resource and action pair.
type Policy struct {
	enforcer *casbin.Enforcer
}

// NewPolicy constructs a policy holding rules.
func NewPolicy(rules []Rule) (*Policy, error) {
	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	if len(rules) > 0 {
		ps := make([][]string, len(rules))
		for i, r := range rules {
			ps[i] = []string{r.Role.String(), r.Resource.String(), r.Action.String()}
		}

		if _, err := e.AddPolicies(ps); err != nil {
			return nil, fmt.Errorf("add policies: %w", err)
		}
	}

	return &Policy{enforcer: e}, nil
}

// LoadPolicyFile constructs a policy from a casbin CSV file with lines of
// the form "p, unit-head, USER, APPROVE".
func LoadPolicyFile(path string) (*Policy, error) {
	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, fileadapter.NewAdapter(path))
	if err != nil {
		return nil, fmt.Errorf("create enforcer: path[%s]: %w", path, err)
	}

	rules, err := e.GetPolicy()
	if err != nil {
		return nil, fmt.Errorf("get policy: %w", err)
	}

	for _, p := range rules {
		if len(p) != 3 {
			return nil, fmt.Errorf("malformed rule %v", p)
		}
		if _, err := tenantrole.Parse(p[0]); err != nil {
			return nil, err
		}
		if _, err := resource.Parse(p[1]); err != nil {
			return nil, err
		}
		if _, err := actions.Parse(p[2]); err != nil {
			return nil, err
		}
	}

	return &Policy{enforcer: e}, nil
}

// Roles returns the tenant roles allowed to perform act on res.
func (p *Policy) Roles(res resource.Resource, act actions.Action) ([]tenantrole.Role, error) {
	var roles []tenantrole.Role

	for _, r := range tenantrole.All() {
		ok, err := p.enforcer.Enforce(r.String(), res.String(), act.String())
		if err != nil {
			return nil, fmt.Errorf("enforce: %w", err)
		}
		if ok {
			roles = append(roles, r)
		}
	}

	return roles, nil
}
