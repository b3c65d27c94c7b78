package guard

// Public paths reachable without a session
const (
	PathHome           = "/"
	PathLogin          = "/login"
	PathRegistration   = "/registration"
	PathForgotPassword = "/forgot-password"
	PathAuthLoading    = "/auth-loading"
	PathPublicPlans    = "/planos-publicos"
	PathReferrals      = "/indicacoes"
)

// Policy is the static set of public paths. Matching is exact: "/login/x" is
// protected even though "/login" is public.
type Policy struct {
	public map[string]struct{}
}

func NewPolicy(publicPaths ...string) Policy {
	p := Policy{public: make(map[string]struct{}, len(publicPaths))}
	for _, path := range publicPaths {
		p.public[path] = struct{}{}
	}
	return p
}

// DefaultPolicy returns the dashboard's public route set
func DefaultPolicy() Policy {
	return NewPolicy(
		PathHome,
		PathLogin,
		PathRegistration,
		PathForgotPassword,
		PathAuthLoading,
		PathPublicPlans,
		PathReferrals,
	)
}

func (p Policy) IsPublic(path string) bool {
	_, ok := p.public[path]
	return ok
}
