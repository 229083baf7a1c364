package model

// Identity kinds.
const (
	IdentityAnonymous = "anonymous"
	IdentityUser      = "user"
)

// Identity describes who is making a request: an authenticated user or
// an anonymous browser tracked by a cookie token. It is injected into
// the request context by the identity middleware.
type Identity struct {
	Kind string
	// ID is the user ID for authenticated identities and the anonymous
	// cookie token otherwise.
	ID    string
	Email string
	Tier  string
}

// IsAuthenticated reports whether the identity belongs to a signed-in user.
func (i *Identity) IsAuthenticated() bool {
	return i.Kind == IdentityUser
}

// Quota returns the daily quota configuration for this identity.
func (i *Identity) Quota() QuotaConfig {
	if i.Kind == IdentityAnonymous {
		return TierQuotas[TierAnonymous]
	}
	return QuotaForTier(i.Tier)
}

// LedgerKey returns the usage ledger key component for this identity.
// Anonymous and user ledgers live in separate keyspaces.
func (i *Identity) LedgerKey() string {
	if i.Kind == IdentityAnonymous {
		return "anon:" + i.ID
	}
	return "user:" + i.ID
}
