package permission

import (
	"sort"
	"strings"

	"backoffice/internal/model"
	"backoffice/pkg/apperror"
)

// Capability keys checked by services and routes
const (
	CustomersRead   = "secondary.customers.read"
	CustomersWrite  = "secondary.customers.write"
	CustomersDelete = "secondary.customers.delete"

	ShippersRead   = "secondary.shippers.read"
	ShippersWrite  = "secondary.shippers.write"
	ShippersDelete = "secondary.shippers.delete"

	BanksRead   = "secondary.banks.read"
	BanksWrite  = "secondary.banks.write"
	BanksDelete = "secondary.banks.delete"

	FactoriesRead   = "secondary.factories.read"
	FactoriesWrite  = "secondary.factories.write"
	FactoriesDelete = "secondary.factories.delete"

	InvoiceReportsRead = "primary.invoices.invoices-reports.read"
)

// InvoiceKey returns the capability key for an action on an invoice kind,
// e.g. InvoiceKey("sample", "write") == "primary.invoices.sample-invoices.write".
func InvoiceKey(kind, action string) string {
	return Key("primary", "invoices", kind+"-invoices", action)
}

var levelRank = map[string]int{
	model.LevelUser:       1,
	model.LevelAdmin:      2,
	model.LevelSuperAdmin: 3,
}

// ValidLevel reports whether level is a known user level
func ValidLevel(level string) bool {
	_, ok := levelRank[level]
	return ok
}

// Authorize reports whether user holds the capability key.
// Super Admin is always authorized; missing keys are denied.
func Authorize(user *model.User, key string) bool {
	if user == nil {
		return false
	}
	if user.IsSuperAdmin() {
		return true
	}
	return user.Permissions[key]
}

// AuthorizeRole reports whether user's level satisfies role. Higher levels
// satisfy lower roles; unknown roles and levels are denied.
func AuthorizeRole(user *model.User, role string) bool {
	if user == nil {
		return false
	}
	required, ok := levelRank[role]
	if !ok {
		return false
	}
	return levelRank[user.Level] >= required
}

// Rule is the declared requirement of a protected operation. Empty fields
// are not checked.
type Rule struct {
	Role       string
	Capability string
}

// Check evaluates rule for user and returns a Forbidden error when denied
func Check(user *model.User, rule Rule) error {
	if user == nil {
		return apperror.Forbidden("authentication required")
	}
	if user.IsSuperAdmin() {
		return nil
	}
	if rule.Role != "" && !AuthorizeRole(user, rule.Role) {
		return apperror.Forbidden("access denied: requires role " + rule.Role)
	}
	if rule.Capability != "" && !Authorize(user, rule.Capability) {
		return apperror.Forbidden("access denied: missing permission '" + rule.Capability + "'")
	}
	return nil
}

// Require is shorthand for Check with a capability-only rule
func Require(user *model.User, capability string) error {
	return Check(user, Rule{Capability: capability})
}

// Normalize validates an incoming permission map against the tree. Unknown
// keys are rejected; the returned map is a copy safe to store.
func Normalize(t *Tree, perms map[string]bool) (map[string]bool, error) {
	out := make(map[string]bool, len(perms))
	var unknown []string
	for k, v := range perms {
		key := strings.TrimSpace(k)
		if !t.Contains(key) {
			unknown = append(unknown, k)
			continue
		}
		out[key] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		fields := make(map[string]string, len(unknown))
		for _, k := range unknown {
			fields["permissions."+k] = "unknown permission key"
		}
		return nil, apperror.Validation("unknown permission keys: "+strings.Join(unknown, ", "), fields)
	}
	return out, nil
}
