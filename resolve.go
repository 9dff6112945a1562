package catalogaccess

import (
	"time"

	"github.com/oarkflow/catalogaccess/utils"
)

// ============================================================================
// EFFECTIVE PERMISSION RESOLVER
// ============================================================================

// permissiveness ranks access modes for extend-mode combination:
// all > selected > none. Unknown modes rank lowest so ambiguity fails closed.
func permissiveness(m AccessMode) int {
	switch m {
	case AccessAll:
		return 2
	case AccessSelected:
		return 1
	case AccessNone:
		return 0
	}
	return -1
}

func morePermissive(a, b AccessMode) AccessMode {
	if permissiveness(a) >= permissiveness(b) {
		return a
	}
	return b
}

// Combine resolves the policy enforced for a user from its client rule and
// its own rule. It is pure: the result depends only on the two inputs, which
// is what makes it cacheable.
//
//   - inherit: the client rule applies verbatim; user lists are ignored.
//   - override: the user rule applies verbatim; the client rule is ignored.
//   - extend: allow and deny lists are unioned, and the access mode is the
//     most permissive of the two.
//
// A nil or default user rule, or an unknown inheritance mode, behaves as
// inherit.
func Combine(client *ClientRule, user *UserRule) *EffectivePermission {
	if client == nil {
		client = DefaultClientRule("", "")
	}
	perm := &EffectivePermission{
		ClientID:        client.ClientID,
		OrganizationID:  client.OrganizationID,
		InheritanceMode: InheritanceInherit,
		ComputedAt:      time.Now(),
	}
	if user != nil {
		perm.UserID = user.UserID
		if user.InheritanceMode.Valid() {
			perm.InheritanceMode = user.InheritanceMode
		}
	}

	mode := perm.InheritanceMode
	if user == nil || user.IsDefault {
		mode = InheritanceInherit
		perm.InheritanceMode = InheritanceInherit
	}

	switch mode {
	case InheritanceOverride:
		perm.AccessMode = user.AccessMode
		perm.AllowedCategories = utils.NormalizeIDs(user.AllowedCategories)
		perm.AllowedItems = utils.NormalizeIDs(user.AllowedItems)
		perm.DeniedCategories = utils.NormalizeIDs(user.DeniedCategories)
		perm.DeniedItems = utils.NormalizeIDs(user.DeniedItems)
	case InheritanceExtend:
		perm.AccessMode = morePermissive(client.AccessMode, user.AccessMode)
		perm.AllowedCategories = utils.Union(client.AllowedCategories, user.AllowedCategories)
		perm.AllowedItems = utils.Union(client.AllowedItems, user.AllowedItems)
		perm.DeniedCategories = utils.Union(client.DeniedCategories, user.DeniedCategories)
		perm.DeniedItems = utils.Union(client.DeniedItems, user.DeniedItems)
	default: // inherit
		perm.AccessMode = client.AccessMode
		perm.AllowedCategories = utils.NormalizeIDs(client.AllowedCategories)
		perm.AllowedItems = utils.NormalizeIDs(client.AllowedItems)
		perm.DeniedCategories = utils.NormalizeIDs(client.DeniedCategories)
		perm.DeniedItems = utils.NormalizeIDs(client.DeniedItems)
	}
	if !perm.AccessMode.Valid() {
		perm.AccessMode = AccessNone
	}
	return perm
}
