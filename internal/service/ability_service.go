package service

import (
	"github.com/sealbase/sealbase-api/internal/models"
)

// AbilityAction enumerates capability checks.
type AbilityAction string

const (
	ActionRead   AbilityAction = "read"
	ActionManage AbilityAction = "manage"
)

// Ability evaluates whether an actor may perform an action on an entity.
// Implementations must be pure functions of the actor claims and the
// entity's attributes.
type Ability interface {
	Can(claims *models.JWTClaims, action AbilityAction, subject interface{}) bool
}

// RuleAbility implements the capability rules: authorship, account
// membership, and public visibility grant access.
type RuleAbility struct{}

// NewRuleAbility constructs the default rule set.
func NewRuleAbility() *RuleAbility {
	return &RuleAbility{}
}

// Can reports whether the actor holds the capability. Unknown subject kinds
// are denied.
func (a *RuleAbility) Can(claims *models.JWTClaims, action AbilityAction, subject interface{}) bool {
	if claims == nil {
		return false
	}

	switch entity := subject.(type) {
	case *models.Template:
		if entity == nil {
			return false
		}
		return entity.AuthorID == claims.UserID || entity.IsPublic || entity.AccountID == claims.AccountID
	case *models.Submission:
		if entity == nil {
			return false
		}
		return entity.CreatedByUserID == claims.UserID || entity.AccountID == claims.AccountID
	case *models.Submitter:
		// Submitter access follows its submission; callers resolve the
		// submission first.
		return false
	case *models.User:
		if entity == nil {
			return false
		}
		if entity.ID == claims.UserID {
			return true
		}
		return entity.AccountID == claims.AccountID && (claims.Role == models.RoleAdmin || claims.Role == models.RoleSuperadmin)
	default:
		return false
	}
}
