package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sealbase/sealbase-api/internal/models"
)

func TestRuleAbility(t *testing.T) {
	ability := NewRuleAbility()
	claims := &models.JWTClaims{UserID: "user-1", AccountID: "acc-1", Role: models.RoleUser}
	admin := &models.JWTClaims{UserID: "admin-1", AccountID: "acc-1", Role: models.RoleAdmin}

	cases := []struct {
		name    string
		claims  *models.JWTClaims
		subject interface{}
		want    bool
	}{
		{"template authored by actor", claims, &models.Template{AuthorID: "user-1", AccountID: "acc-9"}, true},
		{"public template of other account", claims, &models.Template{AuthorID: "other", AccountID: "acc-9", IsPublic: true}, true},
		{"template of same account", claims, &models.Template{AuthorID: "other", AccountID: "acc-1"}, true},
		{"private template of other account", claims, &models.Template{AuthorID: "other", AccountID: "acc-9"}, false},
		{"submission created by actor", claims, &models.Submission{CreatedByUserID: "user-1", AccountID: "acc-9"}, true},
		{"submission of same account", claims, &models.Submission{CreatedByUserID: "other", AccountID: "acc-1"}, true},
		{"submission of other account", claims, &models.Submission{CreatedByUserID: "other", AccountID: "acc-9"}, false},
		{"own user record", claims, &models.User{ID: "user-1", AccountID: "acc-9"}, true},
		{"other user same account as plain user", claims, &models.User{ID: "other", AccountID: "acc-1"}, false},
		{"other user same account as admin", admin, &models.User{ID: "other", AccountID: "acc-1"}, true},
		{"nil claims", nil, &models.Submission{}, false},
		{"nil entity", claims, (*models.Submission)(nil), false},
		{"unknown subject kind", claims, struct{}{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ability.Can(tc.claims, ActionManage, tc.subject))
		})
	}
}
