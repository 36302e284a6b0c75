// AngelaMos | 2026
// service_test.go

package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/memstore"
	"github.com/carterperez-dev/templates/campus-market/internal/user"
)

func newService() *user.Service {
	s := memstore.New()
	return user.NewService(user.ServiceConfig{
		Tx:    s,
		DB:    s.DB(),
		Repos: s.UserRepos(),
	})
}

func input(email, role string) user.CreateInput {
	return user.CreateInput{
		Email:    email,
		Password: "correct-horse-battery",
		Name:     "Ada Student",
		Role:     role,
	}
}

func TestCreate_ProfilesFollowRole(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	tests := []struct {
		role       string
		wantSeller bool
		wantBuyer  bool
	}{
		{user.RoleBuyer, false, true},
		{user.RoleSeller, true, false},
		{user.RoleBoth, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			u, err := svc.Create(ctx, input(tt.role+"@campus.test", tt.role))
			require.NoError(t, err)
			assert.Equal(t, user.StatusActive, u.Status)
			assert.NotEqual(t, "correct-horse-battery", u.PasswordHash)

			_, err = svc.GetSellerProfile(ctx, u.ID)
			assert.Equal(t, tt.wantSeller, err == nil)

			_, err = svc.GetBuyerProfile(ctx, u.ID)
			assert.Equal(t, tt.wantBuyer, err == nil)
		})
	}
}

func TestCreate_EmailIsCaseInsensitiveUnique(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	u, err := svc.Create(ctx, input("Grace@Campus.test", user.RoleBuyer))
	require.NoError(t, err)
	assert.Equal(t, "grace@campus.test", u.Email)

	_, err = svc.Create(ctx, input("grace@campus.test", user.RoleSeller))
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestCreate_Validation(t *testing.T) {
	svc := newService()

	tests := []struct {
		name string
		in   user.CreateInput
	}{
		{"bad email", input("not-an-email", user.RoleBuyer)},
		{"unknown role", input("x@campus.test", "admin")},
		{"short password", user.CreateInput{Email: "y@campus.test", Password: "short", Name: "Y", Role: user.RoleBuyer}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
}

func TestEnsureSellerProfile_PromotesBuyer(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	u, err := svc.Create(ctx, input("buyer@campus.test", user.RoleBuyer))
	require.NoError(t, err)

	p, err := svc.EnsureSellerProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Zero(t, p.TotalSales)

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleBoth, got.Role)

	again, err := svc.EnsureSellerProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, p.CreatedAt, again.CreatedAt)
}

func TestEnsureBuyerProfile_UnknownUser(t *testing.T) {
	_, err := newService().EnsureBuyerProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	u, err := svc.Create(ctx, input("status@campus.test", user.RoleBoth))
	require.NoError(t, err)

	got, err := svc.UpdateStatus(ctx, u.ID, user.UpdateStatusInput{Status: user.StatusSuspended})
	require.NoError(t, err)
	assert.Equal(t, user.StatusSuspended, got.Status)
	assert.False(t, got.IsActive())

	_, err = svc.UpdateStatus(ctx, u.ID, user.UpdateStatusInput{Status: "frozen"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	exists, err := svc.UserExists(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}
