package auth

import (
	"testing"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestRoleTable_Defaults(t *testing.T) {
	table := DefaultRoleTable()

	assert.True(t, table.Allows(domain.RoleUser, ReadOwnOrders, ManageOwnOrders))
	assert.False(t, table.Allows(domain.RoleUser, ReadAllOrders))
	assert.False(t, table.Allows(domain.RoleUser, ManageOwnOrders, ManageCatalog), "all permissions are required")

	assert.True(t, table.Allows(domain.RoleAdmin, ReadOwnOrders, ReadAllOrders, ManageAllOrders, ManageCatalog, ManageUsers))
	assert.False(t, table.Allows(domain.Role("guest"), ReadOwnOrders))
}

func TestRoleTable_CopiesInput(t *testing.T) {
	grants := map[domain.Role][]Permission{domain.RoleUser: {ReadOwnOrders}}
	table := NewRoleTable(grants)

	grants[domain.RoleUser] = append(grants[domain.RoleUser], ManageCatalog)
	grants[domain.RoleAdmin] = []Permission{ManageCatalog}

	assert.False(t, table.Allows(domain.RoleUser, ManageCatalog))
	assert.False(t, table.Allows(domain.RoleAdmin, ManageCatalog))
}

func TestAuthorize(t *testing.T) {
	owner := domain.Principal{UserID: "u1", Role: domain.RoleUser}
	other := domain.Principal{UserID: "u2", Role: domain.RoleUser}
	admin := domain.Principal{UserID: "a1", Role: domain.RoleAdmin}

	assert.NoError(t, Authorize(owner, "u1"))
	assert.ErrorIs(t, Authorize(other, "u1"), domain.ErrForbidden)
	assert.NoError(t, Authorize(admin, "u1"))
	assert.ErrorIs(t, Authorize(domain.Principal{}, ""), domain.ErrForbidden)

	assert.NoError(t, RequireAdmin(admin))
	assert.ErrorIs(t, RequireAdmin(owner), domain.ErrForbidden)
}

func TestVerifier_Valid(t *testing.T) {
	v := NewVerifier(testSecret)

	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), Claims{
		UserID: "u1",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	p, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, domain.RoleAdmin, p.Role)
}

func TestVerifier_LegacyAdminFlag(t *testing.T) {
	v := NewVerifier(testSecret)

	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), Claims{UserID: "u1", IsAdmin: true})
	p, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, p.Role)

	token = sign(t, jwt.SigningMethodHS256, []byte(testSecret), Claims{UserID: "u2"})
	p, err = v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, p.Role)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier(testSecret)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), Claims{UserID: "u1"})},
		{"wrong algorithm", sign(t, jwt.SigningMethodHS512, []byte(testSecret), Claims{UserID: "u1"})},
		{"no user", sign(t, jwt.SigningMethodHS256, []byte(testSecret), Claims{Role: "admin"})},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(testSecret), Claims{
			UserID: "u1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}
