package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discipline-service/internal/model"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestParseValidToken(t *testing.T) {
	userID := uuid.New()
	deptID := uuid.New()
	token := sign(t, "secret", jwt.MapClaims{
		"sub":           userID.String(),
		"role":          "MANAGER",
		"department_id": deptID.String(),
		"exp":           time.Now().Add(time.Hour).Unix(),
	})

	claims, err := NewParser("secret").Parse(token)
	require.NoError(t, err)

	principal := claims.Principal()
	assert.Equal(t, userID, principal.UserID)
	assert.Equal(t, model.UserRoleManager, principal.Role)
	require.NotNil(t, principal.DepartmentID)
	assert.Equal(t, deptID, *principal.DepartmentID)
	assert.Nil(t, principal.EmployeeID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token := sign(t, "other", jwt.MapClaims{"sub": uuid.NewString(), "role": "ADMIN"})

	_, err := NewParser("secret").Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	token := sign(t, "secret", jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "ADMIN",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})

	_, err := NewParser("secret").Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
