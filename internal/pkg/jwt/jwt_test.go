package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "prono-test-secret"

func signClaims(t *testing.T, method jwt.SigningMethod, claims Claims, key interface{}) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

// tamper flips one character inside the signature segment.
func tamper(token string) string {
	b := []byte(token)
	i := len(b) - 5
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func claimsValidFor(userID int64, from time.Time, d time.Duration) Claims {
	return Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(from.Add(d)),
			IssuedAt:  jwt.NewNumericDate(from),
			NotBefore: jwt.NewNumericDate(from),
		},
	}
}

func TestGenerateToken(t *testing.T) {
	before := time.Now().Add(-time.Second)

	token, err := GenerateToken(42, testSecret, 72)
	require.NoError(t, err)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.WithinDuration(t, before.Add(72*time.Hour), claims.ExpiresAt.Time, 2*time.Second)
	assert.False(t, claims.IssuedAt.Before(before.Truncate(time.Second)))
}

func TestParseToken_ExpiredIsDistinct(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "expired an hour ago",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS256, claimsValidFor(7, now.Add(-2*time.Hour), time.Hour), []byte(testSecret))
			},
		},
		{
			name: "zero lifetime",
			token: func(t *testing.T) string {
				token, err := GenerateToken(7, testSecret, 0)
				require.NoError(t, err)
				return token
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseToken(tt.token(t), testSecret)
			assert.ErrorIs(t, err, ErrExpiredToken)
			assert.NotErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestParseToken_Invalid(t *testing.T) {
	now := time.Now()
	valid, err := GenerateToken(7, testSecret, 1)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{name: "wrong secret", token: valid, secret: "another-deployment"},
		{name: "tampered signature", token: tamper(valid), secret: testSecret},
		{name: "garbage", token: "not-a-jwt", secret: testSecret},
		{name: "empty", token: "", secret: testSecret},
		{
			name:   "unsigned",
			token:  signClaims(t, jwt.SigningMethodNone, claimsValidFor(7, now, time.Hour), jwt.UnsafeAllowNoneSignatureType),
			secret: testSecret,
		},
		{
			name:   "not yet valid",
			token:  signClaims(t, jwt.SigningMethodHS256, claimsValidFor(7, now.Add(time.Hour), time.Hour), []byte(testSecret)),
			secret: testSecret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseToken(tt.token, tt.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.NotErrorIs(t, err, ErrExpiredToken)
			assert.Nil(t, claims)
		})
	}
}
