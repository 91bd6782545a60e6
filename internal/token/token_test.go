package token

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123"

func TestIssueAndParse(t *testing.T) {
	c := NewCodec(secret)

	raw, err := c.Issue("9b0c7a3e-0000-4000-8000-000000000001", 42)
	require.NoError(t, err)

	sid, uid, err := c.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "9b0c7a3e-0000-4000-8000-000000000001", sid)
	require.EqualValues(t, 42, uid)
}

func TestParseRejectsOtherSecret(t *testing.T) {
	raw, err := NewCodec("another-secret-value").Issue("sid", 1)
	require.NoError(t, err)

	_, _, err = NewCodec(secret).Parse(raw)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "abc", "a.b.c"} {
		_, _, err := NewCodec(secret).Parse(raw)
		require.ErrorIs(t, err, ErrInvalid, raw)
	}
}

func TestParseRejectsOtherAlgorithm(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID: "sid", Subject: "1", Issuer: issuer,
	}})
	raw, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)

	_, _, err = NewCodec(secret).Parse(raw)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsMissingSession(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "1", Issuer: issuer,
	}})
	raw, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)

	_, _, err = NewCodec(secret).Parse(raw)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestIssueRequiresSession(t *testing.T) {
	_, err := NewCodec(secret).Issue("", 1)
	require.Error(t, err)
}
