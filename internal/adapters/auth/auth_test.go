package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"healthdir/internal/domain"
)

var admin = domain.AdminUser{ID: "1", Username: "admin", Role: "admin"}

func TestStatic(t *testing.T) {
	s := NewStatic("", "admin")

	tok, err := s.Issue(admin)
	require.NoError(t, err)
	assert.Equal(t, DefaultStaticToken, tok)

	other, _ := s.Issue(domain.AdminUser{Username: "ops"})
	assert.Equal(t, tok, other, "static token is shared by every admin")

	sub, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin", sub)

	_, err = s.Verify("nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_RoundTrip(t *testing.T) {
	j := NewJWT("secret", time.Hour)

	tok, err := j.Issue(admin)
	require.NoError(t, err)

	sub, err := j.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin", sub)
}

func TestJWT_Rejects(t *testing.T) {
	j := NewJWT("secret", time.Minute)
	tok, err := j.Issue(admin)
	require.NoError(t, err)

	_, err = NewJWT("other-secret", time.Minute).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	j.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = j.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired token")

	_, err = j.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBcrypt(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, h.Compare(hash, "s3cret"))
	assert.Error(t, h.Compare(hash, "wrong"))
}
