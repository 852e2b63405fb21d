package auth

import (
	"testing"
	"time"

	"backoffice/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	secret := []byte("test-secret")
	user := &model.User{ID: 42, Level: model.LevelAdmin}

	token, exp, err := Issue(user, secret, time.Hour, time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := Parse(token, secret)
	require.NoError(t, err)
	assert.Equal(t, model.LevelAdmin, claims.Level)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestParse_Rejects(t *testing.T) {
	user := &model.User{ID: 1, Level: model.LevelUser}

	token, _, err := Issue(user, []byte("a"), time.Hour, time.Now())
	require.NoError(t, err)
	_, err = Parse(token, []byte("b"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, _, err := Issue(user, []byte("a"), time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = Parse(expired, []byte("a"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = Parse("not-a-token", []byte("a"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}
