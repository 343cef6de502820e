package token

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-please-rotate"

func newTestCodec(t *testing.T, accessTTL, refreshTTL time.Duration) *Codec {
	t.Helper()
	codec, err := NewCodec(testSecret, accessTTL, refreshTTL)
	require.NoError(t, err)
	return codec
}

func TestNewCodec(t *testing.T) {
	t.Run("empty secret is rejected", func(t *testing.T) {
		_, err := NewCodec("", time.Minute, time.Hour)
		assert.Error(t, err)
	})

	t.Run("zero lifetimes fall back to defaults", func(t *testing.T) {
		codec, err := NewCodec(testSecret, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, codec.AccessTTL())
	})
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t, 15*time.Minute, 24*time.Hour)
	subjectID := uuid.New()

	tokenString, err := codec.Issue(subjectID, "alice@example.com", KindAccess)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := codec.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, subjectID, claims.SubjectID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, KindAccess, claims.Kind)
}

func TestVerifyExpired(t *testing.T) {
	codec := newTestCodec(t, 50*time.Millisecond, time.Hour)

	tokenString, err := codec.Issue(uuid.New(), "bob@example.com", KindAccess)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	_, err = codec.Verify(tokenString)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyTampered(t *testing.T) {
	codec := newTestCodec(t, 15*time.Minute, time.Hour)

	tokenString, err := codec.Issue(uuid.New(), "carol@example.com", KindAccess)
	require.NoError(t, err)

	t.Run("signature flip", func(t *testing.T) {
		parts := strings.Split(tokenString, ".")
		require.Len(t, parts, 3)

		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}
		tampered := parts[0] + "." + parts[1] + "." + string(sig)

		_, err := codec.Verify(tampered)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("payload flip never decodes to altered claims", func(t *testing.T) {
		parts := strings.Split(tokenString, ".")
		require.Len(t, parts, 3)

		payload := []byte(parts[1])
		if payload[0] == 'A' {
			payload[0] = 'B'
		} else {
			payload[0] = 'A'
		}
		tampered := parts[0] + "." + string(payload) + "." + parts[2]

		claims, err := codec.Verify(tampered)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("garbage is malformed", func(t *testing.T) {
		_, err := codec.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("different secret is rejected", func(t *testing.T) {
		other, err := NewCodec("a-completely-different-secret", 15*time.Minute, time.Hour)
		require.NoError(t, err)

		_, err = other.Verify(tokenString)
		assert.ErrorIs(t, err, ErrBadSignature)
	})
}

func TestVerifyAccessRejectsRefreshKind(t *testing.T) {
	codec := newTestCodec(t, 15*time.Minute, time.Hour)

	refreshToken, err := codec.Issue(uuid.New(), "dave@example.com", KindRefresh)
	require.NoError(t, err)

	_, err = codec.VerifyAccess(refreshToken)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestRefresh(t *testing.T) {
	codec := newTestCodec(t, 15*time.Minute, time.Hour)
	subjectID := uuid.New()

	t.Run("mints a new access token for the same subject", func(t *testing.T) {
		refreshToken, err := codec.Issue(subjectID, "erin@example.com", KindRefresh)
		require.NoError(t, err)

		accessToken, err := codec.Refresh(refreshToken)
		require.NoError(t, err)

		claims, err := codec.VerifyAccess(accessToken)
		require.NoError(t, err)
		assert.Equal(t, subjectID, claims.SubjectID)
		assert.Equal(t, "erin@example.com", claims.Email)
	})

	t.Run("access token cannot be used to refresh", func(t *testing.T) {
		accessToken, err := codec.Issue(subjectID, "erin@example.com", KindAccess)
		require.NoError(t, err)

		_, err = codec.Refresh(accessToken)
		assert.ErrorIs(t, err, ErrWrongKind)
	})

	t.Run("expired refresh token forces re-authentication", func(t *testing.T) {
		shortCodec := newTestCodec(t, time.Minute, 50*time.Millisecond)

		refreshToken, err := shortCodec.Issue(subjectID, "erin@example.com", KindRefresh)
		require.NoError(t, err)

		time.Sleep(100 * time.Millisecond)

		_, err = shortCodec.Refresh(refreshToken)
		assert.ErrorIs(t, err, ErrExpired)
	})
}
