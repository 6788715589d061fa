package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-4))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTripIsURLSafe(t *testing.T) {
	in := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 123456000, time.FixedZone("IST", 19800)),
		ID:        uuid.New(),
	}

	token := EncodeCursor(in)
	assert.NotContains(t, token, "=")
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")

	out, err := ParseCursor(token)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursorRejectsMalformedTokens(t *testing.T) {
	out, err := ParseCursor("   ")
	require.NoError(t, err)
	assert.Nil(t, out)

	for _, token := range []string{
		"!!not-base64!!",
		base64.RawURLEncoding.EncodeToString([]byte("no-separator")),
		base64.RawURLEncoding.EncodeToString([]byte("yesterday|" + uuid.NewString())),
		base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano) + "|not-a-uuid")),
	} {
		_, err := ParseCursor(token)
		assert.Error(t, err, token)
	}
}
