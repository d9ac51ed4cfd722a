package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterfiction/pkg/database"
)

func testTokens() TokenService {
	return TokenService{Secret: []byte("test-secret"), Issuer: "betterfiction", Duration: time.Hour}
}

func TestTokenService_SignParseRoundTrip(t *testing.T) {
	ts := testTokens()
	d := &Device{ID: "dev-1", Name: "laptop"}

	raw, exp, err := ts.Sign(d)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := ts.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", claims.DeviceID)
	assert.Equal(t, "laptop", claims.DeviceName)
	assert.Equal(t, "betterfiction", claims.Issuer)
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	raw, _, err := testTokens().Sign(&Device{ID: "dev-1", Name: "laptop"})
	require.NoError(t, err)

	other := TokenService{Secret: []byte("other-secret"), Issuer: "betterfiction", Duration: time.Hour}
	_, err = other.Parse(raw)
	assert.Error(t, err)
}

func TestTokenService_RejectsWrongIssuer(t *testing.T) {
	ts := testTokens()
	ts.Issuer = "someone-else"
	raw, _, err := ts.Sign(&Device{ID: "dev-1", Name: "laptop"})
	require.NoError(t, err)

	_, err = testTokens().Parse(raw)
	assert.Error(t, err)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	ts := testTokens()
	ts.Duration = -time.Minute
	raw, _, err := ts.Sign(&Device{ID: "dev-1", Name: "laptop"})
	require.NoError(t, err)

	_, err = ts.Parse(raw)
	assert.Error(t, err)
}

func openTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return NewRepo(db)
}

func TestRepo_CreateGetDelete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, Device{ID: "dev-1", Name: "laptop"}))

	got, err := repo.Get(ctx, "dev-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "laptop", got.Name)
	assert.False(t, got.CreatedAt.IsZero())

	missing, err := repo.Get(ctx, "dev-2")
	require.NoError(t, err)
	assert.Nil(t, missing)

	ok, err := repo.Delete(ctx, "dev-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, "dev-1")
	require.NoError(t, err)
	assert.False(t, ok, "second delete finds nothing")
}

func TestRepo_List(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, Device{ID: "a", Name: "one"}))
	require.NoError(t, repo.Create(ctx, Device{ID: "b", Name: "two"}))

	devices, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, 2)
}
