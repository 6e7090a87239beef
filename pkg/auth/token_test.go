package auth

import (
	"testing"
	"time"

	"github.com/Cervini/reinventory-backend/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "reinventory-test"}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	actorID := uuid.New()

	token, err := MintActorToken(cfg, time.Now(), actorID, "dm@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ParseActorToken(cfg, token)
	require.NoError(t, err)
	require.Equal(t, actorID, claims.ActorID)
	require.Equal(t, "dm@example.com", claims.Email)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	minted := config.JWTConfig{Secret: "test-secret", Issuer: "someone-else"}
	token, err := MintActorToken(minted, time.Now(), uuid.New(), "", time.Hour)
	require.NoError(t, err)

	_, err = ParseActorToken(testJWTConfig(), token)
	require.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	token, err := MintActorToken(cfg, time.Now().Add(-2*time.Hour), uuid.New(), "", time.Hour)
	require.NoError(t, err)

	_, err = ParseActorToken(cfg, token)
	require.Error(t, err)
}

func TestParseRejectsTamperedSecret(t *testing.T) {
	t.Parallel()

	token, err := MintActorToken(config.JWTConfig{Secret: "other", Issuer: "reinventory-test"}, time.Now(), uuid.New(), "", time.Hour)
	require.NoError(t, err)

	_, err = ParseActorToken(testJWTConfig(), token)
	require.Error(t, err)
}
