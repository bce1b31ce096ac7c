package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndVerify(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("doc-1", "VEHICLE_DOCUMENTS/veh-1/mot/1700000000_mot.pdf")
	require.NoError(t, err)
	require.False(t, expiresAt.IsZero())

	location, err := signer.Verify(token, "doc-1")
	require.NoError(t, err)
	require.Equal(t, "VEHICLE_DOCUMENTS/veh-1/mot/1700000000_mot.pdf", location)

	_, err = signer.Verify(token, "doc-2")
	require.Error(t, err)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }
	token, _, err := signer.Generate("doc-1", "a/b.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	subject, location, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "doc-1", subject)
	require.Equal(t, "a/b.pdf", location)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("doc-1", "a/b.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token+"0", false)
	require.Error(t, err)
	_, _, _, err = signer.Parse("not-a-token", false)
	require.Error(t, err)
}
