package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// SignedURLSigner creates and validates signed download tokens. A token binds a
// subject id (usually a document id) to an object location and an expiry.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a signed token for subjectID and location.
func (s *SignedURLSigner) Generate(subjectID, location string) (string, time.Time, error) {
	if subjectID == "" || location == "" {
		return "", time.Time{}, fmt.Errorf("subject id and location required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC()
	ts := fmt.Sprintf("%d", expiresAt.Unix())
	encoded := base64.RawURLEncoding.EncodeToString([]byte(location))
	token := strings.Join([]string{subjectID, ts, encoded, s.sign(subjectID, ts, encoded)}, ".")
	return token, expiresAt, nil
}

// Verify checks that token was issued for subjectID and is still valid, and
// returns the signed location.
func (s *SignedURLSigner) Verify(token, subjectID string) (string, error) {
	gotSubject, location, _, err := s.Parse(token, false)
	if err != nil {
		return "", err
	}
	if gotSubject != subjectID {
		return "", fmt.Errorf("token subject mismatch")
	}
	return location, nil
}

// Parse validates a token and returns the embedded metadata. When allowExpired
// is true the timestamp check is skipped.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (subjectID, location string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("invalid token format")
	}
	subjectID, ts, encoded, signature := parts[0], parts[1], parts[2], parts[3]

	expected := s.sign(subjectID, ts, encoded)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode location: %w", err)
	}
	var expUnix int64
	if _, err := fmt.Sscanf(ts, "%d", &expUnix); err != nil {
		return "", "", time.Time{}, fmt.Errorf("invalid timestamp")
	}
	expiresAt = time.Unix(expUnix, 0).UTC()
	if !allowExpired && s.now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	return subjectID, string(raw), expiresAt, nil
}

func (s *SignedURLSigner) sign(subjectID, ts, encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(subjectID + "|" + ts + "|" + encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
