package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultMagicTokenTTL is the default lifetime for submission links. The
// real cut-off is always the instance's own response window; this only
// bounds how long a forged-replay attempt stays cryptographically fresh.
const DefaultMagicTokenTTL = 24 * time.Hour

// Claims are the magic-token claims. The token stands in for a login
// session during response submission, so it is scoped as narrowly as
// possible: one instance, one member.
type Claims struct {
	jwt.RegisteredClaims

	// InstanceID is the standup instance the bearer may submit to.
	InstanceID string `json:"ins"`

	// MemberID is the team member the answers will be recorded against.
	MemberID string `json:"mbr"`

	// PlatformUserID is the chat-platform user the link was delivered to.
	PlatformUserID string `json:"pfu"`

	// OrgID scopes every lookup performed during validation.
	OrgID string `json:"org"`
}

// NewSubmissionClaims builds minimally-correct claims for a submission link.
func NewSubmissionClaims(
	instanceID, memberID, platformUserID, orgID string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   memberID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		InstanceID:     instanceID,
		MemberID:       memberID,
		PlatformUserID: platformUserID,
		OrgID:          orgID,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
