package credentials

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenDisabled = errors.New("credentials: approval token signing disabled (no secret configured)")
	ErrInvalidToken  = errors.New("credentials: invalid or expired approval token")
)

// ApprovalClaims identifies the session/tool-call pair an approval token
// authorizes a decision for, so a remote approver (e.g. over a socket) can't
// replay a decision against a different call.
type ApprovalClaims struct {
	SessionID  string `json:"session_id"`
	ToolCallID string `json:"tool_call_id"`
	jwt.RegisteredClaims
}

// ApprovalTokenSigner issues and validates short-lived approval tokens,
// grounded on internal/auth/jwt.go's JWTService (HS256, RegisteredClaims
// expiry), generalized from carrying a user identity to carrying the
// session/tool-call pair spec.md §9's approval workflow needs.
type ApprovalTokenSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewApprovalTokenSigner builds a signer with the given secret and token
// lifetime.
func NewApprovalTokenSigner(secret string, ttl time.Duration) *ApprovalTokenSigner {
	return &ApprovalTokenSigner{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token authorizing an approval decision for one
// session/tool-call pair.
func (s *ApprovalTokenSigner) Issue(sessionID, toolCallID string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrTokenDisabled
	}
	now := time.Now()
	claims := ApprovalClaims{
		SessionID:  sessionID,
		ToolCallID: toolCallID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and verifies token, returning the session/tool-call pair
// it authorizes.
func (s *ApprovalTokenSigner) Validate(token string) (*ApprovalClaims, error) {
	if len(s.secret) == 0 {
		return nil, ErrTokenDisabled
	}
	parsed, err := jwt.ParseWithClaims(token, &ApprovalClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*ApprovalClaims)
	if !ok || !parsed.Valid || claims.SessionID == "" || claims.ToolCallID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
