package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/store"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidToken covers bad signatures, malformed tokens and expiry.
var ErrInvalidToken = errors.New("invalid or expired token")

// AccessClaims are the denormalized profile claims carried by the
// short-lived access credential.
type AccessClaims struct {
	UserID   string `json:"_id"`
	Email    string `json:"email"`
	UserName string `json:"username"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the user identity.
type RefreshClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// TokenPair is one issued access/refresh credential pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CredentialStore is the slice of the user repository the session manager
// needs: a profile lookup plus the stored-refresh-credential operations.
type CredentialStore interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	SwapRefreshToken(ctx context.Context, id primitive.ObjectID, presented, next string) error
	ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error
}

// SessionManager issues, verifies, rotates and revokes the paired
// access/refresh credentials. A user has at most one active refresh
// credential, stored on the user record; issuing overwrites it.
type SessionManager struct {
	users         CredentialStore
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewSessionManager creates a SessionManager signing with the given secrets.
func NewSessionManager(users CredentialStore, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *SessionManager {
	return &SessionManager{
		users:         users,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Issue signs a fresh token pair for the user and persists the refresh
// credential, implicitly invalidating any previously issued one.
func (m *SessionManager) Issue(ctx context.Context, user *models.User) (TokenPair, error) {
	pair, err := m.sign(user)
	if err != nil {
		return TokenPair{}, err
	}
	if err := m.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}
	return pair, nil
}

// VerifyAccess validates an access credential and resolves the viewer.
// The only storage touched is a profile lookup confirming the account
// still exists. A deleted account maps to ErrInvalidToken; a failed
// lookup is a storage error, not a credential verdict, and surfaces as is.
func (m *SessionManager) VerifyAccess(ctx context.Context, token string) (*models.User, error) {
	claims := &AccessClaims{}
	if err := m.parse(token, claims, m.accessSecret); err != nil {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := m.users.GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token user: %w", err)
	}
	return user, nil
}

// Rotate exchanges a still-valid refresh credential for a new pair. The
// presented value must exactly equal the one stored on the user record;
// the swap is a single conditional write, so concurrent rotations with the
// same credential produce exactly one winner and the losers get the
// store's reuse error.
func (m *SessionManager) Rotate(ctx context.Context, presented string) (*models.User, TokenPair, error) {
	claims := &RefreshClaims{}
	if err := m.parse(presented, claims, m.refreshSecret); err != nil {
		return nil, TokenPair{}, err
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidToken
	}
	user, err := m.users.GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, TokenPair{}, ErrInvalidToken
	}
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("resolve token user: %w", err)
	}

	pair, err := m.sign(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := m.users.SwapRefreshToken(ctx, user.ID, presented, pair.RefreshToken); err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Revoke clears the stored refresh credential, ending the session. The
// outstanding refresh token then fails Rotate's equality check even while
// its signature is still valid.
func (m *SessionManager) Revoke(ctx context.Context, userID primitive.ObjectID) error {
	return m.users.ClearRefreshToken(ctx, userID)
}

func (m *SessionManager) sign(user *models.User) (TokenPair, error) {
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, &AccessClaims{
		UserID:   user.ID.Hex(),
		Email:    user.Email,
		UserName: user.UserName,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	accessToken, err := access.SignedString(m.accessSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &RefreshClaims{
		UserID: user.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	refreshToken, err := refresh.SignedString(m.refreshSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (m *SessionManager) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
