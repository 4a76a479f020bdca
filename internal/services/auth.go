package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"vinyldex/internal/models"
	"vinyldex/internal/utils"
)

const (
	maxFailedLoginAttempts = 5
	accountLockDuration    = 15 * time.Minute
)

// AuthService handles authentication logic
type AuthService struct {
	db            *gorm.DB
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// AuthToken represents the authentication tokens
type AuthToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthUser represents user information in the token
type AuthUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Claims represents JWT claims
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB, jwtSecret string, accessExpiry, refreshExpiry time.Duration) *AuthService {
	if accessExpiry <= 0 {
		accessExpiry = 15 * time.Minute
	}
	if refreshExpiry <= 0 {
		refreshExpiry = 14 * 24 * time.Hour
	}
	return &AuthService{
		db:            db,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// Login authenticates a user and returns tokens
func (a *AuthService) Login(username, password string) (*AuthToken, *models.User, error) {
	var user models.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Return generic error to prevent username enumeration
			return nil, nil, fmt.Errorf("invalid credentials")
		}
		return nil, nil, err
	}

	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		return nil, nil, fmt.Errorf("account locked")
	}

	if err := utils.CheckPasswordHash(password, user.PasswordHash); err != nil {
		a.recordFailedLogin(&user)
		return nil, nil, fmt.Errorf("invalid credentials")
	}

	// Successful login clears the failure counter
	now := time.Now()
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	if err := a.db.Save(&user).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to update login time: %w", err)
	}

	token, err := a.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return token, &user, nil
}

// recordFailedLogin increments the failure counter and locks the account when
// the threshold is exceeded
func (a *AuthService) recordFailedLogin(user *models.User) {
	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= maxFailedLoginAttempts {
		lockedUntil := time.Now().Add(accountLockDuration)
		user.LockedUntil = &lockedUntil
		user.FailedLoginAttempts = 0
	}
	a.db.Save(user)
}

// RefreshTokens validates a refresh token and generates a new token pair
func (a *AuthService) RefreshTokens(refreshToken string) (*AuthToken, *models.User, error) {
	claims, err := a.parseToken(refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	var user models.User
	if err := a.db.First(&user, claims.UserID).Error; err != nil {
		return nil, nil, fmt.Errorf("user not found: %w", err)
	}

	token, err := a.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return token, &user, nil
}

// ValidateToken validates an access token and returns user info
func (a *AuthService) ValidateToken(tokenString string) (*AuthUser, error) {
	claims, err := a.parseToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	return &AuthUser{
		ID:       claims.UserID,
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
	}, nil
}

// HashPassword hashes a password using bcrypt
func (a *AuthService) HashPassword(password string) (string, error) {
	return utils.HashPassword(password)
}

func (a *AuthService) issueTokens(user models.User) (*AuthToken, error) {
	accessToken, err := a.generateToken(user, a.accessExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := a.generateToken(user, a.refreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthToken{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(a.accessExpiry.Seconds()),
	}, nil
}

func (a *AuthService) generateToken(user models.User, expiry time.Duration) (string, error) {
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "vinyldex",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.jwtSecret))
}

func (a *AuthService) parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
