package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/crm/internal"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Credentials is the login view of a manager joined with its department.
type Credentials struct {
	ManagerID     int64
	Account       string
	PasswordHash  string
	Name          string
	Email         string
	Status        int
	DepartID      int64
	DepartName    string
	ParentIDs     string
	HasDepartment bool
}

const ManagerStatusDisabled = 0

// Claims represents JWT token claims
type Claims struct {
	ManagerID int64  `json:"manager_id"`
	Account   string `json:"account"`
	jwt.RegisteredClaims
}

// JWTTokenGenerator issues HS256 access tokens. Each token carries a random
// ID so two logins within the same second never collide in the token store.
type JWTTokenGenerator struct {
	Secret         []byte
	AccessTokenTTL time.Duration
}

func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{Secret: []byte(secret), AccessTokenTTL: ttl}
}

func (g *JWTTokenGenerator) TTL() time.Duration {
	return g.AccessTokenTTL
}

func (g *JWTTokenGenerator) GenerateAccessToken(managerID int64, account string) (string, error) {
	now := time.Now()
	claims := Claims{
		ManagerID: managerID,
		Account:   account,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", managerID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.AccessTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.Secret)
}

func (g *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken.WithCause(err)
	}
	if !token.Valid || claims.ManagerID == 0 {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}

// BcryptHasher hashes manager passwords.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

var ErrDepartmentUnassigned = internal.NewForbiddenError("manager has no department", internal.ErrCodeDepartmentUnassigned)
