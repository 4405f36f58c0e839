package token

import (
	"errors"
	"strconv"
	"time"

	"shopping/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// アクセストークンのclaims。sub=ユーザーID, role, tv=token_version
type Claims struct {
	jwt.RegisteredClaims
	Role         string `json:"role"`
	TokenVersion int    `json:"tv"`
}

// 検証済みの中身
type Principal struct {
	UserID       int64
	Role         model.Role
	TokenVersion int
}

// HS256 で発行・検証する
type JWT struct {
	secret    []byte
	accessTTL time.Duration
}

func NewJWT(secret string, accessTTL time.Duration) *JWT {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &JWT{secret: []byte(secret), accessTTL: accessTTL}
}

func (j *JWT) Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(j.accessTTL)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:         string(role),
		TokenVersion: tokenVersion,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// 署名・期限・claimsを確認する
func (j *JWT) Parse(raw string) (Principal, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || tok == nil || !tok.Valid {
		return Principal{}, ErrInvalidToken
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Principal{}, ErrInvalidToken
	}
	role := model.Role(claims.Role)
	if role != model.RoleUser && role != model.RoleAdmin {
		return Principal{}, ErrInvalidToken
	}
	if claims.TokenVersion < 0 {
		return Principal{}, ErrInvalidToken
	}

	return Principal{UserID: userID, Role: role, TokenVersion: claims.TokenVersion}, nil
}
