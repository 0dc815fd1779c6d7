package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenExpired   = errors.New("token expired")
)

const DefaultTTL = 24 * time.Hour

type Claims struct {
	UID      string `json:"uid"`
	IsAdmin  bool   `json:"isAdmin"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTer 签发/校验身份令牌，纯计算，不访问数据库
type JWTer struct {
	Secret          []byte
	PreviousSecrets [][]byte // 轮换期间仍接受旧密钥校验，签发只用 Secret
	Issuer          string
	TTL             time.Duration
	Now             func() time.Time // 测试注入时钟
}

func (j *JWTer) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *JWTer) ttl() time.Duration {
	if j.TTL <= 0 {
		return DefaultTTL
	}
	return j.TTL
}

func (j *JWTer) Issue(uid string, isAdmin bool, username string) (string, error) {
	if len(j.Secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	now := j.now()
	claims := Claims{
		UID:      uid,
		IsAdmin:  isAdmin,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// Verify 校验签名与有效期；失败只返回 ErrTokenMalformed / ErrTokenInvalid / ErrTokenExpired 之一
func (j *JWTer) Verify(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(j.now),
	}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}

	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, j.keyFunc, opts...)
	if err != nil {
		return nil, classify(err)
	}
	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || claims.UID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (j *JWTer) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, fmt.Errorf("unexpected alg %v", token.Header["alg"])
	}
	if len(j.PreviousSecrets) == 0 {
		return j.Secret, nil
	}
	keys := jwt.VerificationKeySet{Keys: []jwt.VerificationKey{j.Secret}}
	for _, s := range j.PreviousSecrets {
		keys.Keys = append(keys.Keys, s)
	}
	return keys, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	default:
		return ErrTokenInvalid
	}
}
