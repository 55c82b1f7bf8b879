package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims JWT 声明
type Claims struct {
	Sub         string   `json:"sub"`
	Name        string   `json:"name"`
	CompanyID   string   `json:"company_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// TokenValidator JWT Token 验证器
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator 创建 Token 验证器
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret)}
}

// ValidateToken 验证 JWT Token 并返回声明
func (v *TokenValidator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	// 验证过期时间
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, errors.New("token expired")
	}

	return claims, nil
}

// Principal 将声明转换为调用者主体
func (c *Claims) Principal() *Principal {
	role := Role(c.Role)
	if role != RoleAdmin {
		role = RoleMember
	}
	return &Principal{
		UserID:      c.Sub,
		Name:        c.Name,
		CompanyID:   c.CompanyID,
		Role:        role,
		Permissions: c.Permissions,
	}
}

// IssueToken 签发 JWT Token(开发和测试用)
func (v *TokenValidator) IssueToken(p *Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:         p.UserID,
		Name:        p.Name,
		CompanyID:   p.CompanyID,
		Role:        string(p.Role),
		Permissions: p.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
