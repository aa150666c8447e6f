package oidc

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier 校验外部身份提供方签发的 bearer token
type Verifier struct {
	key      *rsa.PublicKey
	issuer   string
	audience string
}

// Principal 从 token 中提取出来的身份信息
type Principal struct {
	Subject string   // 身份提供方的 subject ，稳定不变
	Name    string   // 显示名称
	Roles   []string // realm 角色
}

func New(publicKeyPEM string, issuer string, audience string) (*Verifier, error) {
	if len(publicKeyPEM) == 0 {
		return nil, errors.New("public key is empty")
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse public key failed: %w", err)
	}

	return &Verifier{key: key, issuer: issuer, audience: audience}, nil
}

// HasRole 检查是否拥有某个 realm 角色
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (v *Verifier) ParsePrincipal(tokenString string) (*Principal, error) {
	// 检查是否有效
	if len(tokenString) == 0 {
		return nil, errors.New("token string is empty")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 只接受 RSA 签名
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.key, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithAudience(v.audience), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse jwt failed: %w", err)
	}

	// 匹配内容
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	principal := &Principal{}

	if sub, ok := claims["sub"].(string); ok && sub != "" {
		principal.Subject = sub
	} else {
		return nil, fmt.Errorf("missing sub claim")
	}

	if name, ok := claims["name"].(string); ok {
		principal.Name = name
	} else if name, ok := claims["preferred_username"].(string); ok {
		principal.Name = name
	}

	// Keycloak 把 realm 角色放在 realm_access.roles 下
	if realmAccess, ok := claims["realm_access"].(map[string]interface{}); ok {
		if roles, ok := realmAccess["roles"].([]interface{}); ok {
			for _, role := range roles {
				if roleStr, ok := role.(string); ok {
					principal.Roles = append(principal.Roles, roleStr)
				}
			}
		}
	}

	return principal, nil
}
