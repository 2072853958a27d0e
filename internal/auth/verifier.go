// Package auth は外部IdPが発行したbearerトークンの検証を提供する。
// トークンの発行はIdP側の責務であり、本パッケージは検証のみを行う。
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// Identity は検証済みトークンから取り出したユーザー情報を表す。
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// TokenVerifier はbearerトークン検証のインターフェース。
type TokenVerifier interface {
	// Verify はトークン文字列を検証し、ユーザー情報を返す。
	// 署名不正・期限切れ・subクレーム欠落の場合はエラーを返す。
	Verify(tokenString string) (*Identity, error)
}

// JWTVerifier はHS256署名付きJWTを検証するTokenVerifierの実装。
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier はJWTVerifierを生成する。
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify はトークン文字列を検証し、ユーザー情報を返す。
// 署名方式はHMAC系のみ許可する（alg=noneやRS256への差し替えを拒否する）。
func (v *JWTVerifier) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("token is missing sub claim")
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return &Identity{UserID: sub, Email: email, Name: name}, nil
}

// compile-time interface check
var _ TokenVerifier = (*JWTVerifier)(nil)
