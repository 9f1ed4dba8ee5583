package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrChatToken はチャット識別トークンの検証に失敗したことを表す。
var ErrChatToken = errors.New("チャット識別トークンが無効です")

// ChatIdentity はチャット識別トークンに埋め込まれるユーザー情報。
type ChatIdentity struct {
	// UserID はDiscordのユーザーID。
	UserID string `json:"userId"`
}

// ChatClaims はチャット識別トークンのクレーム。
// ボットがDMで送る認証リンクに埋め込まれ、コールバックで検証される。
type ChatClaims struct {
	jwt.RegisteredClaims
	// Data はボットが埋め込むユーザー情報。
	Data ChatIdentity `json:"data"`
}

// GenerateChatToken はDiscordユーザーIDからチャット識別トークンを生成する。
func GenerateChatToken(secret, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: シークレットが未設定です", ErrChatToken)
	}

	now := time.Now()
	claims := ChatClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Data: ChatIdentity{UserID: userID},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("チャット識別トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// VerifyChatToken は共有シークレットでチャット識別トークンを検証する。
// 返されるエラーはすべて ErrChatToken をラップする。
func VerifyChatToken(secret, tokenString string) (*ChatClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: シークレットが未設定です", ErrChatToken)
	}
	if tokenString == "" {
		return nil, fmt.Errorf("%w: トークンが指定されていません", ErrChatToken)
	}

	claims := &ChatClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChatToken, err)
	}
	if !token.Valid {
		return nil, ErrChatToken
	}
	if claims.Data.UserID == "" {
		return nil, fmt.Errorf("%w: userIdが含まれていません", ErrChatToken)
	}
	return claims, nil
}
