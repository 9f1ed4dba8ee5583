package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

var (
	// ErrInvalidToken はIDトークンの形式が不正であることを表す。
	ErrInvalidToken = errors.New("IDトークンが無効です")
	// ErrInvalidIssuer はIDトークンの発行者が許可リストに含まれないことを表す。
	ErrInvalidIssuer = errors.New("許可されていない発行者です")
	// ErrKeyNotFound はJWKSに署名鍵が見つからないことを表す。
	ErrKeyNotFound = errors.New("署名鍵が見つかりません")
)

// jwksPath は発行者URLからJWKSを取得する際のパス。
const jwksPath = "/.well-known/jwks.json"

// IssuerVerifierConfig はIssuerVerifierの設定。
type IssuerVerifierConfig struct {
	// ValidIssuers は信頼するトークン発行者の一覧。
	ValidIssuers []string
	// HTTPClient はJWKS取得に使用するHTTPクライアント。nilの場合は既定値を使う。
	HTTPClient *http.Client
}

// IssuerVerifier は外部の認証基盤が発行したIDトークンを検証する。
// 発行者ごとのJWKSはキャッシュされ、複数のgoroutineから同時に呼び出せる。
type IssuerVerifier struct {
	// issuers は許可された発行者の集合。
	issuers map[string]struct{}
	// cache はJWKS URLごとの鍵セットキャッシュ。
	cache *jwk.Cache

	mu         sync.Mutex
	registered map[string]struct{}
}

// NewIssuerVerifier は新しいIssuerVerifierを生成する。
// ctxはJWKSキャッシュのバックグラウンド更新の寿命を決める。
func NewIssuerVerifier(ctx context.Context, cfg IssuerVerifierConfig) (*IssuerVerifier, error) {
	if len(cfg.ValidIssuers) == 0 {
		return nil, errors.New("許可する発行者が1つも設定されていません")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	cache, err := jwk.NewCache(ctx, httprc.NewClient(httprc.WithHTTPClient(httpClient)))
	if err != nil {
		return nil, fmt.Errorf("JWKSキャッシュの作成に失敗: %w", err)
	}

	issuers := make(map[string]struct{}, len(cfg.ValidIssuers))
	for _, iss := range cfg.ValidIssuers {
		issuers[strings.TrimSpace(iss)] = struct{}{}
	}

	return &IssuerVerifier{
		issuers:    issuers,
		cache:      cache,
		registered: make(map[string]struct{}),
	}, nil
}

// Verify はIDトークンの署名・有効期限・発行者を検証し、クレームを返す。
// 発行者が許可リストに無い場合はJWKSを取得せずに ErrInvalidIssuer を返す。
func (v *IssuerVerifier) Verify(ctx context.Context, tokenString string) (jwt.MapClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: トークンが指定されていません", ErrInvalidToken)
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return v.keyFor(ctx, t)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("IDトークンの検証に失敗: %w", err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsAllowed は発行者が許可リストに含まれるかを返す。
func (v *IssuerVerifier) IsAllowed(issuer string) bool {
	_, ok := v.issuers[strings.TrimSpace(issuer)]
	return ok
}

// keyFor はトークンの発行者とkidから検証鍵を解決する。
func (v *IssuerVerifier) keyFor(ctx context.Context, t *jwt.Token) (any, error) {
	iss, err := t.Claims.GetIssuer()
	if err != nil || !v.IsAllowed(iss) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIssuer, iss)
	}

	kid, ok := t.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, fmt.Errorf("%w: ヘッダーにkidがありません", ErrInvalidToken)
	}

	set, err := v.keySet(ctx, JWKSURL(iss))
	if err != nil {
		return nil, err
	}

	key, found := set.LookupKeyID(kid)
	if !found {
		return nil, fmt.Errorf("%w: kid=%s", ErrKeyNotFound, kid)
	}

	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("署名鍵の変換に失敗: %w", err)
	}
	return raw, nil
}

// keySet はJWKS URLの鍵セットを返す。
// まだ一度も取得できていない場合はその場で取得し直す。
func (v *IssuerVerifier) keySet(ctx context.Context, jwksURL string) (jwk.Set, error) {
	if err := v.ensureRegistered(ctx, jwksURL); err != nil {
		return nil, err
	}

	if set, err := v.cache.Lookup(ctx, jwksURL); err == nil {
		return set, nil
	}

	set, err := v.cache.Refresh(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("JWKSの取得に失敗: %w", err)
	}
	return set, nil
}

// ensureRegistered はJWKS URLをキャッシュに登録する。登録は初回の検証時に遅延して行う。
// 初回取得の完了は待たないため、ロック中にネットワークI/Oは発生しない。
func (v *IssuerVerifier) ensureRegistered(ctx context.Context, jwksURL string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.registered[jwksURL]; ok {
		return nil
	}

	if err := v.cache.Register(ctx, jwksURL, jwk.WithWaitReady(false)); err != nil {
		if !v.cache.IsRegistered(ctx, jwksURL) {
			return fmt.Errorf("JWKS URLの登録に失敗: %w", err)
		}
	}
	v.registered[jwksURL] = struct{}{}
	return nil
}

// JWKSURL は発行者URLに対応するJWKSのURLを返す。
func JWKSURL(issuer string) string {
	return strings.TrimSuffix(strings.TrimSpace(issuer), "/") + jwksPath
}
