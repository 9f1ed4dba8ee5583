package relay

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nao1215/discord-bot/internal/cluster"
	"github.com/nao1215/discord-bot/internal/config"
)

const (
	// basePath はコントローラのルートを登録するパスプレフィックス。
	basePath = "/v5/discord-bot"
	// serviceName はヘルスチェックで返すサービス名。
	serviceName = "Discord Bot Cluster API"
)

// IdentityVerifier は外部の認証基盤が発行したIDトークンを検証する。
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (jwt.MapClaims, error)
}

// RoleGranter はボットクラスタにロール付与を評価させる。
type RoleGranter interface {
	BroadcastRoleGrant(ctx context.Context, ec cluster.EvalContext) ([]cluster.Outcome, error)
}

// WebhookSender は外部WebhookへJSONを送信する。
type WebhookSender interface {
	Post(ctx context.Context, payload any) error
}

// Controller はボットクラスタAPIのルートとハンドラを持つ。
type Controller struct {
	// cfg は起動時に構築された設定。
	cfg *config.Config
	// verifier はIDトークンの検証器。
	verifier IdentityVerifier
	// granter はロール付与を行うボットクラスタ。
	granter RoleGranter
	// webhook はThrive通知の送信先。未設定の場合はnil。
	webhook WebhookSender
	// pending は送信中のWebhook通知。
	pending sync.WaitGroup
}

// NewController は新しいコントローラを生成する。
// webhookがnilの場合、記事公開の通知は送信されない。
func NewController(cfg *config.Config, verifier IdentityVerifier, granter RoleGranter, webhook WebhookSender) *Controller {
	return &Controller{
		cfg:      cfg,
		verifier: verifier,
		granter:  granter,
		webhook:  webhook,
	}
}

// Path はルートを登録するパスプレフィックスを返す。
func (ctl *Controller) Path() string {
	return basePath
}

// Register はルーターにAPIのルートを登録する。
func (ctl *Controller) Register(r gin.IRouter) {
	// ヘルスチェック
	r.GET("/health", ctl.handleHealth())

	webhooks := r.Group("/webhooks")
	{
		// Contentfulからの記事公開通知
		webhooks.POST("/thrive", ctl.handleThriveWebhook())
		// ログイン連携後のコールバック
		webhooks.GET("/verify-user", ctl.handleVerifyUser())
		// スラッシュコマンド登録
		webhooks.GET("/register-commands", ctl.handleRegisterCommands())
	}
}

// Wait は送信中のWebhook通知がすべて終わるまで待つ。
func (ctl *Controller) Wait() {
	ctl.pending.Wait()
}

// handleHealth はサービス名と作者を返すハンドラ。
func (ctl *Controller) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": serviceName, "author": ctl.cfg.Author})
	}
}

// handleRegisterCommands はスラッシュコマンド登録のハンドラ。
func (ctl *Controller) handleRegisterCommands() gin.HandlerFunc {
	return func(c *gin.Context) {
		// TODO: discordgoのApplicationCommandBulkOverwriteでギルドコマンドを登録する
		c.JSON(http.StatusNotImplemented, gin.H{"error": "未実装"})
	}
}
