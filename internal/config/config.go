package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	// defaultThriveArticleURL はThrive記事URLの既定テンプレート。%s にスラッグが入る。
	defaultThriveArticleURL = "https://www.topcoder.com/thrive/articles/%s"
	// defaultAuthor はヘルスチェックで返す作者名の既定値。
	defaultAuthor = "Kiril Kartunov"
)

// Env は環境変数から読み込む設定。
type Env struct {
	// Port はサーバーのリッスンポート。
	Port string `env:"PORT" envDefault:"8080"`
	// ConfigFile は静的設定JSONファイルのパス。
	ConfigFile string `env:"CONFIG_FILE" envDefault:"config/config.json"`
	// BotToken はDiscordボットのトークン。
	BotToken string `env:"DISCORD_BOT_TOKEN"`
	// ChatTokenSecret はチャット識別トークンの署名シークレット。未設定時はBotTokenを使う。
	ChatTokenSecret string `env:"CHAT_TOKEN_SECRET"`
	// ServerID はロールを付与するDiscordサーバー（ギルド）のID。
	ServerID string `env:"DISCORD_SERVER_ID"`
	// VerifyRoleID は認証済みユーザーに付与するロールのID。
	VerifyRoleID string `env:"DISCORD_VERIFY_ROLE_ID"`
	// GuestRoleID は認証後に剥奪するゲストロールのID。
	GuestRoleID string `env:"DISCORD_GUEST_ROLE_ID"`
	// VerifySuccessRedirect はロール付与成功時のリダイレクト先。
	VerifySuccessRedirect string `env:"VERIFY_SUCCESS_REDIRECT"`
	// ThriveWebhookURL は記事公開を通知するDiscordチャンネルWebhookのURL。
	ThriveWebhookURL string `env:"DISCORD_THRIVE_WEBHOOK"`
	// ShardCount はボットクラスタのシャード数。
	ShardCount int `env:"DISCORD_SHARD_COUNT" envDefault:"1"`
}

// File はJSONファイルから読み込む静的設定。
type File struct {
	// ValidIssuers は信頼するIDトークン発行者の一覧。
	ValidIssuers []string `json:"validIssuers"`
	// UTMs は記事URLに付与するトラッキングパラメータ。
	UTMs map[string]string `json:"UTMs"`
	// ThriveArticleURL は記事URLのテンプレート。
	ThriveArticleURL string `json:"thriveArticleURL"`
	// Author はヘルスチェックで返す作者名。
	Author string `json:"author"`
}

// Config はアプリケーション全体の設定。
type Config struct {
	Env
	File
}

// Load はプロセスの環境変数とJSONファイルから設定を読み込む。
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom は指定した環境変数マップとJSONファイルから設定を読み込む。
// environがnilの場合はプロセスの環境変数を使う。
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg.Env, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}

	file, err := LoadFile(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	cfg.File = *file

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile は静的設定JSONファイルを読み込む。
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("設定ファイルのパースに失敗: path=%s: %w", path, err)
	}
	return &f, nil
}

// applyDefaults は未設定の項目に既定値を入れる。
func (c *Config) applyDefaults() {
	if c.ChatTokenSecret == "" {
		c.ChatTokenSecret = c.BotToken
	}
	if c.ThriveArticleURL == "" {
		c.ThriveArticleURL = defaultThriveArticleURL
	}
	if c.Author == "" {
		c.Author = defaultAuthor
	}
	if c.UTMs == nil {
		c.UTMs = map[string]string{}
	}
}

// Validate は必須項目が揃っているかを検証する。
func (c *Config) Validate() error {
	var errs []error
	required := []struct {
		name  string
		value string
	}{
		{"DISCORD_BOT_TOKEN", c.BotToken},
		{"DISCORD_SERVER_ID", c.ServerID},
		{"DISCORD_VERIFY_ROLE_ID", c.VerifyRoleID},
		{"VERIFY_SUCCESS_REDIRECT", c.VerifySuccessRedirect},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s が設定されていません", r.name))
		}
	}
	if len(c.ValidIssuers) == 0 {
		errs = append(errs, errors.New("validIssuers が設定されていません"))
	}
	if c.ShardCount < 1 {
		errs = append(errs, fmt.Errorf("DISCORD_SHARD_COUNT が不正です: %d", c.ShardCount))
	}
	if strings.Count(c.ThriveArticleURL, "%s") != 1 {
		errs = append(errs, fmt.Errorf("thriveArticleURL には %%s を1つだけ含めてください: %q", c.ThriveArticleURL))
	}
	return errors.Join(errs...)
}
