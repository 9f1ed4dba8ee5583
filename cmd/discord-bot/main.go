// Discordボットクラスタ APIのエントリポイント。
// シャードを起動し、記事公開の通知とログイン連携によるロール付与を受け付ける。
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/discord-bot/internal/cluster"
	"github.com/nao1215/discord-bot/internal/config"
	"github.com/nao1215/discord-bot/internal/relay"
	"github.com/nao1215/discord-bot/pkg/auth"
	"github.com/nao1215/discord-bot/pkg/httpclient"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		log.Fatalf("Discordボットクラスタ APIの起動に失敗: %v", err)
	}
}

// run は依存を組み立ててサーバーを起動し、ctxがキャンセルされるまでブロックする。
// 終了時はシャードを切断し、送信中のWebhook通知を待ってから戻る。
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	verifier, err := auth.NewIssuerVerifier(ctx, auth.IssuerVerifierConfig{ValidIssuers: cfg.ValidIssuers})
	if err != nil {
		return fmt.Errorf("IDトークン検証器の初期化に失敗: %w", err)
	}

	discordShards, err := cluster.OpenDiscordShards(cfg.BotToken, cfg.ShardCount)
	if err != nil {
		return fmt.Errorf("Discordシャードの起動に失敗: %w", err)
	}
	shards := make([]cluster.Shard, 0, len(discordShards))
	for _, s := range discordShards {
		shards = append(shards, s)
	}
	botCluster := cluster.New(shards...)
	defer func() {
		if err := botCluster.Close(); err != nil {
			log.Printf("Discordシャードの切断に失敗: %v", err)
		}
	}()

	var webhook relay.WebhookSender
	if cfg.ThriveWebhookURL != "" {
		webhook = httpclient.New(cfg.ThriveWebhookURL)
	}
	ctl := relay.NewController(cfg, verifier, botCluster, webhook)
	defer ctl.Wait()
	server := relay.NewServer(cfg.Port, ctl)

	log.Printf("Discordボットクラスタ APIを起動します: :%s, shards=%d", cfg.Port, len(shards))
	return server.Run(ctx)
}
