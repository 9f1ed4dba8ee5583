package relay

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/discord-bot/pkg/contentful"
	"github.com/nao1215/discord-bot/pkg/httpclient"
	"github.com/nao1215/discord-bot/pkg/middleware"
)

const (
	// firstRevision は初回公開を表すリビジョン番号。
	firstRevision = 1
	// thriveCampaign は記事URLに付与するutm_campaignの値。
	thriveCampaign = "thrive-articles"
	// thriveMessagePrefix はチャンネルに投稿するメッセージの定型文。
	thriveMessagePrefix = "Hey, we have published a new article on Thrive. Have a look at it "
)

// ThriveEvent は記事公開Webhookから取り出した情報。
type ThriveEvent struct {
	// EntryID はエントリーの識別子。
	EntryID string
	// Slug は記事のスラッグ。
	Slug string
}

// discordMessage はDiscordチャンネルWebhookへ送るメッセージ。
type discordMessage struct {
	Content string `json:"content"`
}

// ArticleURL は記事URLのテンプレートにスラッグを埋め込み、UTMパラメータを付けたURLを返す。
// utm_campaignは常にthrive-articlesで上書きされる。
func ArticleURL(template string, utms map[string]string, slug string) string {
	q := url.Values{}
	for k, v := range utms {
		q.Set(k, v)
	}
	q.Set("utm_campaign", thriveCampaign)
	return fmt.Sprintf(template, url.PathEscape(slug)) + "?" + q.Encode()
}

// ThriveMessage はチャンネルに投稿する記事公開メッセージを返す。
func ThriveMessage(articleURL string) string {
	return thriveMessagePrefix + articleURL
}

// handleThriveWebhook はContentfulの記事公開Webhookを受けるハンドラ。
// 送信元には常に200を返し、初回公開の場合だけ非同期でチャンネルへ通知する。
func (ctl *Controller) handleThriveWebhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := middleware.GetRequestID(c)
		topic := contentful.Topic(c.GetHeader(contentful.TopicHeader))
		if topic != "" && topic != contentful.TopicEntryPublish {
			log.Printf("[Relay] 公開以外のトピックを受信しました: request_id=%s, topic=%s", requestID, topic)
		}

		entry, err := contentful.Decode(c.Request.Body)
		if err != nil {
			log.Printf("[Relay] Thrive Webhookのボディを解釈できません: request_id=%s, error=%v", requestID, err)
			c.Status(http.StatusOK)
			return
		}

		if entry.Sys.Revision != firstRevision {
			log.Printf("[Relay] 初回公開ではないため通知しません: request_id=%s, entry=%s, revision=%d",
				requestID, entry.Sys.ID, entry.Sys.Revision)
			c.Status(http.StatusOK)
			return
		}

		slug, err := contentful.DecodeField[string](entry, "slug", contentful.DefaultLocale)
		if err != nil {
			log.Printf("[Relay] スラッグを取得できません: request_id=%s, entry=%s, error=%v", requestID, entry.Sys.ID, err)
			c.Status(http.StatusOK)
			return
		}

		ev := ThriveEvent{EntryID: entry.Sys.ID, Slug: slug}
		log.Printf("[Relay] 記事が公開されました: request_id=%s, topic=%s, entry=%s, slug=%s",
			requestID, topic, ev.EntryID, ev.Slug)

		// 通知の完了を待たずに応答する
		ctx := httpclient.WithRequestID(context.WithoutCancel(c.Request.Context()), requestID)
		ctl.pending.Go(func() {
			ctl.announce(ctx, ev)
		})

		c.Status(http.StatusOK)
	}
}

// announce は記事公開メッセージをDiscordチャンネルWebhookへ送信する。
func (ctl *Controller) announce(ctx context.Context, ev ThriveEvent) {
	if ctl.webhook == nil {
		log.Printf("[Relay] Thrive Webhookが未設定のため通知しません: slug=%s", ev.Slug)
		return
	}

	msg := ThriveMessage(ArticleURL(ctl.cfg.ThriveArticleURL, ctl.cfg.UTMs, ev.Slug))
	if err := ctl.webhook.Post(ctx, discordMessage{Content: msg}); err != nil {
		log.Printf("[Relay] Discordへの通知に失敗: slug=%s, error=%v", ev.Slug, err)
		return
	}
	log.Printf("[Relay] Discordに通知しました: slug=%s", ev.Slug)
}
