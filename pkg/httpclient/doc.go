// Package httpclient は外部WebhookへJSONを送信するHTTPクライアントを提供する。
//
// DiscordのチャンネルWebhookなど、送信先のURLが設定で決まる
// ベストエフォートの通知に使用する。リトライは行わない。
package httpclient
