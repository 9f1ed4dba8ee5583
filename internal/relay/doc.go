// Package relay はDiscordボットクラスタ向けのHTTP APIを提供する。
//
// ContentfulのWebhookを受けてDiscordチャンネルへ記事公開を通知し、
// ログイン連携のコールバックでユーザーを検証して認証済みロールを付与する。
// 各ハンドラはリクエストの解釈、外部APIの呼び出し、レスポンスへの変換だけを行う。
package relay
