// Package config はプロセス起動時に一度だけ構築する設定を提供する。
//
// シークレットやDiscordのIDは環境変数から、発行者の許可リストや
// UTMパラメータなどの静的な値はJSONファイルから読み込む。
package config
