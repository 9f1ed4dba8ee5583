// Package contentful はContentfulのWebhookペイロードを扱う型を提供する。
//
// エントリーのsysメタデータ（リビジョン番号など）と、
// ロケールごとに値を持つフィールドのデコードを扱う。
package contentful
