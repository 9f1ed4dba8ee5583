// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// パニックリカバリとリクエストIDの採番・伝播を含む。
package middleware
