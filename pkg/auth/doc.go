// Package auth はユーザー連携フローで使用する2種類のJWT検証を提供する。
//
// Discordボット自身が共有シークレットで署名したチャット識別トークンと、
// 外部の認証基盤が発行したIDトークン（発行者の許可リストとJWKSで検証）を扱う。
package auth
