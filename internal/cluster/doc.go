// Package cluster はDiscordボットのシャード群に対するブロードキャスト評価を提供する。
//
// 各シャードは担当するサーバー（ギルド）のキャッシュだけを持つため、
// 同じ処理を全シャードに投げて結果をシャード順に集める。
// ロール付与の結果はシャード0の結果だけを採用する。
package cluster
