package cluster

import (
	"context"
	"fmt"
)

// 各シャードが返す結果のメッセージ。
const (
	errGuildNotFound  = "not found"
	errMemberNotFound = "member not found"
	msgAlreadyHasRole = "already has role"
)

// EvalContext はロール付与のブロードキャスト評価に渡すパラメータ。
type EvalContext struct {
	// ServerID は対象のギルドID。
	ServerID string
	// UserID は対象のDiscordユーザーID。
	UserID string
	// VerifiedRoleID は付与する認証済みロールのID。
	VerifiedRoleID string
	// GuestRoleID は認証後に剥奪するゲストロールのID。
	GuestRoleID string
}

// Outcome は1シャード分のロール付与結果。
type Outcome struct {
	// Success は処理が成功したかどうか。
	Success bool `json:"success"`
	// Message は補足メッセージ。
	Message string `json:"message,omitempty"`
	// Error は失敗理由。
	Error string `json:"error,omitempty"`
}

// EvalRoleGrant は1つのシャード上でロール付与を評価する。
// ギルドやメンバーが見つからないことは失敗のOutcomeとして返し、
// Discord APIの呼び出しに失敗した場合のみエラーを返す。
func EvalRoleGrant(ctx context.Context, shard Shard, ec EvalContext) (Outcome, error) {
	if !shard.HasGuild(ec.ServerID) {
		return Outcome{Success: false, Error: errGuildNotFound}, nil
	}

	member, err := shard.Member(ctx, ec.ServerID, ec.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("シャード%dでメンバー取得に失敗: %w", shard.ID(), err)
	}
	if member == nil {
		return Outcome{Success: false, Error: errMemberNotFound}, nil
	}

	if member.HasRole(ec.VerifiedRoleID) {
		return Outcome{Success: true, Message: msgAlreadyHasRole}, nil
	}

	if err := shard.AddRole(ctx, ec.ServerID, ec.UserID, ec.VerifiedRoleID); err != nil {
		return Outcome{}, fmt.Errorf("シャード%dでロール付与に失敗: %w", shard.ID(), err)
	}
	// ゲストロールは認証済みロールを付与した後に外す
	if ec.GuestRoleID != "" && member.HasRole(ec.GuestRoleID) {
		if err := shard.RemoveRole(ctx, ec.ServerID, ec.UserID, ec.GuestRoleID); err != nil {
			return Outcome{}, fmt.Errorf("シャード%dでゲストロール剥奪に失敗: %w", shard.ID(), err)
		}
	}

	return Outcome{Success: true}, nil
}
