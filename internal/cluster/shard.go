package cluster

import (
	"context"
	"slices"
)

// Member はギルドに所属するメンバーのスナップショット。
type Member struct {
	// UserID はDiscordのユーザーID。
	UserID string
	// Roles はメンバーが保持するロールIDの一覧。
	Roles []string
}

// HasRole はメンバーが指定したロールを保持しているかを返す。
func (m *Member) HasRole(roleID string) bool {
	return slices.Contains(m.Roles, roleID)
}

// Shard はボットクラスタを構成する1つのシャード。
type Shard interface {
	// ID はシャード番号を返す。
	ID() int
	// HasGuild はシャードのキャッシュにギルドが存在するかを返す。
	HasGuild(guildID string) bool
	// Member はギルドのメンバーを取得する。存在しない場合は nil, nil を返す。
	Member(ctx context.Context, guildID, userID string) (*Member, error)
	// AddRole はメンバーにロールを付与する。
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	// RemoveRole はメンバーからロールを剥奪する。
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
}
