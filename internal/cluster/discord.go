package cluster

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// DiscordShard はdiscordgoのゲートウェイセッション1本をシャードとして扱う。
// ギルドの有無はセッションのステートキャッシュで判定し、
// メンバー取得とロール操作はREST APIで行う。
type DiscordShard struct {
	// session はシャードに対応するDiscordセッション。
	session *discordgo.Session
}

// NewDiscordShard は既存のセッションからシャードを生成する。
func NewDiscordShard(session *discordgo.Session) *DiscordShard {
	return &DiscordShard{session: session}
}

// OpenDiscordShards はシャード数分のゲートウェイセッションを開く。
// 途中で失敗した場合は開いたセッションをすべて閉じる。
func OpenDiscordShards(botToken string, shardCount int) ([]*DiscordShard, error) {
	if shardCount < 1 {
		return nil, fmt.Errorf("シャード数が不正です: %d", shardCount)
	}

	shards := make([]*DiscordShard, 0, shardCount)
	closeAll := func() {
		for _, s := range shards {
			_ = s.Close()
		}
	}

	for i := range shardCount {
		session, err := discordgo.New("Bot " + botToken)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("シャード%dのセッション作成に失敗: %w", i, err)
		}
		session.ShardID = i
		session.ShardCount = shardCount
		session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

		if err := session.Open(); err != nil {
			closeAll()
			return nil, fmt.Errorf("シャード%dの接続に失敗: %w", i, err)
		}
		log.Printf("[Cluster] シャード%d/%dに接続しました", i, shardCount)
		shards = append(shards, NewDiscordShard(session))
	}
	return shards, nil
}

// ID はシャード番号を返す。
func (s *DiscordShard) ID() int {
	return s.session.ShardID
}

// HasGuild はステートキャッシュにギルドが存在するかを返す。
func (s *DiscordShard) HasGuild(guildID string) bool {
	if s.session.State == nil {
		return false
	}
	_, err := s.session.State.Guild(guildID)
	return err == nil
}

// Member はREST APIでメンバーを取得する。Unknown Memberの場合は nil, nil を返す。
func (s *DiscordShard) Member(ctx context.Context, guildID, userID string) (*Member, error) {
	m, err := s.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownMember(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("メンバー取得に失敗: %w", err)
	}
	return &Member{UserID: userID, Roles: m.Roles}, nil
}

// AddRole はメンバーにロールを付与する。
func (s *DiscordShard) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := s.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("ロール付与に失敗: %w", err)
	}
	return nil
}

// RemoveRole はメンバーからロールを剥奪する。
func (s *DiscordShard) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := s.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("ロール剥奪に失敗: %w", err)
	}
	return nil
}

// Close はゲートウェイセッションを閉じる。
func (s *DiscordShard) Close() error {
	return s.session.Close()
}

// isUnknownMember はエラーがメンバー不在を表すかを判定する。
func isUnknownMember(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMember {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
