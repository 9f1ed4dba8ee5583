package cluster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"
)

// Cluster はシャード群をまとめたボットクラスタ。
type Cluster struct {
	// shards はシャード番号順に並んだシャード一覧。
	shards []Shard
}

// New はシャード一覧から新しいクラスタを生成する。
// シャードの並び順がブロードキャスト結果の並び順になる。
func New(shards ...Shard) *Cluster {
	return &Cluster{shards: shards}
}

// Broadcast は全シャードでfnを並行に評価し、結果をシャード順に返す。
// いずれかのシャードがエラーを返した場合は全体を失敗とする。
// 他のシャードの評価はキャンセルせず、ロール操作を途中で打ち切らない。
func Broadcast[T any](ctx context.Context, shards []Shard, fn func(ctx context.Context, s Shard) (T, error)) ([]T, error) {
	results := make([]T, len(shards))

	var g errgroup.Group
	for i, s := range shards {
		g.Go(func() error {
			r, err := fn(ctx, s)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ブロードキャスト評価に失敗: %w", err)
	}
	return results, nil
}

// BroadcastRoleGrant は全シャードにロール付与を評価させ、シャードごとの結果を返す。
// 呼び出し側は先頭（シャード0）の結果だけで成否を判断する。
// 対象メンバーがシャード0以外にしか見えない場合も失敗として扱われる点に注意。
func (c *Cluster) BroadcastRoleGrant(ctx context.Context, ec EvalContext) ([]Outcome, error) {
	outcomes, err := Broadcast(ctx, c.shards, func(ctx context.Context, s Shard) (Outcome, error) {
		return EvalRoleGrant(ctx, s, ec)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Cluster] ロール付与を評価しました: server=%s, user=%s, shards=%d", ec.ServerID, ec.UserID, len(outcomes))
	return outcomes, nil
}

// Close はio.Closerを実装するシャードをすべて閉じる。
func (c *Cluster) Close() error {
	var errs []error
	for _, s := range c.shards {
		if closer, ok := s.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("シャード%dの切断に失敗: %w", s.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
