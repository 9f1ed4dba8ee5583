package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/discord-bot/internal/cluster"
	"github.com/nao1215/discord-bot/pkg/auth"
	"github.com/nao1215/discord-bot/pkg/middleware"
)

// errMissingParams はコールバックのクエリパラメータが不足していることを表す。
var errMissingParams = errors.New("discord と token のクエリパラメータが必要です")

// chatTokenError はチャット識別トークンの検証失敗を表す。500として応答する。
type chatTokenError struct {
	err error
}

func (e *chatTokenError) Error() string { return e.err.Error() }

func (e *chatTokenError) Unwrap() error { return e.err }

// identityTokenError はIDトークンの検証失敗を表す。400として応答する。
type identityTokenError struct {
	err error
}

func (e *identityTokenError) Error() string { return e.err.Error() }

func (e *identityTokenError) Unwrap() error { return e.err }

// handleVerifyUser はログイン連携後のコールバックを受けるハンドラ。
// 検証に成功すると全シャードでロール付与を評価し、先頭シャードの結果で応答を決める。
func (ctl *Controller) handleVerifyUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := middleware.GetRequestID(c)

		outcomes, err := ctl.verifyUser(c.Request.Context(), c.Query("discord"), c.Query("token"))
		if err != nil {
			var (
				chatErr *chatTokenError
				idErr   *identityTokenError
			)
			switch {
			case errors.As(err, &idErr):
				log.Printf("[Relay] IDトークンが無効です: request_id=%s, error=%v", requestID, err)
				c.String(http.StatusBadRequest, "Bad Request: %v", idErr.err)
			case errors.As(err, &chatErr):
				log.Printf("[Relay] チャット識別トークンが無効です: request_id=%s, error=%v", requestID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			default:
				log.Printf("[Relay] ユーザー検証に失敗: request_id=%s, error=%v", requestID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		// 判定に使うのは先頭シャードの結果だけ
		if len(outcomes) > 0 && outcomes[0].Success {
			c.Redirect(http.StatusFound, ctl.cfg.VerifySuccessRedirect)
			return
		}
		c.JSON(http.StatusOK, outcomes)
	}
}

// verifyUser はチャット識別トークンとIDトークンを検証し、ロール付与をブロードキャストする。
func (ctl *Controller) verifyUser(ctx context.Context, chatToken, identityToken string) ([]cluster.Outcome, error) {
	if chatToken == "" || identityToken == "" {
		return nil, &chatTokenError{err: errMissingParams}
	}

	chat, err := auth.VerifyChatToken(ctl.cfg.ChatTokenSecret, chatToken)
	if err != nil {
		return nil, &chatTokenError{err: err}
	}

	claims, err := ctl.verifier.Verify(ctx, identityToken)
	if err != nil {
		return nil, &identityTokenError{err: err}
	}
	log.Printf("[Relay] ユーザーを検証しました: discord_user=%s, handle=%v", chat.Data.UserID, claims["handle"])

	outcomes, err := ctl.granter.BroadcastRoleGrant(ctx, cluster.EvalContext{
		ServerID:       ctl.cfg.ServerID,
		UserID:         chat.Data.UserID,
		VerifiedRoleID: ctl.cfg.VerifyRoleID,
		GuestRoleID:    ctl.cfg.GuestRoleID,
	})
	if err != nil {
		return nil, fmt.Errorf("ロール付与のブロードキャストに失敗: %w", err)
	}
	return outcomes, nil
}
