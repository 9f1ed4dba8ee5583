package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/discord-bot/pkg/middleware"
)

// Registrar はルートテーブルに自身のルートを登録するコントローラ。
type Registrar interface {
	// Path はルートを登録するパスプレフィックスを返す。
	Path() string
	// Register はルーターにルートを登録する。
	Register(r gin.IRouter)
}

// Server はボットクラスタAPIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// controllers はルートを登録するコントローラ一覧。
	controllers []Registrar
}

// NewServer は新しいサーバーを生成し、コントローラのルートを登録する。
func NewServer(port string, controllers ...Registrar) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:      router,
		port:        port,
		controllers: controllers,
	}
	s.setupRoutes()

	return s
}

// setupRoutes は各コントローラをパスプレフィックスの下に登録する。
func (s *Server) setupRoutes() {
	for _, ctl := range s.controllers {
		ctl.Register(s.router.Group(ctl.Path()))
	}
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルに停止する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Println("[Relay] サーバーを停止します")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("サーバーの停止に失敗: %w", err)
		}
		return nil
	}
}
