package http_server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abrar71/swaggerfilesv2" // swagger embed files

	"chatsyncgo/internal/auth"
	"chatsyncgo/internal/http/authhandler"
	"chatsyncgo/internal/http/chathandler"
	"chatsyncgo/internal/http/middleware"
	"chatsyncgo/internal/ws"
)

type httpServer struct {
	listenPort  uint16
	srv         http.Server
	ln          net.Listener
	wsSrv       *ws.WsServer
	authHandler *authhandler.Handler
	chatHandler *chathandler.Handler
	verifier    *auth.Verifier
	ctx         context.Context
}

func NewHttpServer(ctx context.Context, listenPort uint16, wsSrv *ws.WsServer,
	authHandler *authhandler.Handler, chatHandler *chathandler.Handler,
	verifier *auth.Verifier) *httpServer {
	return &httpServer{
		listenPort:  listenPort,
		wsSrv:       wsSrv,
		authHandler: authHandler,
		chatHandler: chatHandler,
		verifier:    verifier,
		ctx:         ctx,
	}
}

func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	routerEngine := gin.New()

	// Swagger UI and API specs
	routerEngine.StaticFS("/swagger-apis", http.FS(swaggerfilesv2.FS))
	routerEngine.Static("/api-specs", "api_specs")

	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	routerEngine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// websocket endpoint; the bearer token is checked in the handshake
	routerEngine.GET("/ws", h.wsSrv.Handle)

	// REST API
	h.authHandler.Register(routerEngine)
	h.chatHandler.Register(routerEngine, middleware.RequireAuth(h.verifier))

	h.srv = http.Server{
		Handler: routerEngine,
	}

	return h.srv.Serve(h.ln)
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in-flight requests to finish.
func (h *httpServer) Dispose() error {
	ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err // e.g. active conns didn't finish in time
	}

	if ctx.Err() == context.DeadlineExceeded {
		zap.L().Error("http_dispose", zap.Error(errors.New("shutdown timed out")))
		log.Println("shutdown timeout (10 s)")
	}

	return nil
}
