package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"betterfiction/internal/api"
	"betterfiction/internal/auth"
	"betterfiction/internal/store"
	synchub "betterfiction/internal/sync"
	"betterfiction/pkg/database"
	"betterfiction/pkg/utils"
)

func main() {
	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	st := store.New(db)

	// install-time housekeeping: defaults merge, legacy keys, date migration
	installCtx, installCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := st.Install(installCtx); err != nil {
		log.Fatalf("store install failed: %v", err)
	}
	installCancel()

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	srvCfg := utils.LoadServerConfig()

	// Start TCP sync first (so you notice binding errors early)
	hub := synchub.NewHub()
	router.GET("/ws", synchub.WSHandler(hub))
	tcpSrv := synchub.NewServer(srvCfg.SyncAddr, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/debug", func(c *gin.Context) {
		stats := hub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"db":          cfg.Path,
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	// Device pairing
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc, authCfg.PairHash)
	authHandler.RegisterRoutes(router.Group("/auth"))

	handler := api.NewHandler(st, hub)

	// Reads stay open; writes require a paired device.
	handler.RegisterReads(router.Group("/messages"))
	protected := router.Group("/messages")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))
	handler.RegisterWrites(protected)

	storeGroup := router.Group("/store")
	storeGroup.Use(auth.AuthMiddleware(tokenSvc, authRepo))
	handler.RegisterStore(storeGroup)
	authHandler.RegisterProtected(storeGroup)

	httpSrv := &http.Server{
		Addr:    srvCfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", srvCfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
