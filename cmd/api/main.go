package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/NaiduPavan213/MindMile/internal/auth"
	"github.com/NaiduPavan213/MindMile/internal/post"
	postrepo "github.com/NaiduPavan213/MindMile/internal/post/repo"
	"github.com/NaiduPavan213/MindMile/internal/router"
	"github.com/NaiduPavan213/MindMile/internal/user"
	userrepo "github.com/NaiduPavan213/MindMile/internal/user/repo"
	"github.com/NaiduPavan213/MindMile/pkg/database"
	"github.com/NaiduPavan213/MindMile/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.NewLogger(utilities.LogConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting mindmile api")

	// token config is mandatory: refuse to start without a signing secret
	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("auth config: %v", err)
	}
	tokens := auth.NewService(authCfg)

	// init db
	cfg := database.ConfigFromEnv()
	sqlDB, err := database.Connect(cfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	// wrap with sqlx for convenience in repos/services
	db := sqlx.NewDb(sqlDB, "postgres")
	defer db.Close()

	// bootstrap schema
	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelBoot()
	userRepo := userrepo.NewUserRepo(db)
	if err := userRepo.EnsureTable(bootCtx); err != nil {
		sugar.Fatalf("ensure users table: %v", err)
	}
	postRepo := postrepo.NewPostRepo(db)
	if err := postRepo.EnsureTable(bootCtx); err != nil {
		sugar.Fatalf("ensure posts tables: %v", err)
	}

	// wire services and handlers
	userSvc := user.NewService(db, userRepo, nil)
	userHandler := user.NewHandler(userSvc, tokens, sugar)
	postSvc := post.NewService(db, postRepo, userRepo, sugar)
	postHandler := post.NewHandler(postSvc, sugar)

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "5000"
	}

	// mount http server
	handler := router.RegisterRoutes(sugar, tokens, userHandler, postHandler)
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: handler,
	}

	// run server in background
	go func() {
		sugar.Infow("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
