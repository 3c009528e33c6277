// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"density-api/internal/api"
	"density-api/internal/density"
	"density-api/internal/events"
	"density-api/internal/logger"
	"density-api/internal/middleware"
	"density-api/internal/migrate"
	"density-api/internal/places"
	"density-api/internal/scorecache"
	"density-api/internal/store"
	"density-api/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")
	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "/api"
	}
	l.Debug("config_api_base", "base", apiBase)

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		l.Error("db_ping_error", "err", err)
	} else {
		l.Info("db_ping_ok")
	}
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)

	// 评分缓存可选：Redis 不可用时直接查库
	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else if err := rc.Ping(context.Background()).Err(); err != nil {
		l.Error("redis_ping_error", "err", err)
		rc = nil
	} else {
		l.Info("redis_ping_ok")
		defer rc.Close()
	}

	params, err := density.ParamsFromEnv()
	if err != nil {
		l.Error("density_params_invalid", "err", err)
	}
	l.Info("density_params",
		"lookback", params.LookbackWindow, "recent", params.RecentWindow, "stale", params.StaleWindow,
		"radius_m", params.NeighborRadiusM, "decay_floor", params.DecayFloor, "max_bulk", params.MaxBulkPlaces)
	eng := density.NewEngine(st, params, density.WithLogger(l))

	pub := events.FromEnv()
	defer pub.Close()

	catalog := places.NewFromEnv()
	if !catalog.Configured() {
		l.Info("places_disabled", "reason", "no_service_key")
	}

	router := api.NewRouter(apiBase, api.Deps{
		Scorer:  eng,
		Reports: st,
		Catalog: catalog,
		Cache:   scorecache.NewFromEnv(rc),
		Events:  pub,
	})
	handler := logger.AccessMiddleware(l)(router)
	handler = middleware.Wrap(handler, l)

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	if os.Getenv("TLS_ENABLE") == "true" {
		certPath := os.Getenv("TLS_CERT_PATH")
		keyPath := os.Getenv("TLS_KEY_PATH")
		if certPath == "" {
			certPath = filepath.Join("data", "certs", "server.crt")
		}
		if keyPath == "" {
			keyPath = filepath.Join("data", "certs", "server.key")
		}
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "density-api.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		err = s.ListenAndServeTLS(certPath, keyPath)
	} else {
		l.Info("listening", "addr", addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("server_stopped")
}
