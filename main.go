package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"google.golang.org/api/option"

	"clinic-roster/docs"
	"clinic-roster/internal/platform/config"
	"clinic-roster/internal/platform/db"
	"clinic-roster/internal/platform/gsheet"
	"clinic-roster/internal/platform/logger"
	"clinic-roster/internal/roster"
	"clinic-roster/internal/sheets"
)

// @title       Clinic Roster API
// @version     1.0
// @description Sign-up import, per-clinic attendance sheets and roster exports.
// @BasePath    /api/v1
func main() {
	// 設定読み込み
	path := config.DefaultPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Mode)
	log.Infof("mode:%s", cfg.Mode)

	ctx := context.Background()

	// ストア
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	// シート取得
	fetcher, err := newFetcher(ctx, cfg, log)
	if err != nil {
		log.Fatal(err)
	}

	policy, err := sheets.ParsePolicy(cfg.Storage.Policy)
	if err != nil {
		log.Fatal(err)
	}
	order, err := cfg.Order()
	if err != nil {
		log.Fatal(err)
	}
	enc, err := roster.ParseEncoding(cfg.Export.Encoding)
	if err != nil {
		log.Fatal(err)
	}
	svc := sheets.NewService(store, fetcher, log, sheets.Options{
		Policy:         policy,
		CreateOnDemand: cfg.Storage.CreateOnDemand,
		DefaultSession: cfg.Storage.DefaultSession,
		DisplayOrder:   order,
		Clinics:        cfg.Clinics,
		Encoding:       enc,
	})
	log.Infof("storage:%s policy:%s", cfg.Storage.Driver, svc.Policy())

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		// CORS（開発中のみ必要）
		origins := cfg.Server.AllowOrigin
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     []string{"Origin", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// swagger
	docs.SwaggerInfo.BasePath = "/api/v1"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// /api/v1
	api := r.Group("/api/v1")
	sheets.RegisterRoutes(api, svc)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		var err error
		if cfg.TLS() {
			certFile := fmt.Sprintf("config/tls/%s/%s", cfg.Mode, cfg.Server.Certificate.Cert)
			keyFile := fmt.Sprintf("config/tls/%s/%s", cfg.Mode, cfg.Server.Certificate.Key)
			log.Infof("listening on https://%s", cfg.Server.Addr)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Infof("listening on http://%s", cfg.Server.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Fatal(err)
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (sheets.Store, func(), error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn("memory storage: data is lost on restart")
		return sheets.NewMemStore(), func() {}, nil
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Infof("connected to DB: %s", cfg.DB.DBName)

	n, err := db.EnsureSchema(ctx, conn, cfg.Storage.DefaultSession)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if n > 0 {
		log.Infof("stamped session %q on %d groups", cfg.Storage.DefaultSession, n)
	}
	return sheets.NewMySQLStore(conn), func() { closeDB(conn, log) }, nil
}

func closeDB(conn *sql.DB, log *logrus.Logger) {
	if err := conn.Close(); err != nil {
		log.WithError(err).Warn("db close")
	}
}

func newFetcher(ctx context.Context, cfg *config.Config, log *logrus.Logger) (gsheet.Fetcher, error) {
	var f gsheet.Fetcher
	if cfg.Sheets.APIKey != "" {
		api, err := gsheet.NewAPIFetcher(ctx, cfg.Sheets.Range, option.WithAPIKey(cfg.Sheets.APIKey))
		if err != nil {
			return nil, err
		}
		f = api
		log.Info("sheets: api v4")
	} else {
		f = gsheet.NewCSVExportFetcher(cfg.Sheets.Timeout)
		log.Info("sheets: public csv export")
	}

	cc := cfg.Sheets.Cache
	if cc.RedisAddr == "" {
		return f, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cc.RedisAddr, Password: cc.Password, DB: cc.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		// キャッシュなしでも動く
		log.WithError(err).Warn("redis unavailable, sheet cache disabled")
		return f, nil
	}
	log.Infof("sheet cache: redis %s ttl=%s", cc.RedisAddr, cc.TTL)
	return &gsheet.CachedFetcher{
		Next:   f,
		Cache:  gsheet.NewRedisCache(rdb),
		TTL:    cc.TTL,
		Prefix: cc.Prefix,
		Log:    log,
	}, nil
}
