package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cargobooking/internal/cache"
	intconfig "cargobooking/internal/config"
	intdb "cargobooking/internal/db"
	"cargobooking/internal/events"
	router "cargobooking/internal/http"
	"cargobooking/internal/http/handlers"
	"cargobooking/internal/storage"
	"cargobooking/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		utils.Log.Warn("file .env tidak ditemukan, memakai environment")
	}
	env := intconfig.LoadEnv()
	if err := env.Validate(); err != nil {
		utils.Log.Fatalf("Konfigurasi tidak lengkap: %v", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	utils.SetLevel(os.Getenv("LOG_LEVEL"))

	db := intconfig.ConnectDB(env)
	defer intconfig.CloseDB()

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	caps, err := intdb.ResolveCapabilities(startCtx, db, env.SchemaCapabilities)
	cancelStart()
	if err != nil {
		utils.Log.Fatalf("Gagal menentukan schema capabilities: %v", err)
	}
	utils.LogEvent("", "schema", "init", "capabilities="+caps.String())

	var bookingCache *cache.BookingCache
	if rdb := cache.NewRedisClient(env.RedisAddr, env.RedisPassword, env.RedisDB, false); rdb != nil {
		defer rdb.Close()
		bookingCache = cache.NewBookingCache(rdb, env.CacheTTL)
	} else if env.RedisAddr != "" {
		utils.LogWarn("", "cache", "init", "redis tidak bisa dihubungi, cache dimatikan")
	}

	handlers.SetDeps(handlers.Deps{
		Caps:          intdb.NewCapabilityStore(caps),
		Cache:         bookingCache,
		Events:        events.NewAMQPPublisher(env.RabbitMQURL),
		Receipts:      storage.FileReceiptStore{Dir: env.ReceiptDir},
		ElevatedRoles: env.ElevatedRoles,
	})

	r := router.NewRouter(env)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		utils.Log.Infof("Server berjalan di http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Log.Fatalf("Gagal menjalankan server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	utils.Log.Info("Mematikan server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.Log.Fatalf("Shutdown server gagal: %v", err)
	}

	utils.Log.Info("Server berhenti dengan aman.")
}
