package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courtside/classes"
	"courtside/earnings"
	"courtside/ledger"
	"courtside/ledgerstore"
	"courtside/logging"
	"courtside/mq"
	"courtside/profile"
	"courtside/ratelim"
	"courtside/rdx"
	"courtside/routes"
	"courtside/wallet"
	"courtside/watch"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request method, path, remote address, and duration.
func requestLogger(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.RequestURI),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// health is a simple health check handler.
func health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found; using system environment")
	}

	log := logging.New(os.Getenv("ENV"))
	defer log.Sync()

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	// core wiring: mongo-backed store, managers, redis-dispatched accrual
	store := ledgerstore.New()
	directory := profile.NewDirectory(log)
	balances := ledger.NewBalanceManager(store, log)
	earningsMgr := ledger.NewEarningsManager(store, log)
	publisher := mq.NewAccrualPublisher(rdx.Conn, earningsMgr, log)
	registry := ledger.NewClassRegistry(store, balances, publisher, directory, log)

	hub := watch.NewHub(log)
	registry.SetNotifier(hub)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	go mq.StartAccrualWorker(workerCtx, rdx.Conn, earningsMgr, log)

	rateLimiter := ratelim.NewRateLimiter()
	walletHandler := wallet.NewHandler(balances, log)
	classHandler := classes.NewHandler(registry, walletHandler.Lock, log)
	earningsHandler := earnings.NewHandler(earningsMgr, log)

	router := httprouter.New()
	router.GET("/health", health)
	routes.AddAuthRoutes(router, rateLimiter)
	routes.AddProfileRoutes(router, rateLimiter)
	routes.AddWalletRoutes(router, rateLimiter, walletHandler)
	routes.AddClassRoutes(router, rateLimiter, classHandler)
	routes.AddEarningsRoutes(router, rateLimiter, earningsHandler)
	routes.AddWatchRoutes(router, hub)

	// CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := requestLogger(log, securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		stopWorker()
		hub.Stop()
	})

	go func() {
		log.Info("server listening", zap.String("addr", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("graceful shutdown failed", zap.Error(err))
	}

	log.Info("server stopped cleanly")
}
