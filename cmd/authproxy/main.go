package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stayonbrand/gatekeeper/internal/logging"
	"github.com/stayonbrand/gatekeeper/internal/server/authproxy"
	"github.com/stayonbrand/gatekeeper/internal/server/identity"
)

func main() {
	logger := logging.NewJSON(os.Stdout)
	config := authproxy.LoadConfig()

	rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
	defer rdb.Close()

	provider := identity.NewDevProvider(rdb, []byte(config.JWTSecret), config.TokenTTL, logger)
	server := authproxy.NewServer(config, provider, rdb, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigs
		cancel()
	}()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("%v", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown error", "error", err)
	}
}
