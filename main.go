package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/MixinNetwork/cards/api"
	"github.com/MixinNetwork/cards/card"
	"github.com/MixinNetwork/cards/config"
	"github.com/MixinNetwork/cards/metrics"
	"github.com/MixinNetwork/cards/store"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bp := flag.String("d", "~/.mixin/cards/data", "database directory path")
	cp := flag.String("c", "~/.mixin/cards/config.toml", "configuration file path")
	flag.Parse()

	conf, err := config.Setup(expandHome(*cp))
	if err != nil {
		panic(err)
	}
	logger.SetLevel(conf.LogLevel)

	db, err := store.OpenBadger(ctx, expandHome(*bp))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	registry, err := card.NewRegistry(db, metrics.New(prometheus.DefaultRegisterer))
	if err != nil {
		panic(err)
	}
	err = bootstrap(ctx, registry, &conf.Collection)
	if err != nil {
		panic(err)
	}

	if conf.Messenger != nil {
		_, err = NewMessengerWorker(ctx, registry, conf.Messenger)
		if err != nil {
			panic(err)
		}
	}

	handler := api.NewHandler(registry, conf.HTTP.MaxPageSize)
	srv := &http.Server{
		Addr:              conf.HTTP.Addr,
		Handler:           api.NewRouter(handler, prometheus.DefaultGatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Printf("HTTP server listening on %s\n", conf.HTTP.Addr)
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	<-ctx.Done()
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = srv.Shutdown(sctx)
	logger.Printf("HTTP server shutdown => %v\n", err)
}

// bootstrap initializes the registry from the configuration on first start.
func bootstrap(ctx context.Context, registry *card.Registry, conf *config.CollectionConfig) error {
	c, err := registry.Collection(ctx)
	if errors.Is(err, card.ErrUninitialized) {
		return registry.Initialize(ctx, []byte(conf.Name), []byte(conf.Ticker))
	} else if err != nil {
		return err
	}
	if string(c.Name) != conf.Name || string(c.Ticker) != conf.Ticker {
		logger.Printf("collection %s (%s) differs from configuration %s (%s)\n", c.Name, c.Ticker, conf.Name, conf.Ticker)
	}
	return nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		usr, _ := user.Current()
		return filepath.Join(usr.HomeDir, path[2:])
	}
	return path
}
