package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pandodao/drm-wallet/cmd/walletd/cmds"
	"github.com/pandodao/drm-wallet/service/address"
	"github.com/pandodao/drm-wallet/service/wallet"
	"github.com/pandodao/drm-wallet/worker/expirer"
	"github.com/pandodao/drm-wallet/worker/listener"
	"github.com/pandodao/drm-wallet/worker/persister"
	"github.com/pandodao/drm-wallet/worker/rebroadcaster"
	"github.com/pandodao/drm-wallet/worker/reconciler"
	"github.com/pandodao/drm-wallet/worker/syncer"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	opt struct {
		config string
		port   int
		debug  bool
		reset  bool
	}

	version = "0.0.1-src"
	commit  = versioninfo.Short()
)

func main() {
	flag.StringVar(&opt.config, "config", "config.yaml", "config file path")
	flag.IntVar(&opt.port, "port", 8080, "server port")
	flag.BoolVar(&opt.debug, "debug", false, "debug mode")
	flag.BoolVar(&opt.reset, "reset", false, "discard the persisted wallet state")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	v := initViper()
	logger := initLogger()

	// keygen runs before a key is configured, so it skips the injector
	if args := flag.Args(); len(args) > 0 && args[0] == "keygen" {
		params, err := provideAddressParams(v)
		if err != nil {
			logger.Error("provideAddressParams", "err", err)
			return
		}

		cmd := &cmds.Cmd{Codec: address.New(params)}
		if err := cmd.Run(ctx, args); err != nil {
			logger.Error("command failed", "err", err)
		}

		return
	}

	app, cleanup, err := setupApp(v, logger)
	if err != nil {
		logger.Error("setup failed", "err", err)
		return
	}

	defer cleanup()

	if args := flag.Args(); len(args) > 0 {
		if err := app.cmd.Run(ctx, args); err != nil {
			logger.Error("command failed", "err", err)
		}

		return
	}

	if err := app.wallets.Initialize(ctx); err != nil {
		logger.Error("wallets.Initialize", "err", err)
		return
	}

	logger.Info("drm wallet launched", "version", version, "commit", commit, "addr", app.svr.Addr)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.svr.ListenAndServe()
	})

	g.Go(func() error {
		<-ctx.Done()
		return app.svr.Shutdown(context.Background())
	})

	g.Go(func() error {
		return app.reconciler.Run(ctx)
	})

	g.Go(func() error {
		return app.syncer.Run(ctx)
	})

	g.Go(func() error {
		return app.listener.Run(ctx)
	})

	g.Go(func() error {
		return app.rebroadcaster.Run(ctx)
	})

	g.Go(func() error {
		return app.expirer.Run(ctx)
	})

	g.Go(func() error {
		return app.persister.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("wallet exit", "err", err)
	}
}

type app struct {
	svr           *http.Server
	wallets       *wallet.Service
	reconciler    *reconciler.Reconciler
	syncer        *syncer.Syncer
	listener      *listener.Listener
	rebroadcaster *rebroadcaster.Rebroadcaster
	expirer       *expirer.Expirer
	persister     *persister.Persister
	cmd           *cmds.Cmd
	logger        *slog.Logger
}

func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if opt.debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func initViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(opt.config)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		log.Panicln(err)
	}

	return v
}
