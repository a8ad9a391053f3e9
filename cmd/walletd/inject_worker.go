package main

import (
	"time"

	"github.com/google/wire"
	"github.com/pandodao/drm-wallet/worker/expirer"
	"github.com/pandodao/drm-wallet/worker/listener"
	"github.com/pandodao/drm-wallet/worker/persister"
	"github.com/pandodao/drm-wallet/worker/rebroadcaster"
	"github.com/pandodao/drm-wallet/worker/reconciler"
	"github.com/pandodao/drm-wallet/worker/syncer"
	"github.com/spf13/viper"
)

var workerSet = wire.NewSet(
	provideReconcilerConfig,
	reconciler.New,
	wire.Bind(new(syncer.Queue), new(*reconciler.Reconciler)),
	wire.Bind(new(listener.Queue), new(*reconciler.Reconciler)),
	wire.Bind(new(rebroadcaster.Queue), new(*reconciler.Reconciler)),
	wire.Bind(new(expirer.Queue), new(*reconciler.Reconciler)),
	syncer.New,
	listener.New,
	provideRebroadcasterConfig,
	rebroadcaster.New,
	provideExpirerConfig,
	expirer.New,
	persister.New,
)

func provideReconcilerConfig(v *viper.Viper) reconciler.Config {
	v.SetDefault("reconciler.queue_size", 256)

	return reconciler.Config{
		QueueSize: v.GetInt("reconciler.queue_size"),
	}
}

func provideRebroadcasterConfig(v *viper.Viper) rebroadcaster.Config {
	v.SetDefault("rebroadcast.interval", 30*time.Second)
	v.SetDefault("rebroadcast.rate", 5)

	return rebroadcaster.Config{
		Interval: v.GetDuration("rebroadcast.interval"),
		Rate:     v.GetFloat64("rebroadcast.rate"),
	}
}

func provideExpirerConfig(v *viper.Viper) expirer.Config {
	v.SetDefault("expirer.pending_timeout", 30*time.Minute)

	return expirer.Config{
		PendingTimeout: v.GetDuration("expirer.pending_timeout"),
	}
}
