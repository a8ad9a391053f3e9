package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/wire"
	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/state"
	"github.com/pandodao/drm-wallet/store/db"
	"github.com/pandodao/drm-wallet/store/transaction"
	walletstore "github.com/pandodao/drm-wallet/store/wallet"
	"github.com/spf13/viper"
	"github.com/tsenart/nap"
)

var storeSet = wire.NewSet(
	provideDB,
	transaction.New,
	wire.Bind(new(core.TransactionStore), new(*transaction.Store)),
	walletstore.New,
	provideState,
)

func provideDB(v *viper.Viper) (*nap.DB, func(), error) {
	v.SetDefault("db.driver", db.DriverSQLite)
	v.SetDefault("db.dsn", "drm-wallet.db")

	driver := v.GetString("db.driver")
	dsn := v.GetString("db.dsn")

	for _, replica := range v.GetStringSlice("db.replicas") {
		dsn += ";" + replica
	}

	conn, err := nap.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Migrate(conn.Master(), db.MigrateData{Driver: driver}); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return conn, func() { _ = conn.Close() }, nil
}

// provideState restores the last saved root state. A state that fails
// validation stops the process unless --reset is given.
func provideState(states core.StateStore, logger *slog.Logger) (*state.Store, error) {
	ctx := context.Background()

	if opt.reset {
		logger.Warn("reset persisted wallet state")
		if err := states.Reset(ctx); err != nil {
			return nil, err
		}
	}

	saved, err := states.Load(ctx)
	if err == nil && saved != nil {
		err = state.Validate(*saved)
	}

	switch {
	case errors.Is(err, core.ErrCorruptedState):
		return nil, fmt.Errorf("%w: restart with --reset to discard it", err)
	case err != nil:
		return nil, err
	case saved == nil:
		return state.New(), nil
	}

	logger.Info("wallet state restored", "version", saved.Version, "transactions", len(saved.Wallet.Transactions))
	return state.NewWithState(*saved), nil
}
