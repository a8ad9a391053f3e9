package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/wire"
	"github.com/pandodao/drm-wallet/handler/api"
	"github.com/pandodao/drm-wallet/handler/hc"
	"github.com/pandodao/drm-wallet/state"
	"github.com/rs/cors"
	"github.com/spf13/viper"
)

var serverSet = wire.NewSet(
	provideAPIConfig,
	api.New,
	provideServer,
)

func provideAPIConfig(v *viper.Viper) api.Config {
	v.SetDefault("api.idempotency_ttl", 24*time.Hour)

	return api.Config{
		IdempotencyTTL: v.GetDuration("api.idempotency_ttl"),
	}
}

func provideServer(apiHandler *api.Server, store *state.Store) *http.Server {
	m := chi.NewMux()
	m.Use(middleware.RealIP)
	m.Use(middleware.Logger)
	m.Use(middleware.Recoverer)
	m.Use(cors.AllowAll().Handler)

	m.Mount("/api", apiHandler.Handler())
	m.Mount("/hc", hc.Handler(version, store))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", opt.port),
		Handler: m,
	}
}
