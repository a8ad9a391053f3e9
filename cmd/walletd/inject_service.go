package main

import (
	"github.com/google/wire"
	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/drm-wallet/service/address"
	"github.com/pandodao/drm-wallet/service/asset"
	"github.com/pandodao/drm-wallet/service/feed"
	"github.com/pandodao/drm-wallet/service/keystore"
	"github.com/pandodao/drm-wallet/service/network"
	"github.com/pandodao/drm-wallet/service/transfer"
	"github.com/pandodao/drm-wallet/service/wallet"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

var serviceSet = wire.NewSet(
	provideAddressParams,
	address.New,
	provideAssetConfig,
	asset.New,
	provideSigner,
	provideNetworkConfig,
	network.New,
	provideRedis,
	provideFeedConfig,
	feed.New,
	transfer.New,
	wallet.New,
)

func provideAddressParams(v *viper.Viper) (address.Params, error) {
	params := address.DefaultParams
	if v.IsSet("address") {
		if err := v.UnmarshalKey("address", &params); err != nil {
			return params, err
		}
	}

	return params, nil
}

func provideAssetConfig(v *viper.Viper) (asset.Config, error) {
	cfg := asset.Config{
		Assets: []core.Asset{{Symbol: "DRM", Precision: 8}},
	}

	if v.IsSet("assets") {
		if err := v.UnmarshalKey("assets", &cfg.Assets); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func provideSigner(v *viper.Viper, codec core.AddressCodec) (core.Signer, error) {
	return keystore.New(codec, v.GetString("wallet.private_key"))
}

func provideNetworkConfig(v *viper.Viper) network.Config {
	return network.Config{
		Endpoint: v.GetString("network.endpoint"),
		Timeout:  v.GetDuration("network.timeout"),
	}
}

func provideRedis(v *viper.Viper) (*redis.Client, func(), error) {
	v.SetDefault("redis.url", "redis://localhost:6379/0")

	opts, err := redis.ParseURL(v.GetString("redis.url"))
	if err != nil {
		return nil, nil, err
	}

	client := redis.NewClient(opts)
	return client, func() { _ = client.Close() }, nil
}

func provideFeedConfig(v *viper.Viper) feed.Config {
	v.SetDefault("feed.channel", "drm:events")

	return feed.Config{
		Channel: v.GetString("feed.channel"),
	}
}
