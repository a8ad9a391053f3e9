package asset

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/asaskevich/govalidator"
	"github.com/pandodao/drm-wallet/core"
	"github.com/zyedidia/generic/cache"
)

type Config struct {
	Assets []core.Asset `valid:"required"`
}

func New(cfg Config) core.AssetService {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	assets := make(map[string]*core.Asset, len(cfg.Assets))
	for _, a := range cfg.Assets {
		symbol := core.NormalizeSymbol(a.Symbol)
		if symbol == "" || a.Precision < 0 {
			panic(fmt.Errorf("invalid asset %+v", a))
		}

		assets[symbol] = &core.Asset{Symbol: symbol, Precision: a.Precision}
	}

	return &service{
		assets: assets,
		cache:  cache.New[string, *core.Asset](256),
	}
}

type service struct {
	assets map[string]*core.Asset

	cache *cache.Cache[string, *core.Asset]
	mux   sync.Mutex
}

func (s *service) Find(_ context.Context, symbol string) (*core.Asset, error) {
	symbol = core.NormalizeSymbol(symbol)

	s.mux.Lock()
	v, ok := s.cache.Get(symbol)
	s.mux.Unlock()
	if ok {
		return v, nil
	}

	v, ok = s.assets[symbol]
	if !ok {
		return nil, &core.BuildError{Kind: core.BuildUnknownAsset, Err: fmt.Errorf("symbol %q", symbol)}
	}

	s.mux.Lock()
	s.cache.Put(symbol, v)
	s.mux.Unlock()

	return v, nil
}

func (s *service) List(_ context.Context) ([]*core.Asset, error) {
	list := make([]*core.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		list = append(list, a)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Symbol < list[j].Symbol
	})

	return list, nil
}
