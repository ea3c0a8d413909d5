//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"cardshop/internal/config"
)

func InitApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infraSet,
		serviceSet,
		handlerSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
