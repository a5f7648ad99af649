//go:build wireinject
// +build wireinject

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/glengine/internal/core/config"
)

func InitializeApp(cfg config.Config) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
