package sdkfx

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/weisyn/shardsdk/client"
	"github.com/weisyn/shardsdk/client/core/chain"
	"github.com/weisyn/shardsdk/client/pkg/config"
	logconfig "github.com/weisyn/shardsdk/internal/config/log"
	eventInterface "github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/shardsdk/pkg/types"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.NodeEndpoint = "http://127.0.0.1:1"
	cfg.ShardID = 3
	cfg.Metrics = true
	cfg.Log = &logconfig.LogOptions{Level: "error"}
	return cfg
}

func TestModuleProvidesClient(t *testing.T) {
	var (
		c   *client.Client
		cc  *chain.Client
		bus eventInterface.EventBus
	)
	app := fxtest.New(t,
		fx.Supply(testConfig()),
		fx.Provide(func() prometheus.Registerer { return prometheus.NewRegistry() }),
		Module(),
		fx.Populate(&c, &cc, &bus),
	)
	app.RequireStart()
	require.Equal(t, types.ShardID(3), c.ShardID())
	require.Same(t, c.Chain(), cc)
	require.NotNil(t, bus)
	app.RequireStop()
}

func TestModuleRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ShardID = 0

	var c *client.Client
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&c),
	)
	require.Error(t, app.Err())
}
