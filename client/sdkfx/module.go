// Package sdkfx wires the SDK client into an fx application.
package sdkfx

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/weisyn/shardsdk/client"
	"github.com/weisyn/shardsdk/client/core/chain"
	"github.com/weisyn/shardsdk/client/pkg/config"
	logconfig "github.com/weisyn/shardsdk/internal/config/log"
	"github.com/weisyn/shardsdk/internal/core/infrastructure/event"
	"github.com/weisyn/shardsdk/internal/core/infrastructure/log"
	eventInterface "github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/event"
	logInterface "github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/log"
)

// ModuleParams 客户端模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Config     *config.Config
	Logger     logInterface.Logger
	Registerer prometheus.Registerer   `optional:"true"`
	EventBus   eventInterface.EventBus `optional:"true"`
}

// ModuleOutput 客户端模块输出
type ModuleOutput struct {
	fx.Out

	Client *client.Client
	Chain  *chain.Client
}

// Module 返回 SDK 模块（包含日志与事件模块）
//
// 调用方需要 fx.Supply(*config.Config)；可选提供 prometheus.Registerer。
func Module() fx.Option {
	return fx.Module("shardsdk",
		log.Module(),
		event.Module(),
		fx.Provide(
			logOptions,
			ProvideServices,
		),
	)
}

// logOptions 日志配置取自客户端配置
func logOptions(cfg *config.Config) *logconfig.LogOptions {
	return cfg.Log
}

// ProvideServices 创建客户端并在应用停止时关闭传输
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	var opts []client.Option
	if params.EventBus != nil {
		opts = append(opts, client.WithEventBus(params.EventBus))
	}
	c, err := client.NewFromConfig(context.Background(), params.Config, params.Logger, params.Registerer, opts...)
	if err != nil {
		return ModuleOutput{}, err
	}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if timeout := params.Config.ReadyTimeout.Std(); timeout > 0 {
				if err := c.WaitReady(ctx, timeout); err != nil {
					return err
				}
			}
			params.Logger.Infof("shard client ready: shard=%d endpoint=%s", c.ShardID(), params.Config.NodeEndpoint)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			_ = params.Logger.Sync()
			return c.Close()
		},
	})

	return ModuleOutput{
		Client: c,
		Chain:  c.Chain(),
	}, nil
}
