package log

import (
	"fmt"

	logconfig "github.com/weisyn/shardsdk/internal/config/log"
	logInterface "github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/log"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ModuleParams 日志模块依赖
type ModuleParams struct {
	fx.In

	Options *logconfig.LogOptions `optional:"true"`
}

// ModuleOutput 日志模块输出
type ModuleOutput struct {
	fx.Out

	Logger    logInterface.Logger
	ZapLogger *zap.Logger
}

// Module 返回日志模块
func Module() fx.Option {
	return fx.Module("log",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 根据配置创建日志记录器并设为全局 logger
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger, err := New(logconfig.New(params.Options))
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("create logger: %w", err)
	}
	SetLogger(logger)
	return ModuleOutput{
		Logger:    logger,
		ZapLogger: logger.GetZapLogger(),
	}, nil
}
