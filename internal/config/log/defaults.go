package log

// 日志配置默认值
const (
	// defaultLogLevel SDK 默认只输出 info 及以上
	defaultLogLevel = "info"

	// defaultToConsole 作为库被嵌入时默认输出到 stderr
	defaultToConsole = true

	// defaultFilePath 为空表示不写文件
	defaultFilePath = ""

	// === 日志轮转配置 ===

	// defaultMaxSize 单个日志文件最大大小(MB)
	defaultMaxSize = 50

	// defaultMaxBackups 最大备份文件数
	defaultMaxBackups = 5

	// defaultMaxAge 日志文件最大保留天数
	defaultMaxAge = 14

	// defaultCompress 压缩历史日志
	defaultCompress = true

	// defaultEnableCaller 默认关闭调用者信息
	defaultEnableCaller = false
)
