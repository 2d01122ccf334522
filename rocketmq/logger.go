package rocketmq

import (
	"os"
	"sync"

	rmq "github.com/apache/rocketmq-clients/golang/v5"
)

const defaultLogDir = "./rocketmqlogs"

var loggerOnce sync.Once

// LogConf controls where the client library writes its own logs.
type LogConf struct {
	Dir     string `json:",default=./rocketmqlogs"`
	Level   string `json:",default=warn,options=debug|info|warn|error"`
	Console bool   `json:",default=true"`
}

// SetLogger applies conf to the client logger. Only the first call per
// process takes effect; the client reads these settings from the environment.
func SetLogger(conf LogConf) {
	loggerOnce.Do(func() {
		if conf.Dir == "" {
			conf.Dir = defaultLogDir
		}
		if conf.Level == "" {
			conf.Level = "warn"
		}
		console := "false"
		if conf.Console {
			console = "true"
		}
		os.Setenv(rmq.CLIENT_LOG_ROOT, conf.Dir)
		os.Setenv(rmq.ENABLE_CONSOLE_APPENDER, console)
		os.Setenv(rmq.CLIENT_LOG_LEVEL, conf.Level)
		rmq.ResetLogger()
	})
}
