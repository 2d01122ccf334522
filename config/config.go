// Package config loads the spellkit YAML configuration.
package config

import (
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/trace"

	"gomod.pri/spellkit/apollo"
	"gomod.pri/spellkit/apollo/portal"
	"gomod.pri/spellkit/rocketmq"
	storagetypes "gomod.pri/spellkit/storage/types"
	"gomod.pri/spellkit/xredis"
	"gomod.pri/spellkit/xutils/logutil"
)

type Config struct {
	Name      string         `json:",default=spellkit"`
	Log       logx.LogConf   `json:",optional"`
	Telemetry trace.Config   `json:",optional"`
	Notify    logutil.Config `json:",optional"`

	Dictionary DictionaryConf
	// Words seeds the reference engine; custom dictionary words are added on top.
	Words     []string `json:",optional"`
	WordsFile string   `json:",optional"`

	Apollo   apollo.Config           `json:",optional"`
	Portal   portal.Config           `json:",optional"`
	Redis    xredis.Config           `json:",optional"`
	Storage  storagetypes.Config     `json:",optional"`
	Consumer rocketmq.ConsumerConfig `json:",optional"`
	Producer rocketmq.ProducerConfig `json:",optional"`
}

type DictionaryConf struct {
	Path        string `json:",optional"`
	AtomicWrite bool   `json:",optional"`
	MirrorKey   string `json:",optional"`
}

func Load(file string) (Config, error) {
	var c Config
	if err := conf.Load(file, &c); err != nil {
		return Config{}, err
	}
	if c.Log.ServiceName == "" {
		c.Log.ServiceName = c.Name
	}
	if c.Telemetry.Name == "" {
		c.Telemetry.Name = c.Name
	}
	return c, nil
}
