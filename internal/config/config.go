package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"

	"communitybot/lib/validate"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type TelegramConfig struct {
	ApiKey      string `yaml:"api_key" env:"BOT_TOKEN" env-default:"" validate:"required"`
	GroupId     int64  `yaml:"group_id" env-default:"0"`
	ChannelId   int64  `yaml:"channel_id" env-default:"0"`
	ChannelName string `yaml:"channel_name" env-default:"" validate:"required"`
	AdminId     int64  `yaml:"admin_id" env-default:"0"`
}

type CheckinConfig struct {
	Points   int64  `yaml:"points" env-default:"20"`
	Timezone string `yaml:"timezone" env-default:"Asia/Shanghai"`
}

type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env-default:"0"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"communitybot"`
}

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Checkin  CheckinConfig  `yaml:"checkin"`
	Redis    RedisConfig    `yaml:"redis"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Listen   Listen         `yaml:"listen"`
	Env      string         `yaml:"env" env-default:"local"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
		if err = validate.Struct(instance); err != nil {
			instance = nil
			log.Fatal(fmt.Errorf("config: %w", err))
		}
	})
	return instance
}
