package main

import (
	"flag"
	"log"
	"log/slog"
	"path/filepath"
	"time"

	"communitybot/bot"
	"communitybot/impl/auth"
	"communitybot/impl/core"
	"communitybot/impl/verify"
	"communitybot/internal/config"
	"communitybot/internal/database"
	"communitybot/internal/http-server/api"
	"communitybot/internal/store"
	"communitybot/lib/logger"
	"communitybot/lib/sl"
)

const logFileName = "communitybot.log"

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	lg.Info("starting communitybot",
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		sl.Secret("bot_token", conf.Telegram.ApiKey),
	)

	loc, err := time.LoadLocation(conf.Checkin.Timezone)
	if err != nil {
		log.Fatal("invalid timezone: ", conf.Checkin.Timezone)
	}

	st, err := store.NewRedis(conf.Redis, lg)
	if err != nil {
		log.Fatal("connecting to redis: ", err)
	}
	defer func() {
		_ = st.Close()
	}()

	db := database.NewMongoClient(conf)

	tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
	if err != nil {
		log.Fatal("creating telegram bot: ", err)
	}

	// Mirror errors to the admin chat; everything constructed below logs
	// through the wrapped handler.
	if conf.Telegram.AdminId != 0 {
		lg = slog.New(logger.NewAdminHandler(lg.Handler(), tgBot, slog.LevelError))
	}

	groupConf := core.GroupConfig{
		GatedGroupId: conf.Telegram.GroupId,
		ChannelId:    conf.Telegram.ChannelId,
		ChannelName:  conf.Telegram.ChannelName,
		BotUsername:  tgBot.Username(),
	}

	var registry core.Registry
	if db != nil {
		registry = db
	}
	botCore := core.New(st, registry, groupConf, loc, conf.Checkin.Points, lg)
	if db != nil {
		botCore.SetAuthService(auth.New(db))
	}
	botCore.SetActions(tgBot)
	botCore.SetVerifier(verify.New(tgBot, conf.Telegram.ChannelId, lg))
	tgBot.SetCore(botCore)

	go func() {
		if err := api.New(conf, lg, botCore); err != nil {
			lg.Error("api server stopped", sl.Err(err))
		}
	}()

	if err := tgBot.Start(); err != nil {
		log.Fatal("starting telegram bot: ", err)
	}
}
