package main

import (
	"github.com/spf13/viper"

	"github.com/hrygo/arisu/internal/profile"
	"github.com/hrygo/arisu/store"
	"github.com/hrygo/arisu/store/db"
)

// profileFromViper resolves flags and the config file first; FromEnv then
// fills whatever is still unset, legacy variable names included.
func profileFromViper() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Data:    viper.GetString("data"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version,

		AIBaseURL:        viper.GetString("ai.base_url"),
		AIAPIKey:         viper.GetString("ai.api_key"),
		AIModel:          viper.GetString("ai.model"),
		AITemperature:    float32(viper.GetFloat64("ai.temperature")),
		AITokenBudget:    viper.GetInt("ai.token_budget"),
		AIMaxAttempts:    viper.GetInt("ai.max_attempts"),
		AIBackoffBase:    viper.GetDuration("ai.backoff_base"),
		AIBackoffMax:     viper.GetDuration("ai.backoff_max"),
		AIAttemptTimeout: viper.GetDuration("ai.attempt_timeout"),

		BotName:       viper.GetString("bot.name"),
		BotNumber:     viper.GetString("bot.number"),
		AdminNumber:   viper.GetString("bot.admin_number"),
		NotifyChat:    viper.GetString("bot.notify_chat"),
		StickerAuthor: viper.GetString("bot.sticker_author"),

		GoogleAPIKey:   viper.GetString("google.api_key"),
		GoogleSearchCX: viper.GetString("google.cx"),

		GatewaySecret:  viper.GetString("gateway.secret"),
		RateLimitRPS:   viper.GetFloat64("ratelimit.rps"),
		RateLimitBurst: viper.GetInt("ratelimit.burst"),
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// openStore opens the configured snapshot store for the offline commands.
func openStore() (*profile.Profile, *store.Store, error) {
	p, err := profileFromViper()
	if err != nil {
		return nil, nil, err
	}
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, nil, err
	}
	return p, store.New(driver, p), nil
}
