package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/stake-plus/discord-democracy/src/data"
	"gorm.io/gorm"
)

const (
	// DefaultPollDuration is used when /invite omits the duration option.
	DefaultPollDuration = 3 * 24 * time.Hour
	// DefaultCheckInterval is how often the scheduler sweeps expired polls.
	DefaultCheckInterval = 60 * time.Second
)

type Config struct {
	Token         string
	GuildID       string
	MySQLDSN      string
	RedisURL      string
	PollDuration  time.Duration
	CheckInterval time.Duration
}

// Load reads configuration from the settings table with env fallbacks.
func Load(db *gorm.DB) Config {
	if err := data.LoadSettings(db); err != nil {
		// env fallbacks still work without the settings table
	}

	cfg := Config{
		Token:         getSetting("discord_token", "DISCORD_TOKEN", ""),
		GuildID:       getSetting("guild_id", "GUILD_ID", ""),
		MySQLDSN:      getenv("MYSQL_DSN", ""),
		RedisURL:      getenv("REDIS_URL", ""),
		PollDuration:  DefaultPollDuration,
		CheckInterval: DefaultCheckInterval,
	}

	if v := getSetting("poll_default_duration", "POLL_DEFAULT_DURATION", ""); v != "" {
		if d, err := ParseDuration(v); err == nil && d > 0 {
			cfg.PollDuration = d
		}
	}

	if v := getSetting("poll_check_interval", "POLL_CHECK_INTERVAL", ""); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.CheckInterval = time.Duration(secs) * time.Second
		}
	}

	return cfg
}

// ParseDuration extends time.ParseDuration with a day unit, so poll durations
// can be written as "3d" or "1d12h".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'd'); i >= 0 {
		days, err := strconv.Atoi(s[:i])
		if err != nil || days < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		rest := time.Duration(0)
		if tail := s[i+1:]; tail != "" {
			var perr error
			rest, perr = time.ParseDuration(tail)
			if perr != nil {
				return 0, fmt.Errorf("invalid duration %q: %w", s, perr)
			}
		}
		return time.Duration(days)*24*time.Hour + rest, nil
	}
	return time.ParseDuration(s)
}

func getSetting(name, envKey, def string) string {
	val := data.GetSetting(name)
	if val == "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = def
	}
	return val
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
