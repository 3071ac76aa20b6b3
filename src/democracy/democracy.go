package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/discord-democracy/src/bot"
	"github.com/stake-plus/discord-democracy/src/config"
	"github.com/stake-plus/discord-democracy/src/data"
)

func main() {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		log.Fatal("MYSQL_DSN not set")
	}

	db := data.MustMySQL(dsn)

	cfg := config.Load(db)
	if cfg.Token == "" {
		log.Fatal("DISCORD_TOKEN not set in database or environment")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb = data.MustRedis(cfg.RedisURL)
	}

	b, err := bot.New(cfg, db, rdb)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	if err := b.Start(); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}

	log.Println("Democracy bot is running. Press CTRL-C to exit.")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	b.Stop()
	log.Println("Democracy bot stopped gracefully")
}
