package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"cranewatch"
	"cranewatch/internal/client"
	"cranewatch/internal/dashboard"
	"cranewatch/internal/logger"

	"github.com/spf13/viper"
)

func main() {
	log := logger.Get(logger.InfoLevel)

	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	store := client.NewFileStore(viper.GetString("credential_file"))

	var mu sync.Mutex
	connected := false

	draw := func(frame string) {
		// Clear and repaint in place.
		fmt.Print("\033[H\033[2J")
		fmt.Println(frame)
	}

	feed := client.New(client.Config{
		URL:   viper.GetString("feed_url"),
		Store: store,
		OnSnapshot: func(snap cranewatch.TelemetrySnapshot) {
			mu.Lock()
			defer mu.Unlock()
			if !connected {
				return
			}
			draw(dashboard.Render(dashboard.Reduce(snap)))
		},
		OnStatus: func(up bool) {
			mu.Lock()
			defer mu.Unlock()
			connected = up
			if !up {
				draw(dashboard.RenderDisconnected())
			}
		},
		Log: log,
	})
	defer func() { _ = feed.Close() }()

	if err := feed.Connect(); err != nil {
		if err == client.ErrNoCredential {
			log.Fatalw("no credential found; sign in first and write the token to the credential file",
				"file", viper.GetString("credential_file"))
		}
		// Dial failures are retried by the client itself.
		log.Infow("initial connect failed, retrying", "err", err)
		draw(dashboard.RenderDisconnected())
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

func loadConfig() error {
	viper.AddConfigPath("configs")
	viper.SetConfigName("dashboard")
	viper.SetDefault("feed_url", "ws://localhost:8080/ws")
	viper.SetDefault("credential_file", ".cranewatch-token")
	if err := viper.ReadInConfig(); err != nil {
		// The dashboard can run entirely on defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}
