package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/spf13/viper"

	"github.com/ponyo877/chatroom/server/adaptor"
	"github.com/ponyo877/chatroom/server/domain"
	"github.com/ponyo877/chatroom/server/repository"
	"github.com/ponyo877/chatroom/server/service"
	"github.com/ponyo877/chatroom/server/usecase"
)

func main() {
	loadConfig()

	db, err := repository.Open(viper.GetString("db_path"))
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()
	if err := repository.Migrate(db); err != nil {
		log.Fatalf("failed to migrate db: %v", err)
	}

	rp := repository.NewRepository(db)
	registry := domain.NewRegistry()

	services := usecase.Services{
		Bot: service.NewBot(service.BotConfig{
			APIURL: viper.GetString("bot.api_url"),
			APIKey: viper.GetString("bot.api_key"),
			Model:  viper.GetString("bot.model"),
			Prompt: viper.GetString("bot.prompt"),
		}),
		Weather: service.NewWeatherAPI(service.WeatherConfig{
			URL:   viper.GetString("commands.weather.url"),
			Token: viper.GetString("commands.weather.token"),
		}),
		Music: service.NewMusicAPI(service.MusicConfig{
			URL:   viper.GetString("commands.music.url"),
			Token: viper.GetString("commands.music.token"),
		}),
		News: service.NewNewsAPI(service.NewsConfig{
			URL: viper.GetString("commands.news.url"),
		}),
		Video: service.NewVideoAPI(service.VideoConfig{
			ParsingURL: viper.GetString("commands.video.parsing_url"),
			Sources:    viper.GetStringSlice("commands.video.sources"),
		}),
	}

	uc := usecase.NewChatUsecase(rp, registry, services)
	uc.SetHistoryLimit(viper.GetInt("history_limit"))
	uc.SetBotMention(viper.GetString("bot.mention"))

	http.Handle("/ws", adaptor.NewHandler(uc))
	http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(uc.Stats()); err != nil {
			log.Printf("failed to write stats: %v", err)
		}
	})

	addr := viper.GetString("listen_addr")
	log.Printf("Server is running on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func loadConfig() {
	viper.SetConfigName("chatroom")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/chatroom")
	viper.AutomaticEnv()

	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("db_path", "./chatroom.db")
	viper.SetDefault("history_limit", 50)
	viper.SetDefault("bot.mention", "@小助手")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("failed to read config: %v", err)
		}
	}
}
