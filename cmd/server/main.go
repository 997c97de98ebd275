package main

import (
	"flag"
	"log"

	approuters "github.com/Amaechina-Ikechukwu/involved-chat-api/internal/app_routers"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/configuration"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	container, err := configuration.BuildContainer(*configPath)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	defer container.Close()

	approuters.StartServer(container)
}
