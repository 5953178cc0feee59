package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"heartdash/internal/config"
	"heartdash/internal/container"
	"heartdash/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	// Create dependency injection container
	appContainer, err := container.New(context.Background(), appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	// Initialize web server
	server, err := ui.NewServer(appContainer.Renderer, appContainer.Source)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			log.Printf("🚀 Performance profiling server starting on :%s", appConfig.Profiling.Port)
			log.Printf("💡 View profiles: go tool pprof -http=:8081 http://localhost:%s/debug/pprof/profile?seconds=30", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				log.Printf("❌ pprof server failed: %v", err)
			}
		}()
	}

	// Start the server
	log.Printf("🚀 Starting clinical dashboard on port %s", appConfig.Server.Port)
	if err := server.Start(":" + appConfig.Server.Port); err != nil {
		log.Printf("❌ Server stopped: %v", err)
	}
}
