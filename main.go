package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lms/config"
	playerControllers "lms/controllers/player"
	progressControllers "lms/controllers/progress"
	"lms/player"
	"lms/progress"
	"lms/resolver"
	playerRoutes "lms/routers/playerRoutes"
	progressRoutes "lms/routers/progressRoutes"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()

	httpTimeout := time.Duration(config.AppConfig.HttpTimeoutSec) * time.Second

	manager := player.NewManager()
	trackers := progress.NewRegistry(config.AppConfig.ProgressApiURL, httpTimeout)

	playerControllers.Manager = manager
	playerControllers.Resolver = resolver.NewClient(config.AppConfig.ContentApiURL, config.AppConfig.ContentApiKey, httpTimeout)
	playerControllers.Trackers = trackers
	progressControllers.Trackers = trackers

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	playerRoutes.SetupPlayerRoutes(app)
	progressRoutes.SetupProgressRoutes(app)

	reaper := utils.InitializeSessionReaper(manager)

	// Graceful shutdown: close sessions and drain in-flight completion mutations
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down...")
		reaper.Stop()
		manager.Shutdown()
		trackers.Wait()
		app.Shutdown()
	}()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	if err := app.Listen(":" + config.AppConfig.Port); err != nil {
		log.Fatal(err)
	}
}
