package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/attendance/internal/config"
)

// setupLogging configures the global zerolog logger: human-readable output
// in development, JSON lines otherwise.
func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(cfg.LogLevel)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
		gin.SetMode(gin.DebugMode)
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "attendance").Logger()
	gin.SetMode(gin.ReleaseMode)
}
