package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/attendance/internal/attendance"
	"github.com/Nixie-Tech-LLC/attendance/internal/config"
	"github.com/Nixie-Tech-LLC/attendance/internal/db"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/api"
	attendanceapi "github.com/Nixie-Tech-LLC/attendance/internal/http/api/attendance/endpoints"
	authapi "github.com/Nixie-Tech-LLC/attendance/internal/http/api/auth/endpoints"
	participantapi "github.com/Nixie-Tech-LLC/attendance/internal/http/api/participants/endpoints"
	programapi "github.com/Nixie-Tech-LLC/attendance/internal/http/api/programs/endpoints"
	yatraapi "github.com/Nixie-Tech-LLC/attendance/internal/http/api/yatras/endpoints"
	"github.com/Nixie-Tech-LLC/attendance/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/attendance/internal/metrics"
	"github.com/Nixie-Tech-LLC/attendance/internal/storage"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Config  *config.Config
	Store   db.Store
	Service *attendance.Service
	Storage storage.Storage
	Health  map[string]HealthCheck
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, deps Deps) {
	r.Use(middleware.RequestLogger())

	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Disposition",
		},
		AllowCredentials: false,
	}))

	r.GET("/health", healthHandler(deps.Health))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
	},
		authapi.AuthPublicModule(deps.Config.JWTSecret, deps.Store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: deps.Config.JWTSecret,
		Store:     deps.Store,
	},
		authapi.AuthSessionModule(deps.Config.JWTSecret, deps.Store),
		participantapi.ParticipantModule(deps.Store, deps.Storage),
		attendanceapi.AttendanceModule(deps.Store, deps.Service),
		programapi.ProgramModule(deps.Store, deps.Service),
		yatraapi.YatraModule(deps.Store),
	)

	// Static content
	if !deps.Config.UseSpaces {
		r.Static(localUploadURL, localUploadDir)
	}
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}
