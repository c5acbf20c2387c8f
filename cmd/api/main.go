package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"presensi/internal/auth"
	"presensi/internal/broadcast"
	"presensi/internal/cloudinary"
	"presensi/internal/config"
	"presensi/internal/httpmiddleware"
	"presensi/internal/lecturer"
	"presensi/internal/metrics"
	"presensi/internal/presence"
	"presensi/internal/schedule"
	"presensi/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL, cfg.Timezone)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(db.Client); err != nil {
		return err
	}

	loc := cfg.Location()
	dayNames, err := schedule.ParseDayNames(cfg.DayNames)
	if err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var broker broadcast.Broker
	if cfg.BroadcastBackend == "memory" {
		broker = broadcast.NewMemory()
	} else {
		broker = broadcast.NewRedis(redisClient.Client, "presensi:")
	}

	lecturers := lecturer.NewRepository(db.Client)
	days := schedule.NewRepository(db.Client)
	presences := presence.NewRepository(db.Client, loc)
	admins := auth.NewRepository(db.Client)
	resolver := schedule.NewResolver(days, dayNames, loc)
	scans := presence.NewService(lecturers, resolver, days, presences, broker)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := admins.Seed(context.Background(), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Printf("admin seed failed: %v", err)
		}
	}

	var cdnClient *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdnClient = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		admin, err := admins.FindByEmail(c.Request.Context(), req.Email)
		if err != nil {
			log.Printf("admin lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal failure"})
			return
		}
		if admin == nil || !auth.CheckPassword(admin.Password, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		token, err := auth.IssueAdmin(admin.ID, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token": token.Value,
			"expires_at":   token.ExpiresAt.Unix(),
			"username":     admin.Username,
		})
	})

	// Scan ingest for interactive scanning clients. The response body is the
	// private acknowledgment; observers get the broadcast via /v1/stream.
	r.POST("/v1/scan", func(c *gin.Context) {
		var req struct {
			TagID string `json:"tag_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := scans.HandleScan(c.Request.Context(), req.TagID)
		if err != nil {
			c.JSON(scanStatus(err), gin.H{"error": scanMessage(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":  presence.SuccessMessage,
			"lecturer": result.Lecturer,
			"record":   result.Record,
		})
	})

	// Live attendance stream for dashboards. Each observer receives every
	// successful scan exactly once for the lifetime of its connection.
	r.GET("/v1/stream", func(c *gin.Context) {
		events, cancel := broker.Subscribe(broadcast.TopicPresence, 16)
		defer cancel()
		metrics.Observers.Inc()
		defer metrics.Observers.Dec()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		clientGone := c.Request.Context().Done()
		keepAlive := time.NewTicker(30 * time.Second)
		defer keepAlive.Stop()

		c.Stream(func(_ io.Writer) bool {
			select {
			case evt, ok := <-events:
				if !ok {
					return false
				}
				c.SSEvent("presence", string(evt.Payload))
				return true
			case <-keepAlive.C:
				c.SSEvent("ping", time.Now().Unix())
				return true
			case <-clientGone:
				return false
			}
		})
	})

	adminGroup := r.Group("/v1/admin", auth.AdminAuth(cfg.JWTSigningKey, cfg.JWTIssuer))
	registerAdminRoutes(adminGroup, lecturers, days, presences, cdnClient, loc)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming responses must not be cut off
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// scanStatus maps pipeline errors to HTTP statuses. Storage faults are a
// generic 500.
func scanStatus(err error) int {
	switch {
	case errors.Is(err, presence.ErrNotRegistered), errors.Is(err, presence.ErrDayNotConfigured):
		return http.StatusNotFound
	case errors.Is(err, presence.ErrNotScheduledToday), errors.Is(err, presence.ErrDuplicateToday):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// scanMessage returns the fixed user-facing message for a scan failure.
// Internal faults are already logged by the scan service; here they only
// get the generic message.
func scanMessage(err error) string {
	if presence.IsScanError(err) {
		return err.Error()
	}
	return "internal failure"
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
