package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"presensi/internal/broadcast"
	"presensi/internal/config"
	"presensi/internal/lecturer"
	"presensi/internal/presence"
	"presensi/internal/queue"
	"presensi/internal/schedule"
	"presensi/internal/store"
)

// Worker consumes tag scans pushed by RFID gateways onto the scan queue and
// runs them through the same pipeline the API uses. Results are broadcast
// through redis pub/sub so observers connected to the API see them.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL, cfg.Timezone)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(db.Client); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	loc := cfg.Location()
	dayNames, err := schedule.ParseDayNames(cfg.DayNames)
	if err != nil {
		log.Fatalf("day names: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	// Gateways push over redis; an in-process queue has no publisher in a
	// standalone worker, so redis is the only backend here.
	q := queue.NewRedisQueue(redisClient.Client, "presensi:scans")

	lecturers := lecturer.NewRepository(db.Client)
	days := schedule.NewRepository(db.Client)
	presences := presence.NewRepository(db.Client, loc)
	resolver := schedule.NewResolver(days, dayNames, loc)
	broker := broadcast.NewRedis(redisClient.Client, "presensi:")
	scans := presence.NewService(lecturers, resolver, days, presences, broker)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for scans...")
	for msg := range messages {
		if msg.Type != "scan" {
			continue
		}

		tagID := strings.TrimSpace(string(msg.Body))
		if tagID == "" {
			continue
		}

		result, err := scans.HandleScan(ctx, tagID)
		switch {
		case err == nil:
			log.Printf("scan %s: recorded %s (%s)", tagID, result.Lecturer.Name, result.Record.ID)
		case presence.IsScanError(err):
			log.Printf("scan %s: rejected: %v", tagID, err)
		default:
			// fault detail already logged by the scan service
			log.Printf("scan %s: not recorded", tagID)
		}
	}

	log.Println("worker stopped")
}
