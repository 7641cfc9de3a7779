package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fight-club-sim/internal/api"
	"fight-club-sim/internal/config"
	"fight-club-sim/internal/desync"
	"fight-club-sim/internal/rollback"
	"fight-club-sim/internal/scheduler"
	"fight-club-sim/internal/world"
)

func main() {
	log.Println("================================")
	log.Println(" DETERMINISTIC SIM ENGINE")
	log.Println("================================")

	appConfig := config.Load()
	log.Printf("config: %d tick/s, map %dx%d tiles, %d max players",
		appConfig.Sim.TickRateHz, appConfig.Map.WidthTiles, appConfig.Map.HeightTiles, appConfig.Sim.MaxPlayers)

	localSlot := getEnvInt("SIM_LOCAL_SLOT", 0)
	sessionSeed := int32(getEnvInt("SIM_SESSION_SEED", int(time.Now().UnixNano()%int64(rand.Int31()))))

	w := world.New(appConfig)
	sched := scheduler.Default(w, appConfig)
	sched.SetSessionSeed(sessionSeed)

	loop := rollback.NewLoop(sched, w, appConfig.Sim.MaxPlayers, int64(appConfig.Rollback.MaxFramesAheadOfConfirmed),
		appConfig.Rollback.SnapshotRingSize, localSlot)

	detector := desync.NewDetector()
	validator := desync.NewValidator()
	validator.Start()

	status := api.NewStatusPublisher()

	loop.OnFrameAdvanced = func(frame int64, snapshot []byte) {
		if !validator.Submit(frame, snapshot) {
			log.Printf("desync validator queue full, skipping hash for frame %d", frame)
		}
		for _, res := range validator.DrainResults() {
			detector.RecordLocal(res.Frame, res.Hash)
		}
		if detector.Detected() {
			api.RecordDesyncDetected()
		}

		s := api.Status{
			CurrentFrame:     frame,
			ConnectedPlayers: appConfig.Sim.MaxPlayers,
			Stalled:          loop.Stalled(),
			Snapshot:         snapshot,
			SnapshotHash:     desync.HashSnapshot(snapshot),
		}
		if mismatch, ok := detector.FirstMismatch(); ok {
			s.DesyncDetected = true
			s.DesyncFrame = mismatch.Frame
		}
		status.Publish(s)
	}

	rateLimiter := api.NewIPRateLimiter(api.DefaultRateLimitConfig)
	server := api.NewServer(status, rateLimiter)

	go func() {
		addr := ":" + strconv.Itoa(appConfig.Server.Port)
		log.Printf("introspection server on http://localhost%s (healthz, debugz/snapshot, metrics)", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("introspection server failed: %v", err)
		}
	}()

	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("debug server disabled: %v", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(appConfig.Sim.TickRateHz))
	defer ticker.Stop()

	log.Println("simulation running, press Ctrl+C to stop")
runLoop:
	for {
		select {
		case <-quit:
			break runLoop
		case start := <-ticker.C:
			loop.RunOneIteration()
			api.RecordFrame(time.Since(start))
		}
	}

	log.Println("shutting down...")
	validator.Shutdown(2 * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	log.Println("goodbye")
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
