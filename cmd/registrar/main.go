package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"voting-kiosk/capture"
	"voting-kiosk/config"
	"voting-kiosk/election"
	"voting-kiosk/log"
	"voting-kiosk/models"
	"voting-kiosk/registry"
	"voting-kiosk/service"
	"voting-kiosk/storage"
)

func main() {
	cfg, err := config.Load(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel, "stderr")

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	journal, err := storage.NewJournal(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to open session journal: %v", err)
	}

	table, err := loadTable(cfg.CandidateFile)
	if err != nil {
		log.Fatalf("failed to load candidate table: %v", err)
	}

	backend, err := registry.NewHTTPClient(cfg.BackendURL)
	if err != nil {
		log.Fatalf("invalid backend URL: %v", err)
	}
	camera := &capture.SpoolSource{Dir: cfg.FrameDir}

	timing := service.DefaultTiming()
	timing.SettleDelay = cfg.SettleDelay

	enroller := &service.Enroller{
		Backend:    backend,
		Timing:     timing,
		Journal:    journal,
		FailClosed: cfg.DuplicateFailClosed,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	health, err := backend.Health(ctx)
	if err != nil {
		log.Fatalf("registry backend unreachable: %v", err)
	}
	if !health.FingerprintConnected {
		log.Warn("fingerprint scanner not connected; enrollment will fail until it is")
	}

	reader := bufio.NewReader(os.Stdin)
	for ctx.Err() == nil {
		if err := registerOne(ctx, enroller, camera, table, reader); err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Printf("Registration failed: %v\n\n", err)
		}
	}
	fmt.Println()
}

func loadTable(path string) (*election.CandidateTable, error) {
	if path == "" {
		return election.DefaultTable(), nil
	}
	return election.LoadTable(path)
}

func registerOne(ctx context.Context, enroller *service.Enroller, camera capture.Source, table *election.CandidateTable, reader *bufio.Reader) error {
	fmt.Println("--- New voter registration ---")

	name, err := prompt(reader, "Full name: ")
	if err != nil {
		return err
	}
	voterID, err := prompt(reader, "Voter ID: ")
	if err != nil {
		return err
	}
	fmt.Printf("Constituencies: %s\n", strings.Join(table.Constituencies(), ", "))
	constituency, err := prompt(reader, "Constituency: ")
	if err != nil {
		return err
	}
	constituency = models.NormalizeConstituency(constituency)
	if _, ok := table.ConstituencyIndex(constituency); !ok {
		return fmt.Errorf("unknown constituency %q", constituency)
	}

	fmt.Println("Capturing face photo...")
	faceData, err := captureFace(ctx, camera)
	if err != nil {
		return err
	}

	fmt.Println("Place the finger on the sensor for the duplicate check...")
	err = enroller.RegisterVoter(ctx, models.Enrollment{
		Name:         name,
		VoterID:      voterID,
		Constituency: constituency,
		FaceData:     faceData,
	})
	switch {
	case errors.Is(err, service.ErrDuplicateFingerprint):
		return fmt.Errorf("this fingerprint is already enrolled")
	case errors.Is(err, service.ErrEnrollTimeout):
		return fmt.Errorf("fingerprint enrollment timed out, try again")
	case err != nil:
		return err
	}

	fmt.Printf("Voter %s registered.\n\n", models.NormalizeVoterID(voterID))
	return nil
}

func captureFace(ctx context.Context, camera capture.Source) (string, error) {
	stream, err := camera.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("camera unavailable: %w", err)
	}
	defer stream.Release()

	frame, err := stream.Capture(ctx)
	if err != nil {
		return "", fmt.Errorf("face capture failed: %w", err)
	}
	return capture.EncodeFrame(frame)
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
