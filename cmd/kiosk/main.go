package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"voting-kiosk/api"
	"voting-kiosk/capture"
	"voting-kiosk/config"
	"voting-kiosk/election"
	"voting-kiosk/ledger"
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
	metrics := service.NewMetrics()

	timing := service.DefaultTiming()
	timing.SettleDelay = cfg.SettleDelay
	timing.ScanInterval = cfg.ScanInterval
	timing.ScanMaxAttempts = cfg.ScanMaxAttempts

	coordinator := service.NewCoordinator(
		backend,
		table,
		[]service.Authenticator{
			&service.FaceAuthenticator{Backend: backend, Camera: camera},
			&service.FingerprintAuthenticator{Backend: backend, Timing: timing},
		},
		service.Options{
			Timing:  timing,
			Journal: journal,
			Metrics: metrics,
			ConnectLedger: func(ctx context.Context) (service.Ledger, error) {
				return ledger.Dial(ctx, cfg.LedgerEndpoint, cfg.ContractAddress, cfg.PrivateKeyHex, cfg.ChainID)
			},
		},
	)

	server := api.NewServer(coordinator, table, journal, metrics)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(cfg.ListenAddr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		runKiosk(ctx, coordinator)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Fatalf("status server error: %v", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	case <-loopDone:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("status server shutdown: %v", err)
	}
	coordinator.Reset()
}

func loadTable(path string) (*election.CandidateTable, error) {
	if path == "" {
		return election.DefaultTable(), nil
	}
	return election.LoadTable(path)
}

// runKiosk drives the voter-facing terminal loop. Each iteration renders the
// current step and executes one action; the coordinator owns all state.
func runKiosk(ctx context.Context, coordinator *service.Coordinator) {
	reader := bufio.NewReader(os.Stdin)

	for ctx.Err() == nil {
		session := coordinator.Session()
		switch session.Step {
		case models.StepVoterID:
			stepVoterID(ctx, coordinator, reader)
		case models.StepChooseAuth:
			stepChooseAuth(coordinator, reader)
		case models.StepAuthenticating:
			stepAuthenticate(ctx, coordinator, reader)
		case models.StepVoting:
			stepVoting(ctx, coordinator, reader)
		}
	}
}

func stepVoterID(ctx context.Context, coordinator *service.Coordinator, reader *bufio.Reader) {
	fmt.Print("\nEnter voter ID: ")
	input, err := reader.ReadString('\n')
	if err != nil {
		return
	}

	status, err := coordinator.CheckVoterID(ctx, strings.TrimSpace(input))
	switch {
	case errors.Is(err, service.ErrEmptyVoterID):
		fmt.Println("Voter ID must not be empty.")
	case errors.Is(err, service.ErrStaleResult):
	case err != nil:
		fmt.Printf("Could not verify voter ID: %v\n", err)
	case !status.Exists:
		fmt.Println("Voter ID not found. Please check and try again.")
	case status.HasVoted:
		fmt.Printf("Hello %s. Our records show you have already voted.\n", status.Name)
	default:
		fmt.Printf("Welcome, %s.\n", status.Name)
	}
}

func stepChooseAuth(coordinator *service.Coordinator, reader *bufio.Reader) {
	fmt.Print("Verify with [1] face or [2] fingerprint (b to go back): ")
	input, err := reader.ReadString('\n')
	if err != nil {
		return
	}

	switch strings.TrimSpace(input) {
	case "1":
		if err := coordinator.ChooseMethod(models.AuthFace); err != nil {
			fmt.Printf("Face verification unavailable: %v\n", err)
		}
	case "2":
		if err := coordinator.ChooseMethod(models.AuthFingerprint); err != nil {
			fmt.Printf("Fingerprint verification unavailable: %v\n", err)
		}
	case "b":
		coordinator.Back()
	default:
		fmt.Println("Please choose 1, 2 or b.")
	}
}

func stepAuthenticate(ctx context.Context, coordinator *service.Coordinator, reader *bufio.Reader) {
	session := coordinator.Session()
	switch session.AuthMethod {
	case models.AuthFace:
		fmt.Println("Look at the camera...")
	case models.AuthFingerprint:
		fmt.Println("Place your finger on the sensor...")
	}

	voter, err := coordinator.Authenticate(ctx)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStaleResult):
			return
		case errors.Is(err, service.ErrScannerNotConnected):
			fmt.Println("Fingerprint scanner is not connected.")
		case errors.Is(err, service.ErrScanTimeout):
			fmt.Println("No finger detected. Try again.")
		case errors.Is(err, service.ErrFingerprintNoMatch):
			fmt.Println("Fingerprint not recognized.")
		default:
			fmt.Printf("Verification failed: %v\n", err)
		}
		fmt.Print("Press enter to retry, b to go back: ")
		if input, readErr := reader.ReadString('\n'); readErr == nil && strings.TrimSpace(input) == "b" {
			coordinator.Back()
		}
		return
	}

	fmt.Printf("Identity verified: %s (%s)\n", voter.Name, voter.Constituency)
}

func stepVoting(ctx context.Context, coordinator *service.Coordinator, reader *bufio.Reader) {
	session := coordinator.Session()
	if session.HasVoted {
		if session.JustVoted {
			fmt.Printf("Your vote for %s has been recorded. Thank you.\n", session.VotedCandidate)
		} else {
			fmt.Println("Our records show you have already voted.")
		}
		// The terminal screen auto-resets; just wait for the new session.
		waitForReset(ctx, coordinator, session.Generation)
		return
	}

	candidates := coordinator.Candidates()
	fmt.Println("\nCandidates:")
	for i, name := range candidates {
		fmt.Printf("  [%d] %s\n", i+1, name)
	}
	fmt.Print("Choose a candidate number: ")

	input, err := reader.ReadString('\n')
	if err != nil {
		return
	}
	choice, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || choice < 1 || choice > len(candidates) {
		fmt.Println("Please enter a number from the list.")
		return
	}

	fmt.Println("Submitting your vote...")
	if err := coordinator.CastVote(ctx, choice-1); err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyVoted):
			fmt.Println("The ledger shows you have already voted.")
		case errors.Is(err, service.ErrVoteInFlight), errors.Is(err, service.ErrStaleResult):
		case errors.Is(err, service.ErrLedgerUnavailable):
			fmt.Println("The voting ledger is unreachable. Please alert an official.")
		default:
			fmt.Printf("Vote could not be submitted: %v\n", err)
		}
	}
}

// waitForReset blocks until the session generation moves past gen, polling at
// a human-scale interval.
func waitForReset(ctx context.Context, coordinator *service.Coordinator, gen uint64) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if coordinator.Session().Generation != gen {
				return
			}
		}
	}
}
