// Command techdiscovery runs the technology discovery agent against stored
// challenges and prints the structured results.
//
// Usage:
//
//	techdiscovery -challenge-id 123
//	techdiscovery -all -limit 10 -model gpt-4.1-mini
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ChallengeScanner/internal/config"
	"ChallengeScanner/internal/discovery"
	"ChallengeScanner/internal/domain"
	"ChallengeScanner/internal/infrastructure/llm"
	"ChallengeScanner/internal/infrastructure/storage"
	"ChallengeScanner/internal/logging"
)

func main() {
	challengeID := flag.Int64("challenge-id", 0, "run discovery for one challenge")
	all := flag.Bool("all", false, "run discovery for all challenges")
	limit := flag.Int("limit", 10, "maximum challenges to process with -all")
	model := flag.String("model", "", "override the configured LLM model")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	if *challengeID == 0 && !*all {
		fmt.Fprintln(os.Stderr, "either -challenge-id or -all is required")
		flag.Usage()
		os.Exit(2)
	}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	repository := storage.NewPostgresRepository(db)

	agentModel := cfg.LLM.Model
	if *model != "" {
		agentModel = *model
	}

	client := llm.NewClient(cfg.LLM, logger.With("component", "llm"))
	agent := discovery.NewAgent(client, agentModel, cfg.Discovery.MaxBudgetEUR,
		logger.With("component", "discovery"))

	var challenges []domain.Challenge
	if *all {
		challenges, err = repository.AllChallenges(ctx)
		if err != nil {
			logger.Error("load challenges", "error", err)
			os.Exit(1)
		}
		if len(challenges) > *limit {
			challenges = challenges[:*limit]
		}
	} else {
		ch, err := repository.ChallengeByID(ctx, *challengeID)
		if err != nil {
			logger.Error("load challenge", "challenge_id", *challengeID, "error", err)
			os.Exit(1)
		}
		challenges = []domain.Challenge{ch}
	}

	failures := 0
	for _, ch := range challenges {
		result, err := agent.Discover(ctx, ch)
		if err != nil {
			logger.Error("discovery failed", "challenge_id", ch.ID, "error", err)
			failures++

			if runID, dbErr := repository.InsertDiscoveryRun(ctx, domain.DiscoveryRun{
				ChallengeID: ch.ID,
				Model:       agentModel,
				Status:      domain.DiscoveryRunFailed,
				Error:       err.Error(),
			}); dbErr != nil {
				logger.Error("could not record failed run", "challenge_id", ch.ID, "error", dbErr)
			} else {
				logger.Info("recorded failed run", "challenge_id", ch.ID, "run_id", runID)
			}
			continue
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			logger.Error("encode result", "challenge_id", ch.ID, "error", err)
			failures++
			continue
		}

		runID, err := repository.InsertDiscoveryRun(ctx, domain.DiscoveryRun{
			ChallengeID: ch.ID,
			Model:       agentModel,
			Output:      out,
			Confidence:  result.Confidence,
			Status:      domain.DiscoveryRunCompleted,
		})
		if err != nil {
			logger.Error("store discovery run", "challenge_id", ch.ID, "error", err)
			failures++
			continue
		}

		fmt.Printf("Challenge %d (run %d):\n%s\n", ch.ID, runID, out)
	}

	if failures > 0 {
		os.Exit(1)
	}
}
