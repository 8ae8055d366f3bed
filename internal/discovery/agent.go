// Package discovery maps stored challenges to plausible technology paths
// by reasoning from problems to functions, principles, and technology
// classes, under a strict budget constraint. It discovers what is already
// possible: technology classes only, never brands or products.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"ChallengeScanner/internal/domain"
	"ChallengeScanner/internal/ports"
)

const systemPromptFormat = `You are a constraint-driven technology discovery agent specializing in finding feasible technology pathways for sustainability challenges.

Your approach:
1. Start with the problem, not the solution
2. Reason from functions → principles → technology classes
3. Stay under €%d budget constraint
4. Use existing, widely available technology
5. Never recommend specific brands or products
6. Focus on human-scale, locally feasible solutions

You output structured JSON with:
- Challenge summary
- Core functions (what must happen)
- Underlying principles (physical/chemical/mechanical)
- 2-3 technology paths with cost bands and risks
- Confidence score

Your outputs are directional intelligence, not finished designs.`

// TechnologyPath is one plausible implementation route for a challenge.
type TechnologyPath struct {
	PathName             string   `json:"path_name"`
	PrinciplesUsed       []string `json:"principles_used"`
	TechnologyClasses    []string `json:"technology_classes"`
	WhyThisIsPlausible   string   `json:"why_this_is_plausible"`
	EstimatedCostBandEUR string   `json:"estimated_cost_band_eur"`
	RisksAndUnknowns     []string `json:"risks_and_unknowns"`
}

// Result is the structured discovery output for one challenge.
type Result struct {
	ChallengeSummary     string           `json:"challenge_summary"`
	CoreFunctions        []string         `json:"core_functions"`
	UnderlyingPrinciples []string         `json:"underlying_principles"`
	TechnologyPaths      []TechnologyPath `json:"technology_paths"`
	Confidence           float64          `json:"confidence"`
}

// Agent runs discovery prompts through a structured-output LLM.
type Agent struct {
	llm          ports.ChatCompleter
	model        string
	maxBudgetEUR int
	logger       *slog.Logger
}

// NewAgent builds an agent with the configured budget ceiling.
func NewAgent(llm ports.ChatCompleter, model string, maxBudgetEUR int, logger *slog.Logger) *Agent {
	return &Agent{
		llm:          llm,
		model:        model,
		maxBudgetEUR: maxBudgetEUR,
		logger:       logger,
	}
}

// Discover asks the model for technology paths addressing the challenge.
func (a *Agent) Discover(ctx context.Context, ch domain.Challenge) (Result, error) {
	if a.logger != nil {
		a.logger.Info("running discovery", "challenge_id", ch.ID, "budget_eur", a.maxBudgetEUR)
	}

	output, err := a.llm.Complete(ctx, ports.CompletionRequest{
		Model:        a.model,
		SystemPrompt: a.SystemPrompt(),
		Prompt:       a.BuildPrompt(ch),
		SchemaName:   "tech_discovery",
		Schema:       techDiscoverySchema,
	})
	if err != nil {
		return Result{}, fmt.Errorf("discovery completion: %w", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		return Result{}, fmt.Errorf("parse discovery output: %w", err)
	}

	a.validateBudget(result)

	return result, nil
}

// SystemPrompt renders the agent's system prompt with its budget ceiling.
func (a *Agent) SystemPrompt() string {
	return fmt.Sprintf(systemPromptFormat, a.maxBudgetEUR)
}

// validateBudget checks each path's cost band against the budget constraint.
// Paths over budget are logged, not rejected; the model may have reasons.
func (a *Agent) validateBudget(result Result) {
	for i, path := range result.TechnologyPaths {
		maxCost, ok := maxCostOfBand(path.EstimatedCostBandEUR)
		if !ok {
			a.warn("could not parse cost band", "path", i+1, "cost_band", path.EstimatedCostBandEUR)
			continue
		}
		if maxCost > a.maxBudgetEUR {
			a.warn("path exceeds budget", "path", i+1, "path_name", path.PathName,
				"max_cost_eur", maxCost, "budget_eur", a.maxBudgetEUR)
		}
	}
}

// maxCostOfBand extracts the upper bound of a cost band like "€3000-€8000".
func maxCostOfBand(band string) (int, bool) {
	cleaned := strings.NewReplacer("€", "", ",", "").Replace(band)
	parts := strings.Split(cleaned, "-")
	if len(parts) < 2 {
		return 0, false
	}
	maxCost, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	return maxCost, true
}

func (a *Agent) warn(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}

// BuildPrompt renders the discovery prompt for one challenge.
func (a *Agent) BuildPrompt(ch domain.Challenge) string {
	title := ch.Title
	if title == "" {
		title = "Untitled Challenge"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a technology discovery agent. Your task is to discover plausible technology pathways for real-world challenges using existing, widely available technology.\n\n")
	fmt.Fprintf(&b, "**Challenge:**\n%s\n\n", title)
	fmt.Fprintf(&b, "**Problem Statement:**\n%s\n\n", ch.Statement)
	fmt.Fprintf(&b, "**Context:**\n")
	fmt.Fprintf(&b, "- SDG Goals: %s\n", orUnspecified(joinInts(ch.SDGGoals)))
	fmt.Fprintf(&b, "- Geography: %s\n", orUnspecified(ch.Geography))
	fmt.Fprintf(&b, "- Target Groups: %s\n", orUnspecified(strings.Join(ch.TargetGroups, ", ")))
	fmt.Fprintf(&b, "- Sectors: %s\n\n", orUnspecified(strings.Join(ch.Sectors, ", ")))
	fmt.Fprintf(&b, "**Your Task:**\n\n")
	fmt.Fprintf(&b, "1. **Identify Core Functions**: What must physically happen to address this challenge? Think in terms of actions, transformations, or processes.\n\n")
	fmt.Fprintf(&b, "2. **Map to Principles**: What physical, chemical, or mechanical principles enable these functions?\n\n")
	fmt.Fprintf(&b, "3. **Discover Technology Paths**: Based on these principles, what technology classes (NOT specific products or brands) could plausibly implement this under €%d?\n\n", a.maxBudgetEUR)
	fmt.Fprintf(&b, "**Critical Constraints:**\n\n")
	fmt.Fprintf(&b, "- **Budget**: All paths must be achievable under €%d\n", a.maxBudgetEUR)
	fmt.Fprintf(&b, "- **No Brands/SKUs**: Only technology classes (e.g., \"pressure vessel\", \"solar thermal collector\", \"biodigester\")\n")
	fmt.Fprintf(&b, "- **Existing Technology**: Use what already exists and is widely available\n")
	fmt.Fprintf(&b, "- **Human-Scale**: Solutions should be locally feasible and maintainable\n")
	fmt.Fprintf(&b, "- **Reuse & Recombination**: Consider second-hand equipment, DIY tooling, open hardware\n\n")
	fmt.Fprintf(&b, "**Output Requirements:**\n\n")
	fmt.Fprintf(&b, "- Provide 2-3 distinct technology paths\n")
	fmt.Fprintf(&b, "- Each path should be plausible, not optimal\n")
	fmt.Fprintf(&b, "- Focus on directional intelligence, not finished designs\n")
	fmt.Fprintf(&b, "- Include cost bands (e.g., \"€500-€2000\", \"€3000-€8000\")\n")
	fmt.Fprintf(&b, "- Identify key risks and unknowns\n\n")
	fmt.Fprintf(&b, "**Remember:**\n")
	fmt.Fprintf(&b, "- You are discovering what is already possible, not inventing new solutions\n")
	fmt.Fprintf(&b, "- Think in functions → principles → technology classes\n")
	fmt.Fprintf(&b, "- Clarity beats cleverness. Reality beats novelty.\n")
	return b.String()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func orUnspecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}
