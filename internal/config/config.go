package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "CHALLENGE_SCANNER_CONFIG"
	databaseDSNEnv  = "DATABASE_DSN"
	openAIAPIKeyEnv = "OPENAI_API_KEY"
	llmModelEnv     = "LLM_MODEL"
	chunkSizeEnv    = "CHUNK_SIZE"
	chunkOverlapEnv = "CHUNK_OVERLAP"
	batchSizeEnv    = "BATCH_SIZE"
	logLevelEnv     = "LOG_LEVEL"
	seedDataPathEnv = "SEED_DATA_PATH"
)

// Config holds all settings required across the application. It is built
// once at startup and passed into constructors as an immutable value.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	LLM       LLMConfig       `yaml:"llm"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CrawlerConfig tunes the web crawler adapter.
type CrawlerConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"userAgent"`
	MaxRetries     int           `yaml:"maxRetries"`
	MaxDepth       int           `yaml:"maxDepth"`
	MaxDocsPerFeed int           `yaml:"maxDocsPerFeed"`
}

// ChunkingConfig sizes the fixed-size chunk windows.
type ChunkingConfig struct {
	ChunkSize int     `yaml:"chunkSize"` // words per window
	Overlap   float64 `yaml:"overlap"`   // fraction of chunkSize
}

// ScoreWeights are the fixed composite weights. Leakage is negative.
type ScoreWeights struct {
	ChallengeDensity float64 `yaml:"challengeDensity"`
	Specificity      float64 `yaml:"specificity"`
	Evidence         float64 `yaml:"evidence"`
	Recency          float64 `yaml:"recency"`
	SolutionLeakage  float64 `yaml:"solutionLeakage"`
}

// ScoringConfig carries the weights, filter thresholds, and the bilingual
// keyword sets used by the scorer. The English and Dutch sets are applied
// as one union regardless of the statement's detected language.
type ScoringConfig struct {
	Weights            ScoreWeights `yaml:"weights"`
	MinOverallScore    int          `yaml:"minOverallScore"`
	MinConfidence      float64      `yaml:"minConfidence"`
	MaxSolutionLeakage int          `yaml:"maxSolutionLeakage"`
	ChallengeKeywords  []string     `yaml:"challengeKeywords"`
	SolutionKeywords   []string     `yaml:"solutionKeywords"`
}

// LLMConfig defines how to contact the OpenAI-compatible API.
type LLMConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

// PipelineConfig controls batch sizes and seeding.
type PipelineConfig struct {
	BatchSize    int    `yaml:"batchSize"`
	SeedDataPath string `yaml:"seedDataPath"`
}

// SchedulerConfig defines recurring runs. Disabled means a single run.
type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// DiscoveryConfig tunes the technology discovery agent.
type DiscoveryConfig struct {
	MaxBudgetEUR int `yaml:"maxBudgetEur"`
}

// Load reads YAML configuration (if present) over defaults and applies
// environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	cfg.sanitizeChunking()
	return cfg
}

// sanitizeChunking rejects chunking values that would make the fixed-size
// window fail to advance. Applies to both the YAML and env paths.
func (c *Config) sanitizeChunking() {
	if c.Chunking.ChunkSize <= 0 {
		log.Printf("config: invalid chunkSize %d (falling back to default)", c.Chunking.ChunkSize)
		c.Chunking.ChunkSize = 1000
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= 1 {
		log.Printf("config: invalid overlap %v (falling back to default)", c.Chunking.Overlap)
		c.Chunking.Overlap = 0.15
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(chunkSizeEnv); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 {
			c.Chunking.ChunkSize = size
		}
	}

	if v := os.Getenv(chunkOverlapEnv); v != "" {
		if overlap, err := strconv.ParseFloat(v, 64); err == nil && overlap >= 0 && overlap < 1 {
			c.Chunking.Overlap = overlap
		}
	}

	if v := os.Getenv(batchSizeEnv); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 {
			c.Pipeline.BatchSize = size
		}
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(seedDataPathEnv); v != "" {
		c.Pipeline.SeedDataPath = v
	}
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{DSN: "postgres://postgres@localhost:5432/challenges"},
		Logging:  LoggingConfig{Level: "info"},
		Crawler: CrawlerConfig{
			Timeout:        30 * time.Second,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			MaxRetries:     3,
			MaxDepth:       1,
			MaxDocsPerFeed: 10,
		},
		Chunking: ChunkingConfig{
			ChunkSize: 1000,
			Overlap:   0.15,
		},
		Scoring: ScoringConfig{
			Weights: ScoreWeights{
				ChallengeDensity: 0.35,
				Specificity:      0.25,
				Evidence:         0.20,
				Recency:          0.10,
				SolutionLeakage:  -0.20,
			},
			MinOverallScore:    40,
			MinConfidence:      0.50,
			MaxSolutionLeakage: 70,
			ChallengeKeywords:  DefaultChallengeKeywords(),
			SolutionKeywords:   DefaultSolutionKeywords(),
		},
		LLM: LLMConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4.1-mini",
			APIKey:      "",
			Temperature: 0.3,
			MaxTokens:   2000,
		},
		Pipeline: PipelineConfig{
			BatchSize:    10,
			SeedDataPath: "seed_data.json",
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Interval: 24 * time.Hour,
		},
		Discovery: DiscoveryConfig{
			MaxBudgetEUR: 10000,
		},
	}
}
