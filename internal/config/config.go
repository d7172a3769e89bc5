// Package config loads runtime configuration: in-code defaults, an optional
// TOML file, then environment variable overrides, plus per-topic JSON
// override files for the people list and the destination taxonomy.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// DropFolder is the reserved drop-folder name, always excluded from
// traversal, snapshots and cleanup.
const DropFolder = "_moved_today"

type Config struct {
	Vault struct {
		Root string `toml:"root"` // defaults to ~/_Vault
	} `toml:"vault"`
	LLM struct {
		URL              string `toml:"url"`
		RequestTimeout   int    `toml:"request_timeout"`    // seconds
		FirstCallPredict int    `toml:"first_call_predict"` // n_predict for LIGHT calls
		KeyName          string `toml:"key_name"`           // optional keyring entry for remote backends
	} `toml:"llm"`
	Run struct {
		DryRun            bool `toml:"dry_run"`
		MaxSteps          int  `toml:"max_steps"`
		MemLimit          int  `toml:"mem_limit"`
		InspectCapPerFile int  `toml:"inspect_cap_per_file"`
		MaxRetryPerTarget int  `toml:"max_retry_per_target"`
		SnapshotTTLSteps  int  `toml:"snapshot_ttl_steps"`
		SnapshotDirCap    int  `toml:"snapshot_dir_cap"`
	} `toml:"run"`
	Cohesion struct {
		MinVotes    int     `toml:"min_votes"`
		PurityMin   float64 `toml:"purity_min"`
		EntropyMax  float64 `toml:"entropy_max"`
		MaxChildren int     `toml:"max_children"`
	} `toml:"cohesion"`
}

// Dir returns the config directory (~/.config/vaultsort), which also holds
// the *.local.json override files.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "vaultsort")
}

func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

func defaults() *Config {
	var cfg Config
	home, _ := os.UserHomeDir()
	cfg.Vault.Root = filepath.Join(home, "_Vault")
	cfg.LLM.URL = "http://127.0.0.1:8080/completion"
	cfg.LLM.RequestTimeout = 180
	cfg.LLM.FirstCallPredict = 64
	cfg.Run.MaxSteps = 500
	cfg.Run.MemLimit = 8
	cfg.Run.InspectCapPerFile = 2
	cfg.Run.MaxRetryPerTarget = 3
	cfg.Run.SnapshotTTLSteps = 10
	cfg.Run.SnapshotDirCap = 40
	cfg.Cohesion.MinVotes = 3
	cfg.Cohesion.PurityMin = 0.8
	cfg.Cohesion.EntropyMax = 1.0
	cfg.Cohesion.MaxChildren = 500
	return &cfg
}

// Load builds the effective configuration. Environment variables win over
// the TOML file, which wins over defaults.
func Load() (*Config, error) {
	cfg := defaults()
	path := Path()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envStr("LLM_URL", &cfg.LLM.URL)
	envStr("VAULT_ROOT", &cfg.Vault.Root)
	envStr("LLM_KEY_NAME", &cfg.LLM.KeyName)
	envBool("DRY_RUN", &cfg.Run.DryRun)
	envInt("MAX_STEPS", &cfg.Run.MaxSteps)
	envInt("REQUEST_TIMEOUT", &cfg.LLM.RequestTimeout)
	envInt("FIRST_CALL_NPRED", &cfg.LLM.FirstCallPredict)
	envInt("MEM_LIMIT", &cfg.Run.MemLimit)
	envInt("INSPECT_CAP_PER_FILE", &cfg.Run.InspectCapPerFile)
	envInt("MAX_RETRY_PER_TARGET", &cfg.Run.MaxRetryPerTarget)
	envInt("SNAP_TTL_STEPS", &cfg.Run.SnapshotTTLSteps)
	envInt("SNAP_DIR_CAP", &cfg.Run.SnapshotDirCap)
	envInt("COHESION_MIN_VOTES", &cfg.Cohesion.MinVotes)
	envFloat("COHESION_PURITY_MIN", &cfg.Cohesion.PurityMin)
	envFloat("COHESION_ENTROPY_MAX", &cfg.Cohesion.EntropyMax)
	envInt("COHESION_MAX_CHILDREN", &cfg.Cohesion.MaxChildren)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n != 0
		}
	}
}

// Inbox, Docs, Media and Proj are the data roots under the vault.
func (c *Config) Inbox() string { return filepath.Join(c.Vault.Root, "INBOX") }
func (c *Config) Docs() string  { return filepath.Join(c.Vault.Root, "Documents") }
func (c *Config) Media() string { return filepath.Join(c.Vault.Root, "Media") }
func (c *Config) Proj() string  { return filepath.Join(c.Vault.Root, "Projects") }

// DestRoots maps canonical destination labels to their directories.
func (c *Config) DestRoots() map[string]string {
	return map[string]string{
		"Documents": c.Docs(),
		"Media":     c.Media(),
		"Projects":  c.Proj(),
	}
}

// LogsDir is where run logs are written.
func (c *Config) LogsDir() string { return filepath.Join(Dir(), "logs") }

// StatePath is the sqlite ledger location.
func (c *Config) StatePath() string { return filepath.Join(Dir(), "vaultsort.db") }

// EnsureDirs creates the data roots and the config/log directories.
func (c *Config) EnsureDirs() error {
	for _, d := range []string{c.Inbox(), c.Docs(), c.Media(), c.Proj(), Dir(), c.LogsDir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// AllowedDestinations returns the destination patterns exposed to the agent.
// The taxonomy file is kept for hints but not enforced at runtime.
func AllowedDestinations() []string {
	return []string{"Documents/*", "Media/*", "Projects"}
}
