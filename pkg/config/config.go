package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"repodoc/internal/models"
)

type Config struct {
	FileFilter struct {
		IncludeExtensions []string `yaml:"include_extensions"`
		ExcludePatterns   []string `yaml:"exclude_patterns"`
		MaxFileSize       int64    `yaml:"max_file_size"`
		MaxFiles          int      `yaml:"max_files"`
	} `yaml:"file_filter"`

	LLM struct {
		Model          string  `yaml:"model"`
		Temperature    float64 `yaml:"temperature"`
		MaxInputTokens int     `yaml:"max_input_tokens"`
		ReservedTokens int     `yaml:"reserved_tokens"`
		BaseURL        string  `yaml:"base_url"`
		RateLimit      float64 `yaml:"rate_limit"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		Tokenizer      string  `yaml:"tokenizer"`
		APIKey         string  `yaml:"-"`
	} `yaml:"llm"`

	Output struct {
		OutputDir        string `yaml:"output_dir"`
		Filename         string `yaml:"filename"`
		SaveIntermediate bool   `yaml:"save_intermediate"`
	} `yaml:"output"`

	Prompts struct {
		System      string `yaml:"system"`
		FirstChunk  string `yaml:"first_chunk"`
		Incremental string `yaml:"incremental"`
		NextChunk   string `yaml:"next_chunk"`
	} `yaml:"prompts"`
}

// LoadConfig reads the YAML config at path, falling back to default
// locations and built-in defaults when no file is found. Environment
// variables (including a .env file) are merged last and win; the API key
// is only ever read from the environment and never written back out.
func LoadConfig(path string) (*Config, error) {
	// Credentials may live in a .env file in the working directory.
	_ = godotenv.Load()

	if path == "" {
		locations := []string{
			"repodoc.yaml",
			"repodoc.yml",
			filepath.Join(os.Getenv("HOME"), ".config/repodoc/config.yaml"),
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	applyDefaults(&config)
	mergeWithEnv(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

// Budget returns the token budget derived from the LLM section.
func (c *Config) Budget() models.TokenBudget {
	return models.TokenBudget{
		MaxInputTokens: c.LLM.MaxInputTokens,
		ReservedTokens: c.LLM.ReservedTokens,
	}
}

func applyDefaults(config *Config) {
	if len(config.FileFilter.IncludeExtensions) == 0 {
		config.FileFilter.IncludeExtensions = []string{
			".py", ".js", ".jsx", ".ts", ".tsx",
			".java", ".go", ".rs", ".cpp", ".c", ".h", ".hpp",
			".cs", ".rb", ".php", ".swift", ".kt", ".scala",
			".vue", ".svelte",
		}
	}
	if len(config.FileFilter.ExcludePatterns) == 0 {
		config.FileFilter.ExcludePatterns = []string{
			"**/node_modules/**",
			"**/.git/**",
			"**/venv/**",
			"**/__pycache__/**",
			"**/dist/**",
			"**/build/**",
		}
	}
	if config.FileFilter.MaxFileSize == 0 {
		config.FileFilter.MaxFileSize = 102400 // 100KB
	}
	if config.FileFilter.MaxFiles == 0 {
		config.FileFilter.MaxFiles = 500
	}

	if config.LLM.Model == "" {
		config.LLM.Model = "gpt-4o"
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.3
	}
	if config.LLM.MaxInputTokens == 0 {
		config.LLM.MaxInputTokens = 100000
	}
	if config.LLM.ReservedTokens == 0 {
		config.LLM.ReservedTokens = 10000
	}
	if config.LLM.RateLimit == 0 {
		config.LLM.RateLimit = 1.0
	}
	if config.LLM.TimeoutSeconds == 0 {
		config.LLM.TimeoutSeconds = 300
	}
	if config.LLM.Tokenizer == "" {
		config.LLM.Tokenizer = "heuristic"
	}

	if config.Output.OutputDir == "" {
		config.Output.OutputDir = "./repodoc-output"
	}
	if config.Output.Filename == "" {
		config.Output.Filename = "requirements.md"
	}
}

func mergeWithEnv(config *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.LLM.Model = model
	}
}
