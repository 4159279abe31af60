package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoginKeyEnv names the environment variable consulted when neither a flag
// nor the active profile carries a login key.
const LoginKeyEnv = "NOVELPIA_LOGINKEY"

const loginCookie = "LOGINKEY"

type Config struct {
	Output  string  `yaml:"output"`
	Delay   float64 `yaml:"delay"`
	Debug   bool    `yaml:"debug"`
	LogFile string  `yaml:"log_file"`

	NovelID      string `yaml:"novel_id"`
	DefaultRange string `yaml:"default_range"`
	DefaultList  string `yaml:"default_list"`

	LoginKey   string `yaml:"login_key"`
	CookieFile string `yaml:"cookie_file"`
	UserAgent  string `yaml:"user_agent"`
	BaseURL    string `yaml:"base_url"`
	Retries    int    `yaml:"retries"`
	MaxPages   int    `yaml:"max_pages"` // 0 means no limit
}

type Options struct {
	IgnoreConfig bool
	Debug        bool
	Output       string
	Delay        float64
	DelaySet     bool
	LogFile      string
	NovelID      string
	DefaultRange string
	DefaultList  string
	LoginKey     string
	CookieFile   string
	UserAgent    string
	BaseURL      string
}

func DefaultConfig() *Config {
	return &Config{
		Output:  ".",
		Delay:   1,
		BaseURL: "https://novelpia.com",
		Retries: 3,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadMerged reads the active profile (unless ignored), applies flag
// overrides and the environment, and validates the result. The second
// return value describes where the settings came from.
func LoadMerged(opts Options) (*Config, string, error) {
	var (
		cfg    *Config
		source string
	)

	activePath, err := ActiveConfigPath()
	switch {
	case opts.IgnoreConfig:
		cfg, source = DefaultConfig(), "(ignored config)"
	case errors.Is(err, ErrNoConfig) || activePath == "":
		cfg = DefaultConfig()
		source = "(default config in memory)\nRun `novelpiad config init` to create an actual config\n"
	case err != nil:
		return nil, "", err
	default:
		cfg, err = loadYAML(activePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
		}
		source = activePath
	}

	mergeConfig(cfg, opts)
	applyEnv(cfg)
	normalizeDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, source, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.DelaySet {
		c.Delay = o.Delay
	}
	if o.Debug {
		c.Debug = true
	}
	if o.LogFile != "" {
		c.LogFile = o.LogFile
	}
	if o.NovelID != "" {
		c.NovelID = o.NovelID
	}
	if o.DefaultRange != "" {
		c.DefaultRange = o.DefaultRange
	}
	if o.DefaultList != "" {
		c.DefaultList = o.DefaultList
	}
	if o.LoginKey != "" {
		c.LoginKey = o.LoginKey
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
}

// applyEnv loads a .env file from the working directory if one exists and
// falls back to the login key it (or the real environment) provides.
func applyEnv(c *Config) {
	_ = godotenv.Load()

	if c.LoginKey == "" {
		c.LoginKey = strings.TrimSpace(os.Getenv(LoginKeyEnv))
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://novelpia.com"
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.MaxPages < 0 {
		c.MaxPages = 0
	}
}

func (c *Config) Validate() error {
	if c.Delay < 0 {
		return fmt.Errorf("delay must be >= 0, got %g", c.Delay)
	}
	return nil
}

type browserCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Cookies returns the session cookies to send with every request. A cookie
// file, when configured, must contain LOGINKEY; an explicit login key
// overrides the file's value.
func (c *Config) Cookies() (map[string]string, error) {
	out := map[string]string{}

	if c.CookieFile != "" {
		raw, err := os.ReadFile(c.CookieFile)
		if err != nil {
			return nil, fmt.Errorf("read cookie file: %w", err)
		}

		var list []browserCookie
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("parse cookie file %s: %w", c.CookieFile, err)
		}
		for _, ck := range list {
			if ck.Name != "" {
				out[ck.Name] = ck.Value
			}
		}

		if out[loginCookie] == "" && c.LoginKey == "" {
			return nil, fmt.Errorf("cookie file %s has no %s cookie", c.CookieFile, loginCookie)
		}
	}

	if c.LoginKey != "" {
		out[loginCookie] = c.LoginKey
	}

	return out, nil
}

func (c *Config) Print() {
	fmt.Printf(" -output: %s\n", c.Output)
	fmt.Printf(" -delay: %gs\n", c.Delay)
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	if c.LogFile != "" {
		fmt.Printf(" -log_file: %s\n", c.LogFile)
	}
	if c.NovelID != "" {
		fmt.Printf(" -novel_id: %s\n", c.NovelID)
	}
	if c.DefaultRange != "" {
		fmt.Printf(" -range: %s\n", c.DefaultRange)
	}
	if c.DefaultList != "" {
		fmt.Printf(" -list: %s\n", c.DefaultList)
	}
	if c.LoginKey != "" {
		fmt.Printf(" -login_key: %s\n", mask(c.LoginKey))
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.UserAgent != "" {
		fmt.Printf(" -user_agent: %s\n", c.UserAgent)
	}
	fmt.Printf(" -base_url: %s\n", c.BaseURL)
	fmt.Printf(" -retries: %d\n", c.Retries)
	if c.MaxPages > 0 {
		fmt.Printf(" -max_pages: %d\n", c.MaxPages)
	}
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}
