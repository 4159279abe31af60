package cmd

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/novelpiad/internal/config"
	"github.com/brogergvhs/novelpiad/internal/providers/novelpia"
	"github.com/brogergvhs/novelpiad/internal/ui"
	"github.com/brogergvhs/novelpiad/internal/util"
)

// flags shared by every command that talks to the site
var (
	flagNovelID    string
	flagOutput     string
	flagLogFile    string
	flagLoginKey   string
	flagCookieFile string
	flagUserAgent  string
	flagBaseURL    string
)

func addNovelFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagNovelID, "novel-id", "", "Novelpia novel id")
	c.Flags().StringVar(&flagOutput, "output", "", "output folder")
	c.Flags().StringVar(&flagLogFile, "log-file", "", "also write a debug log to this file")
}

func addSessionFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagLoginKey, "login-key", "", "LOGINKEY cookie value (or set "+config.LoginKeyEnv+")")
	c.Flags().StringVar(&flagCookieFile, "cookie-file", "", "browser-exported cookie.json")
	c.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	c.Flags().StringVar(&flagBaseURL, "base-url", "", "override the site base URL")
}

var reNovelID = regexp.MustCompile(`^\d+$`)

type session struct {
	cfg    *config.Config
	source string
	log    *ui.Logger
}

func loadSession(opts config.Options) (*session, error) {
	opts.IgnoreConfig = flagIgnoreConfig
	opts.Debug = flagDebug
	opts.NovelID = flagNovelID
	opts.Output = flagOutput
	opts.LogFile = flagLogFile

	cfg, source, err := config.LoadMerged(opts)
	if err != nil {
		return nil, err
	}

	log, err := ui.NewFileLogger(cfg.Debug, cfg.LogFile)
	if err != nil {
		log.Warnf("%v", err)
	}

	return &session{cfg: cfg, source: source, log: log}, nil
}

func (s *session) requireNovel() error {
	if s.cfg.NovelID == "" {
		return errors.New("missing --novel-id and no novel_id in config")
	}
	if !reNovelID.MatchString(s.cfg.NovelID) {
		return fmt.Errorf("invalid novel id %q: expected digits only", s.cfg.NovelID)
	}
	return nil
}

func (s *session) client() (*novelpia.Client, error) {
	cookies, err := s.cfg.Cookies()
	if err != nil {
		return nil, err
	}
	if len(cookies) == 0 {
		s.log.Warnf("No LOGINKEY configured; restricted chapters will fail")
	}

	return novelpia.NewClient(novelpia.ClientOptions{
		BaseURL: s.cfg.BaseURL,
		HTTPClient: util.NewHTTPClient(util.HTTPClientOptions{
			Timeout:     30 * time.Second,
			UserAgent:   util.PickUserAgent(s.cfg.UserAgent),
			Cookies:     cookies,
			DebugLogger: s.log,
		}),
		Retries: s.cfg.Retries,
		Log:     s.log,
	})
}

func (s *session) catalog(ctx context.Context, c *novelpia.Client) (novelpia.Catalog, error) {
	b := novelpia.NewCatalogBuilder(c, s.log)
	b.MaxPages = s.cfg.MaxPages

	cat, err := b.Build(ctx, s.cfg.NovelID)
	if err != nil {
		if len(cat.Chapters) == 0 {
			return cat, fmt.Errorf("build chapter catalog: %w", err)
		}
		s.log.Warnf("Chapter catalog is incomplete (%d chapters from %d pages): %v", len(cat.Chapters), cat.Pages, err)
	}

	return cat, nil
}
