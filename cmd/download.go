package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/brogergvhs/novelpiad/internal/chapters"
	"github.com/brogergvhs/novelpiad/internal/config"
	"github.com/brogergvhs/novelpiad/internal/downloader"
	"github.com/brogergvhs/novelpiad/internal/providers/novelpia"
	"github.com/brogergvhs/novelpiad/internal/storage"
	"github.com/brogergvhs/novelpiad/internal/ui"
	"github.com/brogergvhs/novelpiad/internal/util"
)

var (
	// selection
	flagChapter string
	flagRange   string
	flagList    string

	// runtime
	flagDelay  float64
	flagDryRun bool
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download chapters as text files and compile them. Uses the defaults from the selected config, overwritten by CLI flags",
		RunE:  runDownload,
	}

	addNovelFlags(downloadCmd)
	addSessionFlags(downloadCmd)

	// selection
	downloadCmd.Flags().StringVar(&flagChapter, "chapter", "", "download a single chapter by number (e.g. 5)")
	downloadCmd.Flags().StringVar(&flagRange, "range", "", "download a range of chapters by number (e.g. 5-12)")
	downloadCmd.Flags().StringVar(&flagList, "list", "", "download specific chapter numbers (e.g. 1,3,5)")

	// runtime
	downloadCmd.Flags().Float64Var(&flagDelay, "delay", 1, "seconds to wait between chapters")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "show what would be downloaded, don't download")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(config.Options{
		Delay:        flagDelay,
		DelaySet:     cmd.Flags().Changed("delay"),
		DefaultRange: flagRange,
		DefaultList:  flagList,
		LoginKey:     flagLoginKey,
		CookieFile:   flagCookieFile,
		UserAgent:    flagUserAgent,
		BaseURL:      flagBaseURL,
	})
	if err != nil {
		return err
	}
	defer s.log.Sync()
	cfg := s.cfg

	if s.source != "" {
		fmt.Printf("Config file: %s\n", s.source)
	}
	fmt.Println("Full config:")
	cfg.Print()
	fmt.Println()

	if err := s.requireNovel(); err != nil {
		return err
	}

	client, err := s.client()
	if err != nil {
		return err
	}

	ctx, cancel := util.InterruptContext(cmd.Context())
	defer cancel()

	cat, err := s.catalog(ctx, client)
	if err != nil {
		return err
	}
	all := chapters.Wrap(cat.Chapters)
	fmt.Printf("Found %d chapters on the site.\n\n", len(all))

	selected, err := selectChapters(cmd, all, cfg)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return errors.New("no chapters selected")
	}

	if flagDryRun {
		fmt.Printf("Dry-run: %d chapters selected.\n\n", len(selected))
		for _, ch := range selected {
			fmt.Printf("%s  [id %s]\n", ch, ch.ID)
		}
		return nil
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	stats := &ui.Stats{}
	store := storage.New(cfg.Output, s.log)
	rec := novelpia.NewReconstructor(client, countingSink{store, stats}, client.BaseURL(), s.log)
	pipe := downloader.New(rec, store, time.Duration(cfg.Delay*float64(time.Second)), s.log)

	pm := ui.NewProgressManager()
	handle := pm.Register("Novel "+cfg.NovelID, len(selected))

	events := make(chan downloader.Event)
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for ev := range events {
			switch ev.Kind {
			case downloader.EventStarted:
				handle.Working(ev.Chapter.String())
			case downloader.EventSaved:
				stats.Chapters.Add(1)
				handle.Advance(false)
			case downloader.EventFailed:
				stats.FailedChapter.Add(1)
				handle.Advance(true)
			case downloader.EventCompiled:
				handle.MarkDone()
			}
		}
	}()

	start := time.Now()
	sum, runErr := pipe.Run(ctx, cfg.NovelID, selected, events)
	<-consumed
	handle.MarkDone()
	pm.Close()

	fmt.Println()
	fmt.Println("Download Summary:")
	fmt.Printf("Chapters: %d saved, %d failed\n", stats.Chapters.Load(), stats.FailedChapter.Load())
	fmt.Printf("Images:   %d\n", stats.Images.Load())
	fmt.Printf("Data:     %s\n", util.Human(stats.ImageBytes.Load()))
	fmt.Printf("Time:     %s\n", time.Since(start).Round(time.Second))

	for _, e := range multierr.Errors(sum.Failures) {
		fmt.Printf("  failed: %v\n", e)
	}

	if runErr != nil {
		if sum.Saved == 0 && sum.Failed == 0 {
			util.RemoveIfEmpty(cfg.Output)
		}
		return runErr
	}

	fmt.Println()
	printCompileReport(sum.Compiled)
	fmt.Println("\nAll done.")
	return nil
}

// selectChapters applies explicit selection flags first and falls back to
// the config defaults only when none were given.
func selectChapters(cmd *cobra.Command, all []chapters.Chapter, cfg *config.Config) ([]chapters.Chapter, error) {
	if flagChapter != "" || cmd.Flags().Changed("range") || cmd.Flags().Changed("list") {
		return chapters.Filter(all, flagChapter, flagRange, flagList)
	}
	return chapters.Filter(all, "", cfg.DefaultRange, cfg.DefaultList)
}

// countingSink feeds image statistics while passing writes to the store.
type countingSink struct {
	store *storage.Store
	stats *ui.Stats
}

func (c countingSink) SaveImage(name string, data []byte) error {
	if err := c.store.SaveImage(name, data); err != nil {
		return err
	}
	c.stats.Images.Add(1)
	c.stats.ImageBytes.Add(int64(len(data)))
	return nil
}
