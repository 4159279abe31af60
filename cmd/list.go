package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/novelpiad/internal/chapters"
	"github.com/brogergvhs/novelpiad/internal/config"
	"github.com/brogergvhs/novelpiad/internal/util"
)

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the chapter catalog of a novel",
		RunE:  runList,
	}

	addNovelFlags(listCmd)
	addSessionFlags(listCmd)
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(config.Options{
		LoginKey:   flagLoginKey,
		CookieFile: flagCookieFile,
		UserAgent:  flagUserAgent,
		BaseURL:    flagBaseURL,
	})
	if err != nil {
		return err
	}
	defer s.log.Sync()

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

	for _, ch := range chapters.Wrap(cat.Chapters) {
		fmt.Println(ch)
	}
	fmt.Printf("\n%d chapters across %d pages", len(cat.Chapters), cat.Pages)
	if !cat.Complete {
		fmt.Print(" (incomplete)")
	}
	fmt.Println()

	return nil
}
