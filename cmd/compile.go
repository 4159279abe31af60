package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/novelpiad/internal/config"
	"github.com/brogergvhs/novelpiad/internal/storage"
)

func init() {
	compileCmd := &cobra.Command{
		Use:   "compile",
		Short: "Rebuild the complete novel file from already downloaded chapters",
		RunE:  runCompile,
	}

	addNovelFlags(compileCmd)
	rootCmd.AddCommand(compileCmd)
}

func runCompile(_ *cobra.Command, _ []string) error {
	s, err := loadSession(config.Options{})
	if err != nil {
		return err
	}
	defer s.log.Sync()

	if err := s.requireNovel(); err != nil {
		return err
	}

	store := storage.New(s.cfg.Output, s.log)

	chs, err := store.ScanChapters()
	if err != nil {
		return fmt.Errorf("scan %s: %w", filepath.Join(store.Root(), storage.ChaptersDir), err)
	}

	report, err := store.Compile(s.cfg.NovelID, chs)
	if errors.Is(err, storage.ErrNothingToCompile) {
		return fmt.Errorf("%w in %s", err, store.Root())
	}
	if err != nil {
		return err
	}

	printCompileReport(report)
	return nil
}

func printCompileReport(r storage.CompileReport) {
	fmt.Printf("Compiled: %s\n", r.Path)
	fmt.Printf("Included: %d chapters\n", len(r.Included))
	if len(r.Errors) > 0 {
		fmt.Printf("Errors:   %v\n", r.Errors)
	}
	if len(r.Missing) > 0 {
		fmt.Printf("Missing:  %v\n", r.Missing)
	}
}
