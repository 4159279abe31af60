package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/novelpiad/internal/config"
)

var (
	flagInitLabel string
	flagInitYes   bool
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the Default config, or a new labeled one with --label",
	RunE: func(cmd *cobra.Command, args []string) error {
		label := strings.TrimSpace(flagInitLabel)
		if label == "" {
			label = "Default"
		}

		path := config.ConfigPathByLabel(label)
		if _, err := os.Stat(path); err == nil {
			fmt.Println("Configuration already exists at:")
			fmt.Println("  ", path)
			fmt.Println("Use `novelpiad config reset` to recreate it.")
			return nil
		}

		def := config.DefaultConfig()

		fmt.Println("Configuration file will be saved at:")
		fmt.Println("  ", path)
		fmt.Println()
		fmt.Println("Default configuration:")
		def.Print()
		fmt.Println()

		if !flagInitYes && !confirm(fmt.Sprintf("Create %s config at %s?", label, path)) {
			fmt.Println("Aborted.")
			return nil
		}

		if label == "Default" {
			if _, err := config.InitDefaultConfig(); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
		} else {
			if _, err := config.CreateConfig(label, def); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			if err := config.SwitchConfig(label); err != nil {
				return fmt.Errorf("failed to set active config: %w", err)
			}
		}

		fmt.Println("Config created at:", path)
		fmt.Printf("This config is now active (label: %s).\n", label)
		return nil
	},
}

// confirm asks a yes/no question on stdin; anything but y/yes is a no.
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)

	resp, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	resp = strings.TrimSpace(strings.ToLower(resp))
	return resp == "y" || resp == "yes"
}

func init() {
	configInitCmd.Flags().StringVar(&flagInitLabel, "label", "", "label of the new config (default \"Default\")")
	configInitCmd.Flags().BoolVarP(&flagInitYes, "yes", "y", false, "do not ask for confirmation")
	configCmd.AddCommand(configInitCmd)
}
