package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "showrunner",
	Short: "LED matrix and music show player",
	Long: `showrunner plays synchronized light shows on an LED matrix alongside
an external audio player. Shows are queued over HTTP and played one at a
time; an idle pattern loops whenever the queue is empty.

Configuration is read from SHOW_* environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
)

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	err := rootCmd.Execute()
	if err != nil {
		red.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

func init() {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	rootCmd.AddCommand(serveCmd, playCmd, checkCmd)
}

func okf(format string, a ...any) {
	green.Printf("✓ %s\n", fmt.Sprintf(format, a...))
}

func warnf(format string, a ...any) {
	yellow.Printf("! %s\n", fmt.Sprintf(format, a...))
}

func failf(format string, a ...any) {
	red.Printf("✗ %s\n", fmt.Sprintf(format, a...))
}
