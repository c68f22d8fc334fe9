package lectern

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Lectern - a terminal client for the Lectern teaching assistant",
	Long:  "Lectern connects your terminal to a teaching-assistant backend: chat in one of several modes, attach course files, and keep transcripts of every session.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.lectern/lectern.toml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(devserverCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(historyCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of Lectern",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lectern v%s\n", version)
	},
}
