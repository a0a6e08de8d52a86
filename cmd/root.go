package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "imgopt",
	Short:         "imgopt - bulk image optimizer",
	Long:          "imgopt strips metadata from JPEG, PNG and WebP images, re-encodes them and gives each output a content-addressed name.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: imgopt.yaml in the user config dir or working directory)")
}
