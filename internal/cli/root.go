// Package cli is the leadsite command line: the HTTP server plus a few
// operator tools that talk to it.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parisxmas/leadsite/internal/config"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

type rootOptions struct {
	configFile string
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configFile)
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "leadsite",
		Short:         "Quote-request site with lead notification fan-out",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "YAML config file (LEADSITE_* env vars override it)")

	root.AddCommand(
		newServeCmd(opts),
		newSubmitCmd(opts),
		newWizardCmd(opts),
		newTokenCmd(opts),
		newHashPasswordCmd(),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
