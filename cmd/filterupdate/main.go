// Filterupdate - IRR prefix filter generator for Junos routers
//
// Expands an AS-SET into its announced prefixes, renders a Junos
// policy-options prefix-list and replaces that list on a router inside a
// locked NETCONF commit.
//
// Resolution order:
//
//	bgpq4 (or bgpq3) across registries, spellings and flag shapes
//	  -> route objects of the AS-SET
//	direct registry queries when the tool is not installed (or --direct)
//
// Examples:
//
//	filterupdate -a AS-EXAMPLE -l EXAMPLE-IN --test
//	filterupdate -a AS-EXAMPLE -l EXAMPLE-IN -6 --test -o example-v6.conf
//	filterupdate -a AS-EXAMPLE -l EXAMPLE-IN -d edge1.example.net -u ops
//
// Exit codes: 0 success, 1 usage or resolution failure, 2 device failure.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/newtron-network/filterupdate/pkg/audit"
	"github.com/newtron-network/filterupdate/pkg/cli"
	"github.com/newtron-network/filterupdate/pkg/settings"
	"github.com/newtron-network/filterupdate/pkg/util"
	"github.com/newtron-network/filterupdate/pkg/version"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitDevice = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case util.IsDeviceError(err):
		return exitDevice
	default:
		return exitFailed
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", cli.Red("Error:"), err)
	var rerr *util.ResolutionError
	if errors.As(err, &rerr) {
		for _, g := range rerr.Guidance {
			fmt.Fprintf(w, "  - %s\n", g)
		}
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "filterupdate -a <as-set> -l <prefix-list> [flags]",
		Short: "Build and apply IRR prefix filters on Junos routers",
		Long: `Filterupdate expands an AS-SET from the Internet Routing Registry into a
Junos prefix-list and replaces that list on a router.

With --test the rendered configuration is printed (or written with -o) and no
device is contacted. Otherwise -d and -u are required; the password is
prompted for when neither -p nor -k is given.

Settings in ~/.filterupdate/settings.yaml supply defaults for the registry,
tool, user, port, known_hosts, cache and commit comment.`,
		Example: `  filterupdate -a AS-EXAMPLE -l EXAMPLE-IN --test
  filterupdate -a AS65000 -l CUSTOMER-V6 -6 --test -o customer-v6.conf
  filterupdate -a AS-EXAMPLE -l EXAMPLE-IN -d edge1 -u ops --comment "ticket 1234"`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			util.Configure(opts.verbose, opts.logJSON)

			s, err := settings.Load()
			if err != nil {
				util.Warnf("Could not load settings: %v", err)
				s = &settings.Settings{}
			}
			opts.settings = s

			auditLogger, err := audit.NewFileLogger(s.GetAuditLog(), audit.DefaultRotation)
			if err != nil {
				util.Warnf("Could not initialize audit logging: %v", err)
			} else {
				audit.SetDefaultLogger(auditLogger)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	f := rootCmd.Flags()
	f.StringVarP(&opts.asSet, "as-set", "a", "", "AS-SET or AS number to expand (required)")
	f.StringVarP(&opts.listName, "prefix-list", "l", "", "Junos prefix-list name (required)")
	f.BoolVarP(&opts.ipv6, "ipv6", "6", false, "Resolve IPv6 prefixes")
	f.StringVarP(&opts.server, "server", "s", "", "IRR server (default rr.ntt.net)")
	f.BoolVar(&opts.useBgpq4, "use-bgpq4", false, "Generate the list with bgpq4")
	f.BoolVar(&opts.useBgpq3, "use-bgpq3", false, "Generate the list with bgpq3")
	f.BoolVar(&opts.direct, "direct", false, "Query the registry directly, skipping the prefix-list tool")
	f.BoolVar(&opts.testMode, "test", false, "Render only; do not contact the device")
	f.StringVarP(&opts.output, "output", "o", "", "Write the rendered configuration to a file")
	f.StringVarP(&opts.device, "device", "d", "", "Router hostname or address")
	f.StringVarP(&opts.user, "user", "u", "", "Router login")
	f.StringVarP(&opts.password, "password", "p", "", "Router password (prompted when omitted)")
	f.StringVarP(&opts.keyFile, "key", "k", "", "SSH private key file")
	f.IntVar(&opts.port, "port", 0, "NETCONF port (default 830)")
	f.StringVar(&opts.knownHosts, "known-hosts", "", "known_hosts file for host key verification")
	f.StringVar(&opts.comment, "comment", "", `Commit comment (default "Prefix filter update")`)
	f.StringVar(&opts.redisAddr, "redis", "", "Redis address for the prefix cache")
	f.BoolVar(&opts.refresh, "refresh", false, "Ignore cached prefixes")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "Write run metrics in node_exporter textfile format")
	rootCmd.MarkFlagsMutuallyExclusive("use-bgpq4", "use-bgpq3", "direct")

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "Log in JSON format")

	rootCmd.AddGroup(&cobra.Group{ID: "meta", Title: "Configuration & Meta:"})
	for _, cmd := range []*cobra.Command{newSettingsCmd(), newAuditCmd(), newVersionCmd()} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if version.Version == "dev" {
				fmt.Fprintln(cmd.OutOrStdout(), "filterupdate dev build (set pkg/version via -ldflags for version info)")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "filterupdate %s\n", version.Info())
			}
		},
	}
}
