package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cloudflare/cfworker/internal/api"
	"github.com/cloudflare/cfworker/internal/config"
	"github.com/cloudflare/cfworker/internal/deployer"
	"github.com/cloudflare/cfworker/internal/ui/styles"
	"github.com/cloudflare/cfworker/internal/ui/views"
	"github.com/cloudflare/cfworker/pkg/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	version   = "0.1.0"
	envPrefix = "CFWORKER"
)

// app carries the state shared by the commands of one invocation
type app struct {
	v      *viper.Viper
	opts   types.Options
	logger *log.Logger
}

// NewRootCmd builds the cfworker command tree
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "cfworker",
		Short: "Deploy and manage Cloudflare Workers",
		Long: `cfworker deploys a single Cloudflare Worker described by a .cfworker.json
project file, and manages it through the Cloudflare API.

Credentials are read from CLOUDFLARE_ACCOUNT_ID and CLOUDFLARE_API_TOKEN,
which may be stored in a .env file in the working directory.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.preRun,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.opts.ConfigPath, "config", "c", config.DefaultPath, "Path to the project config file")
	flags.BoolVarP(&a.opts.Verbose, "verbose", "v", false, "Verbose logging")
	flags.BoolVarP(&a.opts.Quiet, "quiet", "q", false, "Minimal output")

	_ = a.v.BindPFlag("config", flags.Lookup("config"))
	_ = a.v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = a.v.BindPFlag("quiet", flags.Lookup("quiet"))
	a.v.SetDefault("api_url", api.DefaultBaseURL)

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	rootCmd.AddCommand(
		newInitCmd(a),
		newDeployCmd(a),
		newDeleteCmd(a),
		newInfoCmd(a),
		newListCmd(a),
		newConfigSetupCmd(a),
		newKVCmd(a),
		newRoutesCmd(a),
	)

	return rootCmd
}

// preRun sets up logging and loads .env from the working directory
func (a *app) preRun(cmd *cobra.Command, args []string) error {
	a.opts.ConfigPath = a.v.GetString("config")
	a.opts.Verbose = a.v.GetBool("verbose")
	a.opts.Quiet = a.v.GetBool("quiet")

	a.logger = newLogger(cmd.ErrOrStderr(), a.opts)

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	if err := config.LoadDotEnv(wd); err != nil {
		return err
	}
	a.logger.Debug("environment loaded", "dir", wd, "config", a.opts.ConfigPath)

	return nil
}

func newLogger(w io.Writer, opts types.Options) *log.Logger {
	if opts.Quiet {
		w = io.Discard
	}

	logger := log.NewWithOptions(w, log.Options{
		Prefix: "cfworker",
		Level:  log.WarnLevel,
	})
	if opts.Verbose {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(true)
	}
	return logger
}

// loadConfig reads the project config named by --config
func (a *app) loadConfig() (*config.Config, error) {
	return config.Load(a.opts.ConfigPath)
}

// newDeployer loads the project config and builds a deployer for it
func (a *app) newDeployer() (*deployer.Deployer, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	return deployer.New(cfg,
		deployer.WithLogger(a.logger),
		deployer.WithAPIOptions(api.WithBaseURL(a.v.GetString("api_url"))),
	)
}

// progress prints a progress line unless --quiet is set
func (a *app) progress(cmd *cobra.Command, message string) {
	if a.opts.Quiet {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), views.RenderProgress(message))
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// PrintError writes err to w, followed by a hint for common API failures
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, views.RenderError(err.Error()))

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		if hint := apiErr.Hint(); hint != "" {
			fmt.Fprintln(w, styles.Muted.Render("  hint: "+hint))
		}
	}
}
