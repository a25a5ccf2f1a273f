// Package cli implements cmsctl, the offline tooling for site documents.
package cli

import (
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"staticcms/app/internal/codec"
	applog "staticcms/app/internal/log"
	"staticcms/app/internal/site"
)

const envPrefix = "CMSCTL"

// Settings are the values every command reads after configuration is
// resolved from flags, CMSCTL_* variables and the optional config file.
type Settings struct {
	Strict   bool   `mapstructure:"strict"`
	LogLevel string `mapstructure:"log_level"`
}

type app struct {
	cfgFile  string
	settings Settings
	logger   *logrus.Logger
}

// NewRootCommand builds the cmsctl command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "cmsctl",
		Short:         "Tooling for static CMS site documents",
		Long:          "cmsctl validates, formats and edits site-data.yaml documents without a running server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initializeConfig(cmd, errOut)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./cmsctl.yaml)")
	root.PersistentFlags().Bool("strict", true, "reject documents with colliding slugs")
	root.PersistentFlags().String("log-level", "warn", "log level for diagnostics on stderr")

	root.AddCommand(
		newValidateCommand(a),
		newFmtCommand(a),
		newResolveCommand(a),
		newImportCommand(a),
	)
	return root
}

// Execute runs cmsctl with the process arguments.
func Execute() error {
	return NewRootCommand(os.Stdout, os.Stderr).Execute()
}

func (a *app) initializeConfig(cmd *cobra.Command, errOut io.Writer) error {
	v := viper.New()
	v.SetDefault("strict", true)
	v.SetDefault("log_level", "warn")

	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("cmsctl")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !eris.As(err, &notFound) || a.cfgFile != "" {
			return eris.Wrap(err, "reading config file")
		}
	}

	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag("strict", flags.Lookup("strict")); err != nil {
		return eris.Wrap(err, "binding strict flag")
	}
	if err := v.BindPFlag("log_level", flags.Lookup("log-level")); err != nil {
		return eris.Wrap(err, "binding log-level flag")
	}

	if err := v.Unmarshal(&a.settings); err != nil {
		return eris.Wrap(err, "decoding config")
	}

	logger, err := applog.NewLogger(a.settings.LogLevel)
	if err != nil {
		return err
	}
	logger.SetOutput(errOut)
	a.logger = logger

	if used := v.ConfigFileUsed(); used != "" {
		applog.Component(logger, "cli").WithField("config", used).Debug("using config file")
	}
	return nil
}

// readDocument decodes the document at path and applies the slug check when
// strict mode is on.
func (a *app) readDocument(path string) (*site.SiteData, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reading %s", path)
	}

	doc, err := codec.Decode(text)
	if err != nil {
		return nil, eris.Wrapf(err, "decoding %s", path)
	}

	if a.settings.Strict {
		if err := site.Validate(doc); err != nil {
			return nil, eris.Wrapf(err, "validating %s", path)
		}
	}
	return doc, nil
}

func writeDocument(path string, doc *site.SiteData) error {
	info, err := os.Stat(path)
	mode := os.FileMode(0o644)
	if err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, codec.Encode(doc), mode); err != nil {
		return eris.Wrapf(err, "writing %s", path)
	}
	return nil
}
