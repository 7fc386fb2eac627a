package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.squit.io/squit/config"
	"go.squit.io/squit/utils"
	"go.squit.io/squit/utils/log"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is looked up in the configPath directory, without extension.
const ConfigFileName = "squit"

type CmdConfigurator struct {
	logger *zap.Logger
	cfg    *config.Config
	v      *viper.Viper
}

func NewCmdConfigurator(logger *zap.Logger, cfg *config.Config) *CmdConfigurator {
	return &CmdConfigurator{
		logger: logger,
		cfg:    cfg,
		v:      viper.New(),
	}
}

// flagKeys maps flag names onto their config keys.
var flagKeys = map[string]string{
	"debug":                "debug",
	"debugModules":         "debugModules",
	"disableANSI":          "disableANSI",
	"configPath":           "configPath",
	"path":                 "path",
	"buildPath":            "buildPath",
	"tags":                 "tags",
	"parallelism":          "parallelism",
	"ignoreFailures":       "ignoreFailures",
	"timeout":              "test.timeout",
	"retries":              "test.retries",
	"canonicalizeJSON":     "test.canonicalizeJSON",
	"canonicalizeXML":      "test.canonicalizeXML",
	"xmlStrict":            "test.xmlStrict",
	"jsonIgnoreArrayOrder": "test.jsonIgnoreArrayOrder",
	"scriptInterpreter":    "test.scriptInterpreter",
	"reportPath":           "report.path",
	"reportFormat":         "report.format",
	"full-body":            "report.showFullBody",
	"history":              "history.enabled",
	"historyPath":          "history.path",
	"threshold":            "history.threshold",
}

func (c *CmdConfigurator) AddFlags(cmd *cobra.Command) error {
	cfg := c.cfg
	switch cmd.Name() {
	case "squit":
		flags := cmd.PersistentFlags()
		flags.Bool("debug", cfg.Debug, "Run in debug mode")
		flags.StringSlice("debugModules", cfg.DebugModules, "Modules logging at debug level e.g. --debugModules run,resolve")
		flags.Bool("disableANSI", cfg.DisableANSI, "Disable coloured output")
		flags.String("configPath", cfg.ConfigPath, "Path to the directory holding squit.yaml")
		return c.bind(cmd, true, "debug", "debugModules", "disableANSI", "configPath")
	case "test", "list":
		cmd.Flags().StringP("path", "p", cfg.Path, "Path to the fixture tree")
		cmd.Flags().String("buildPath", cfg.BuildPath, "Path where processed fixtures, responses and reports are written")
		cmd.Flags().StringArray("var", nil, "Template variable used in test.conf files e.g. --var port=8080")
		cmd.Flags().StringSliceP("tags", "t", cfg.Tags, "Only run fixtures carrying one of the tags")
		names := []string{"path", "buildPath", "tags"}
		if cmd.Name() == "list" {
			cmd.Flags().Bool("processors", false, "List the registered body processors instead of the fixtures")
		}
		if cmd.Name() == "test" {
			cmd.Flags().Int("parallelism", cfg.Parallelism, "Number of fixtures run concurrently, 0 uses the number of CPUs")
			cmd.Flags().Bool("ignoreFailures", cfg.IgnoreFailures, "Exit successfully even if fixtures fail")
			cmd.Flags().Duration("timeout", cfg.Test.Timeout, "Timeout of a single request")
			cmd.Flags().Int("retries", cfg.Test.Retries, "Retries of a request that failed to connect")
			cmd.Flags().Bool("canonicalizeJSON", cfg.Test.CanonicalizeJSON, "Canonicalize JSON bodies before comparing them")
			cmd.Flags().Bool("canonicalizeXML", cfg.Test.CanonicalizeXML, "Canonicalize XML bodies before comparing them")
			cmd.Flags().Bool("xmlStrict", cfg.Test.XMLStrict, "Compare XML namespace prefixes and declarations")
			cmd.Flags().Bool("jsonIgnoreArrayOrder", cfg.Test.JSONIgnoreArrayOrder, "Ignore the order of JSON array elements")
			cmd.Flags().String("scriptInterpreter", cfg.Test.ScriptInterpreter, "Interpreter used to run processor scripts e.g. python3")
			cmd.Flags().String("reportPath", cfg.Report.Path, "Directory of the result file")
			cmd.Flags().String("reportFormat", cfg.Report.Format, "Format of the result file, yaml or json")
			cmd.Flags().Bool("full-body", cfg.Report.ShowFullBody, "Print expected and actual bodies of failed fixtures")
			cmd.Flags().Bool("history", cfg.History.Enabled, "Record the outcome of every fixture in the result history")
			cmd.Flags().String("historyPath", cfg.History.Path, "Path of the result history file")
			names = append(names, "parallelism", "ignoreFailures", "timeout", "retries", "canonicalizeJSON",
				"canonicalizeXML", "xmlStrict", "jsonIgnoreArrayOrder", "scriptInterpreter", "reportPath",
				"reportFormat", "full-body", "history", "historyPath")
		}
		return c.bind(cmd, false, names...)
	case "report":
		cmd.Flags().String("file", "", "Result file to render, defaults to the last result file below the build path")
		cmd.Flags().String("buildPath", cfg.BuildPath, "Path where reports are written")
		cmd.Flags().String("reportPath", cfg.Report.Path, "Directory of the result file")
		cmd.Flags().String("reportFormat", cfg.Report.Format, "Format of the result file, yaml or json")
		cmd.Flags().Bool("full-body", cfg.Report.ShowFullBody, "Print expected and actual bodies of failed fixtures")
		return c.bind(cmd, false, "buildPath", "reportPath", "reportFormat", "full-body")
	case "flaky":
		cmd.Flags().String("buildPath", cfg.BuildPath, "Path where the result history is kept")
		cmd.Flags().String("historyPath", cfg.History.Path, "Path of the result history file")
		cmd.Flags().Float64("threshold", cfg.History.Threshold, "Minimum failure rate, between 0 and 1")
		return c.bind(cmd, false, "buildPath", "historyPath", "threshold")
	default:
		return errors.New("unknown command name")
	}
}

func (c *CmdConfigurator) bind(cmd *cobra.Command, persistent bool, names ...string) error {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	for _, name := range names {
		if err := c.v.BindPFlag(flagKeys[name], flags.Lookup(name)); err != nil {
			errMsg := "failed to bind flags to config"
			utils.LogError(c.logger, err, errMsg, zap.String("flag", name))
			return errors.New(errMsg)
		}
	}
	return nil
}

// ValidateFlags layers squit.yaml and the flags over the defaults and checks the result.
func (c *CmdConfigurator) ValidateFlags(_ context.Context, cmd *cobra.Command) error {
	if err := c.readConfigFile(); err != nil {
		return err
	}
	if err := c.v.Unmarshal(c.cfg); err != nil {
		utils.LogError(c.logger, err, "failed to unmarshal the config")
		return err
	}
	if err := c.readVariables(); err != nil {
		return err
	}

	if c.cfg.Debug {
		logger, err := log.ChangeLogLevel(zap.DebugLevel)
		if err != nil {
			utils.LogError(c.logger, err, "failed to change log level")
			return err
		}
		*c.logger = *logger
	}

	switch cmd.Name() {
	case "test", "list":
		pairs, err := cmd.Flags().GetStringArray("var")
		if err != nil {
			utils.LogError(c.logger, err, "failed to read the template variables")
			return err
		}
		if err := config.SetVariables(c.cfg, pairs); err != nil {
			utils.LogError(c.logger, err, "invalid template variable")
			return err
		}
		if c.cfg.Parallelism < 0 {
			return fmt.Errorf("parallelism must not be negative, got %d", c.cfg.Parallelism)
		}
		absPath, err := filepath.Abs(c.cfg.Path)
		if err != nil {
			utils.LogError(c.logger, err, "failed to get the absolute path from relative path", zap.String("path", c.cfg.Path))
			return err
		}
		info, err := os.Stat(absPath)
		if err != nil || !info.IsDir() {
			c.logger.Error("fixture path is not a directory", zap.String("path", absPath))
			c.logger.Info("Example usage: " + cmd.Example)
			return fmt.Errorf("fixture path %s is not a directory", absPath)
		}
		c.cfg.Path = absPath
	case "flaky":
		if c.cfg.History.Threshold < 0 || c.cfg.History.Threshold > 1 {
			return fmt.Errorf("threshold must be between 0 and 1, got %v", c.cfg.History.Threshold)
		}
	}
	if cmd.Name() == "test" || cmd.Name() == "report" {
		if err := config.ValidateReportFormat(c.cfg.Report.Format); err != nil {
			utils.LogError(c.logger, err, "invalid report format")
			return err
		}
	}

	c.logger.Debug("initialized with configuration", zap.Any("conf", c.cfg))
	return nil
}

// readVariables takes the variables of the config file verbatim since viper
// lowercases map keys and placeholders are case-sensitive.
func (c *CmdConfigurator) readVariables() error {
	file := c.v.ConfigFileUsed()
	if file == "" {
		return nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		utils.LogError(c.logger, err, "failed to read config file", zap.String("file", file))
		return err
	}
	var raw struct {
		Variables map[string]string `yaml:"variables"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		utils.LogError(c.logger, err, "failed to read variables from config file", zap.String("file", file))
		return err
	}
	if raw.Variables != nil {
		c.cfg.Variables = raw.Variables
	}
	return nil
}

func (c *CmdConfigurator) readConfigFile() error {
	configPath := c.v.GetString("configPath")
	if configPath == "" {
		configPath = c.cfg.ConfigPath
	}
	c.v.SetConfigName(ConfigFileName)
	c.v.SetConfigType("yaml")
	c.v.AddConfigPath(configPath)
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			c.logger.Debug("no config file found, using defaults and flags", zap.String("configPath", configPath))
			return nil
		}
		utils.LogError(c.logger, err, "failed to read config file", zap.String("configPath", configPath))
		return err
	}
	c.logger.Debug("read config file", zap.String("file", c.v.ConfigFileUsed()))
	return nil
}
