package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomyedwab/libsqlhttp/libsql/catalog"
	"github.com/tomyedwab/libsqlhttp/libsql/client"
)

type cmdGlobal struct {
	flagURL      string
	flagToken    string
	flagClientID string
	flagFormat   string
	flagProfile  string
	flagConfig   string
	flagDebug    bool

	logger *slog.Logger
	conf   *config
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	globalCmd := &cmdGlobal{}

	app := &cobra.Command{}
	app.Use = "libsqlcat"
	app.Short = "Query a libSQL server and print its catalog"
	app.Long = `Query a libSQL server over HTTP and print catalog views

  The server URL and token are taken from --url and --token, then from the
  LIBSQL_URL and LIBSQL_AUTH_TOKEN environment variables, then from the
  selected profile of the configuration file.`
	app.SilenceUsage = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	app.PersistentFlags().StringVar(&globalCmd.flagURL, "url", "", "Server URL or libsql: connection URL")
	app.PersistentFlags().StringVar(&globalCmd.flagToken, "token", "", "Bearer token")
	app.PersistentFlags().StringVar(&globalCmd.flagClientID, "client-id", "", "Client identifier sent as User-Agent")
	app.PersistentFlags().StringVarP(&globalCmd.flagFormat, "format", "f", "", `Output format (table, compact, csv, json or yaml)`)
	app.PersistentFlags().StringVarP(&globalCmd.flagProfile, "profile", "p", "", "Configuration profile to use")
	app.PersistentFlags().StringVar(&globalCmd.flagConfig, "config", "", "Path to the configuration file")
	app.PersistentFlags().BoolVar(&globalCmd.flagDebug, "debug", false, "Show debug logs")
	app.PersistentPreRunE = globalCmd.PreRun

	queryCmd := cmdQuery{global: globalCmd}
	app.AddCommand(queryCmd.Command())

	versionCmd := cmdVersion{global: globalCmd}
	app.AddCommand(versionCmd.Command())

	tablesCmd := cmdTables{global: globalCmd}
	app.AddCommand(tablesCmd.Command())

	columnsCmd := cmdColumns{global: globalCmd}
	app.AddCommand(columnsCmd.Command())

	primaryKeysCmd := cmdPrimaryKeys{global: globalCmd}
	app.AddCommand(primaryKeysCmd.Command())

	foreignKeysCmd := cmdForeignKeys{global: globalCmd}
	app.AddCommand(foreignKeysCmd.Command())

	exportedKeysCmd := cmdExportedKeys{global: globalCmd}
	app.AddCommand(exportedKeysCmd.Command())

	crossReferenceCmd := cmdCrossReference{global: globalCmd}
	app.AddCommand(crossReferenceCmd.Command())

	indexesCmd := cmdIndexes{global: globalCmd}
	app.AddCommand(indexesCmd.Command())

	describeCmd := cmdDescribe{global: globalCmd}
	app.AddCommand(describeCmd.Command())

	return app
}

// PreRun sets up logging and loads the configuration file.
func (c *cmdGlobal) PreRun(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if c.flagDebug {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(c.logger)

	path := c.flagConfig
	if path == "" {
		path = defaultConfigPath()
	}
	conf, err := loadConfig(path)
	if err != nil {
		return err
	}
	c.conf = conf
	return nil
}

// settings resolves the connection settings: flags, then environment, then
// the profile.
func (c *cmdGlobal) settings() (profile, error) {
	p, err := c.conf.profile(c.flagProfile)
	if err != nil {
		return profile{}, err
	}

	if v := os.Getenv("LIBSQL_URL"); v != "" {
		p.URL = v
	}
	if v := os.Getenv("LIBSQL_AUTH_TOKEN"); v != "" {
		p.AuthToken = v
	}
	if c.flagURL != "" {
		p.URL = c.flagURL
	}
	if c.flagToken != "" {
		p.AuthToken = c.flagToken
	}
	if c.flagClientID != "" {
		p.ClientID = c.flagClientID
	}
	if c.flagFormat != "" {
		p.Format = c.flagFormat
	}
	if p.Format == "" {
		p.Format = TableFormatTable
	}

	if p.URL == "" {
		return profile{}, fmt.Errorf("No server URL given (use --url, LIBSQL_URL or a profile)")
	}
	return p, nil
}

// Client builds a client from the resolved settings.
func (c *cmdGlobal) Client() (*client.Client, error) {
	p, err := c.settings()
	if err != nil {
		return nil, err
	}
	return p.client(c.logger)
}

// Catalog builds a catalog builder from the resolved settings.
func (c *cmdGlobal) Catalog() (*catalog.Builder, error) {
	cl, err := c.Client()
	if err != nil {
		return nil, err
	}
	return catalog.New(cl, catalog.WithLogger(c.logger)), nil
}

// Format returns the resolved output format.
func (c *cmdGlobal) Format() string {
	p, err := c.settings()
	if err != nil || p.Format == "" {
		return TableFormatTable
	}
	return p.Format
}

// CheckArgs checks the positional argument count and prints usage when it is
// wrong.
func (c *cmdGlobal) CheckArgs(cmd *cobra.Command, args []string, minArgs int, maxArgs int) (bool, error) {
	if len(args) < minArgs || (maxArgs != -1 && len(args) > maxArgs) {
		_ = cmd.Help()

		if len(args) == 0 {
			return true, nil
		}

		return true, fmt.Errorf("Invalid number of arguments")
	}

	return false, nil
}
