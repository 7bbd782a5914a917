package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type cmdVersion struct {
	global *cmdGlobal
}

func (c *cmdVersion) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "version"
	cmd.Short = "Show the server product name and version"
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdVersion) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	b, err := c.global.Catalog()
	if err != nil {
		return err
	}

	name, err := b.ProductName(cmd.Context())
	if err != nil {
		return err
	}

	version, err := b.ProductVersion(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Server: %s\nVersion: %s\n", name, version)
	return nil
}

type cmdDescribe struct {
	global *cmdGlobal
}

func (c *cmdDescribe) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "describe <table>"
	cmd.Short = "Show the primary and foreign keys of a table"
	cmd.Long = `Show the primary and foreign keys of a table

  The description is printed as YAML, or as JSON with --format json.`
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdDescribe) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	b, err := c.global.Catalog()
	if err != nil {
		return err
	}

	desc, err := b.Describe(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if c.global.Format() == TableFormatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(desc)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(desc); err != nil {
		return err
	}
	return enc.Close()
}
