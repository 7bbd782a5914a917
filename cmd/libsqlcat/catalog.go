package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tomyedwab/libsqlhttp/libsql/catalog"
	"github.com/tomyedwab/libsqlhttp/libsql/client"
)

// runCatalog resolves the catalog builder, runs view and renders its result.
func (c *cmdGlobal) runCatalog(cmd *cobra.Command, view func(ctx context.Context, b *catalog.Builder) (*client.Result, error)) error {
	b, err := c.Catalog()
	if err != nil {
		return err
	}

	res, err := view(cmd.Context(), b)
	if err != nil {
		return err
	}

	return renderResult(cmd.OutOrStdout(), c.Format(), res)
}

// Tables.
type cmdTables struct {
	global *cmdGlobal

	flagTypes []string
}

func (c *cmdTables) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "tables"
	cmd.Short = "List tables"
	cmd.Long = `List tables

  By default only ordinary tables are listed. Use --type view (repeatable)
  to select other schema object types.`
	cmd.Flags().StringSliceVarP(&c.flagTypes, "type", "t", nil, "Object types to list")
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdTables) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	return c.global.runCatalog(cmd, func(ctx context.Context, b *catalog.Builder) (*client.Result, error) {
		return b.Tables(ctx, c.flagTypes...)
	})
}

// Columns.
type cmdColumns struct {
	global *cmdGlobal
}

func (c *cmdColumns) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "columns <table>"
	cmd.Short = "List the columns of a table"
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdColumns) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	return c.global.runCatalog(cmd, func(ctx context.Context, b *catalog.Builder) (*client.Result, error) {
		return b.Columns(ctx, args[0])
	})
}

// Primary keys.
type cmdPrimaryKeys struct {
	global *cmdGlobal
}

func (c *cmdPrimaryKeys) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "primary-keys <table>"
	cmd.Aliases = []string{"pk"}
	cmd.Short = "Show the primary key of a table"
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdPrimaryKeys) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	return c.global.runCatalog(cmd, func(ctx context.Context, b *catalog.Builder) (*client.Result, error) {
		return b.PrimaryKeys(ctx, args[0])
	})
}

// Imported keys.
type cmdForeignKeys struct {
	global *cmdGlobal
}

func (c *cmdForeignKeys) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "foreign-keys <table>"
	cmd.Aliases = []string{"fk", "imported-keys"}
	cmd.Short = "Show the foreign keys declared by a table"
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdForeignKeys) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	return c.global.runCatalog(cmd, func(ctx context.Context, b *catalog.Builder) (*client.Result, error) {
		return b.ImportedKeys(ctx, args[0])
	})
}

// Exported keys.
type cmdExportedKeys struct {
	global *cmdGlobal
}

func (c *cmdExportedKeys) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "exported-keys <table>"
	cmd.Short = "Show the foreign keys referencing a table"
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdExportedKeys) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	return c.global.runCatalog(cmd, func(ctx context.Context, b *catalog.Builder) (*client.Result, error) {
		return b.ExportedKeys(ctx, args[0])
	})
}

// Cross reference.
type cmdCrossReference struct {
	global *cmdGlobal
}

func (c *cmdCrossReference) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "cross-reference <parent> <child>"
	cmd.Short = "Show the foreign keys from a child table to a parent table"
	cmd.Long = `Show the foreign keys from a child table to a parent table

  Either table may be given as "" to match any table.`
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdCrossReference) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.CheckArgs(cmd, args, 2, 2)
	if exit {
		return err
	}

	return c.global.runCatalog(cmd, func(ctx context.Context, b *catalog.Builder) (*client.Result, error) {
		return b.CrossReference(ctx, args[0], args[1])
	})
}

// Indexes.
type cmdIndexes struct {
	global *cmdGlobal

	flagUnique bool
}

func (c *cmdIndexes) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "indexes <table>"
	cmd.Short = "List the indexes of a table"
	cmd.Flags().BoolVar(&c.flagUnique, "unique", false, "Only list unique indexes")
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdIndexes) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	return c.global.runCatalog(cmd, func(ctx context.Context, b *catalog.Builder) (*client.Result, error) {
		return b.IndexInfo(ctx, args[0], c.flagUnique)
	})
}
