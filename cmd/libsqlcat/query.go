package main

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/tomyedwab/libsqlhttp/libsql/client"
	"github.com/tomyedwab/libsqlhttp/libsql/driver"
)

type cmdQuery struct {
	global *cmdGlobal

	flagExec bool
}

func (c *cmdQuery) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "query <sql> [<arg>...]"
	cmd.Aliases = []string{"sql"}
	cmd.Short = "Run a SQL statement"
	cmd.Long = `Run a SQL statement

  Extra arguments are bound to the ? placeholders in order.

  If <sql> is the special value "-", then the statement is read from
  standard input.`
	cmd.Flags().BoolVar(&c.flagExec, "exec", false, "Run as a write and print the number of affected rows")
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdQuery) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.CheckArgs(cmd, args, 1, -1)
	if exit {
		return err
	}

	query := args[0]
	if query == "-" {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("Failed to read from stdin: %w", err)
		}

		query = string(content)
	}

	queryArgs := make([]any, len(args)-1)
	for i, arg := range args[1:] {
		queryArgs[i] = arg
	}

	cl, err := c.global.Client()
	if err != nil {
		return err
	}

	db := sqlx.NewDb(sql.OpenDB(driver.NewConnector(cl)), driver.DriverName)
	defer db.Close()

	ctx := cmd.Context()
	if c.flagExec {
		result, err := db.ExecContext(ctx, query, queryArgs...)
		if err != nil {
			return err
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Rows affected: %d\n", affected)
		return nil
	}

	rows, err := db.QueryxContext(ctx, query, queryArgs...)
	if err != nil {
		return err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	var data []client.Row
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return err
		}

		row := make(client.Row, len(values))
		for i, v := range values {
			row[i], err = client.ValueOf(v)
			if err != nil {
				return err
			}
		}

		data = append(data, row)
	}

	if err := rows.Err(); err != nil {
		return err
	}

	res, err := client.NewResult(columns, data)
	if err != nil {
		return err
	}

	if len(columns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return nil
	}

	return renderResult(cmd.OutOrStdout(), c.global.Format(), res)
}
