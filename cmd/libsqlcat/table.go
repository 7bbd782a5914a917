package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/tomyedwab/libsqlhttp/libsql/client"
)

// Table list format.
const (
	TableFormatCSV     = "csv"
	TableFormatJSON    = "json"
	TableFormatTable   = "table"
	TableFormatYAML    = "yaml"
	TableFormatCompact = "compact"
)

const (
	// TableOptionNoHeader hides the table header when possible.
	TableOptionNoHeader = "noheader"

	// TableOptionHeader adds header to csv.
	TableOptionHeader = "header"
)

// renderTable renders tabular data in various formats. raw is what the json
// and yaml formats encode.
func renderTable(w io.Writer, format string, header []string, data [][]string, raw any) error {
	fields := strings.SplitN(format, ",", 2)
	format = fields[0]

	var options []string
	if len(fields) == 2 {
		options = strings.Split(fields[1], ",")

		if slices.Contains(options, TableOptionNoHeader) {
			header = nil
		}
	}

	switch format {
	case TableFormatTable:
		table := getBaseTable(w, header, data)
		table.SetRowLine(true)
		table.Render()
	case TableFormatCompact:
		table := getBaseTable(w, header, data)
		table.SetColumnSeparator("")
		table.SetHeaderLine(false)
		table.SetBorder(false)
		table.Render()
	case TableFormatCSV:
		w := csv.NewWriter(w)
		if slices.Contains(options, TableOptionHeader) {
			err := w.Write(header)
			if err != nil {
				return err
			}
		}

		err := w.WriteAll(data)
		if err != nil {
			return err
		}

	case TableFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err := enc.Encode(raw)
		if err != nil {
			return err
		}

	case TableFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err := enc.Encode(raw)
		if err != nil {
			return err
		}

		err = enc.Close()
		if err != nil {
			return err
		}

	default:
		return fmt.Errorf("Invalid format %q", format)
	}

	return nil
}

func getBaseTable(w io.Writer, header []string, data [][]string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	table.AppendBulk(data)
	return table
}

// renderResult renders a statement result. NULL cells print as "NULL" in the
// text formats and as null in json and yaml.
func renderResult(w io.Writer, format string, res *client.Result) error {
	data := make([][]string, len(res.Rows))
	raw := make([]map[string]any, len(res.Rows))
	for i, row := range res.Rows {
		data[i] = make([]string, len(row))
		raw[i] = make(map[string]any, len(row))
		for j, v := range row {
			if v.IsNull() {
				data[i][j] = "NULL"
			} else {
				data[i][j] = v.String()
			}
			if j < len(res.Columns) {
				raw[i][res.Columns[j]] = v.Interface()
			}
		}
	}
	return renderTable(w, format, res.Columns, data, raw)
}
