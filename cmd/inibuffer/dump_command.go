package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sardine-ai/go-remote-ini/format"
	"github.com/sardine-ai/go-remote-ini/ini"
	"github.com/sardine-ai/go-remote-ini/model"
	"github.com/spf13/cobra"
)

const tableFormat = "table"

func newDumpCommand(ctx *commandContext) *cobra.Command {
	var formatName, section string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the loaded configuration",
		Long:  "Print the loaded configuration as a table or as ini, yaml, json or toml. The default is a table on a terminal and ini otherwise.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.loadBuffer(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			name := strings.ToLower(strings.TrimSpace(formatName))
			if name == "" {
				name = defaultDumpFormat(out)
			}
			if name == tableFormat {
				return dumpTable(out, b, section)
			}
			f, err := format.Parse(name)
			if err != nil {
				return err
			}
			if section != "" {
				return format.EncodeSection(out, b, section, f)
			}
			return format.Encode(out, b, f)
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "F", "", "Output format (table, ini, yaml, json, toml)")
	cmd.Flags().StringVar(&section, "section", "", "Only print this section")
	return cmd
}

func defaultDumpFormat(out io.Writer) string {
	file, ok := out.(*os.File)
	if !ok {
		return string(format.INI)
	}
	fd := file.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return tableFormat
	}
	return string(format.INI)
}

func dumpTable(out io.Writer, b *ini.Buffer, section string) error {
	if section != "" && !b.HasSection(section) {
		return fmt.Errorf("section %q: %w", section, ini.ErrSectionNotFound)
	}
	var rows [][]string
	for _, e := range model.Entries(b) {
		if section != "" && e.Section != section {
			continue
		}
		rows = append(rows, []string{e.Section, e.Key, e.Type, e.Value})
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No values")
		return nil
	}
	fmt.Fprintln(out, renderTable([]string{"Section", "Key", "Type", "Value"}, rows))
	return nil
}
