package main

import (
	"fmt"
	"io"

	"github.com/sardine-ai/go-remote-ini/ini"
	"github.com/spf13/cobra"
)

func newDemoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Read one value of each type and round-trip an inserted float",
		Long: "Read one value of each type and round-trip an inserted float. " +
			"The default --file, testdata/test.ini, is resolved against the working directory " +
			"and ships in cmd/inibuffer; pass --file or --source to run it from elsewhere.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.loadBuffer(cmd.Context())
			if err != nil {
				return err
			}
			return runDemo(cmd.OutOrStdout(), b)
		},
	}
}

func runDemo(out io.Writer, b *ini.Buffer) error {
	n, err := b.GetInt("04_integers", "key02")
	if err != nil {
		return err
	}
	printValue(out, "04_integers", "key02", n)

	f, err := b.GetFloat("05_floats", "key02")
	if err != nil {
		return err
	}
	printValue(out, "05_floats", "key02", f)

	t, err := b.GetBool("06_booleans", "key02")
	if err != nil {
		return err
	}
	printValue(out, "06_booleans", "key02", t)

	s, err := b.GetString("03_strings", "key02")
	if err != nil {
		return err
	}
	printValue(out, "03_strings", "key02", s)

	if err := b.AddValue("new_section", "key", 1.55); err != nil {
		return err
	}
	added, err := ini.Get[float64](b, "new_section", "key")
	if err != nil {
		return err
	}
	printValue(out, "new_section", "key", added)
	return nil
}

func printValue(out io.Writer, section, key string, value interface{}) {
	fmt.Fprintf(out, "section:%s; key:%s; value:%v\n", section, key, value)
}
