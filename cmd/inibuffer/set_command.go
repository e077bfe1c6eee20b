package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sardine-ai/go-remote-ini/ini"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newSetCommand(ctx *commandContext) *cobra.Command {
	var section, key, value, typeName, output string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a value and write the file back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			typed, err := convert(value, typeName)
			if err != nil {
				return err
			}
			b, err := ctx.loadBuffer(cmd.Context())
			if err != nil {
				return err
			}
			if err := b.AddValue(section, key, typed); err != nil {
				return err
			}
			return writeBuffer(cmd, ctx, b, output)
		},
	}

	cmd.Flags().StringVar(&section, "section", "", "Section name")
	cmd.Flags().StringVar(&key, "key", "", "Key name")
	cmd.Flags().StringVar(&value, "value", "", "Value to store")
	cmd.Flags().StringVarP(&typeName, "type", "t", "auto", "Parse the value as this type before storing (int, float, bool, string, auto)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this path instead of the loaded file")
	_ = cmd.MarkFlagRequired("section")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newEraseCommand(ctx *commandContext) *cobra.Command {
	var section, key, output string

	cmd := &cobra.Command{
		Use:   "erase",
		Short: "Remove a section or a single key and write the file back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.loadBuffer(cmd.Context())
			if err != nil {
				return err
			}
			if key == "" {
				err = b.EraseSection(section)
			} else {
				err = b.EraseProperty(section, key)
			}
			if err != nil {
				return err
			}
			return writeBuffer(cmd, ctx, b, output)
		},
	}

	cmd.Flags().StringVar(&section, "section", "", "Section name")
	cmd.Flags().StringVar(&key, "key", "", "Key to remove; the whole section is removed when empty")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this path instead of the loaded file")
	_ = cmd.MarkFlagRequired("section")
	return cmd
}

func writeBuffer(cmd *cobra.Command, ctx *commandContext, b *ini.Buffer, output string) error {
	path, err := ctx.outputPath(output)
	if err != nil {
		return err
	}
	if err := b.WriteFile(path); err != nil {
		return err
	}
	logrus.WithField("path", path).Debug("wrote buffer")
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// convert parses text as typeName. "auto" keeps the text and lets the buffer
// detect the type.
func convert(text, typeName string) (interface{}, error) {
	switch strings.ToLower(strings.TrimSpace(typeName)) {
	case "", "auto", "string":
		return text, nil
	case "int":
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("--value %q: %w", text, err)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, fmt.Errorf("--value %q: %w", text, err)
		}
		return f, nil
	case "bool":
		t, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("--value %q: %w", text, err)
		}
		return t, nil
	}
	return nil, fmt.Errorf("%q: %w", typeName, ini.ErrUnsupportedType)
}
