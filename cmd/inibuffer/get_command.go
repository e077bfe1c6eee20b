package main

import (
	"fmt"
	"strings"

	"github.com/sardine-ai/go-remote-ini/ini"
	"github.com/spf13/cobra"
)

func newGetCommand(ctx *commandContext) *cobra.Command {
	var section, key, typeName string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a single value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.loadBuffer(cmd.Context())
			if err != nil {
				return err
			}
			value, err := lookup(b, section, key, typeName)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	cmd.Flags().StringVar(&section, "section", "", "Section name")
	cmd.Flags().StringVar(&key, "key", "", "Key name")
	cmd.Flags().StringVarP(&typeName, "type", "t", "auto", "Expected type (int, float, bool, string, auto)")
	_ = cmd.MarkFlagRequired("section")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

// lookup reads a value with the strict getter for typeName. "auto" returns the
// value as its detected type.
func lookup(b *ini.Buffer, section, key, typeName string) (interface{}, error) {
	name := strings.TrimSpace(typeName)
	if name == "" || strings.EqualFold(name, "auto") {
		v, err := b.Lookup(section, key)
		if err != nil {
			return nil, err
		}
		return v.Interface(), nil
	}
	typ, err := ini.ParseDataType(name)
	if err != nil {
		return nil, err
	}
	switch typ {
	case ini.TypeInt:
		return b.GetInt(section, key)
	case ini.TypeFloat:
		return b.GetFloat(section, key)
	case ini.TypeBool:
		return b.GetBool(section, key)
	case ini.TypeString:
		return b.GetString(section, key)
	}
	return nil, fmt.Errorf("%q: %w", typeName, ini.ErrUnsupportedType)
}
