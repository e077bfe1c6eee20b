// Package format renders an INI buffer in the formats offered by the server
// and the command line.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sardine-ai/go-remote-ini/ini"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	INI  Format = "ini"
	YAML Format = "yaml"
	JSON Format = "json"
	TOML Format = "toml"
)

// Parse returns the Format for a name such as "yaml" or "yml". An empty name
// selects INI.
func Parse(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ini":
		return INI, nil
	case "yaml", "yml":
		return YAML, nil
	case "json":
		return JSON, nil
	case "toml":
		return TOML, nil
	}
	return "", fmt.Errorf("unknown format %q", name)
}

// ContentType returns the HTTP content type for f.
func (f Format) ContentType() string {
	switch f {
	case YAML:
		return "application/yaml"
	case JSON:
		return "application/json"
	case TOML:
		return "application/toml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Encode writes the whole buffer to w. INI output carries no header.
func Encode(w io.Writer, b *ini.Buffer, f Format) error {
	if f == INI {
		text, err := b.MarshalText()
		if err != nil {
			return err
		}
		_, err = w.Write(text)
		return err
	}
	return EncodeValue(w, b.Map(), f)
}

// EncodeSection writes a single section to w.
func EncodeSection(w io.Writer, b *ini.Buffer, section string, f Format) error {
	if f == INI {
		return b.EncodeSection(w, section)
	}
	values, err := b.SectionMap(section)
	if err != nil {
		return err
	}
	return EncodeValue(w, values, f)
}

// EncodeValue writes an arbitrary value in a structured format. INI is not
// supported here.
func EncodeValue(w io.Writer, v interface{}, f Format) error {
	switch f {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case TOML:
		return toml.NewEncoder(w).Encode(v)
	}
	return fmt.Errorf("unknown format %q", f)
}
