package model

import "github.com/sardine-ai/go-remote-ini/ini"

// Entries flattens a buffer into entries ordered by section and key.
func Entries(b *ini.Buffer) []Entry {
	var entries []Entry
	for _, section := range b.Sections() {
		keys, err := b.Keys(section)
		if err != nil {
			continue
		}
		for _, key := range keys {
			v, err := b.Lookup(section, key)
			if err != nil {
				continue
			}
			entries = append(entries, Entry{
				Section: section,
				Key:     key,
				Type:    v.Type().String(),
				Value:   v.Raw(),
			})
		}
	}
	return entries
}
