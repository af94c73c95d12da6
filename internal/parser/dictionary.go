package parser

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// dictionaryFile is the on-disk entity dictionary format:
//
//	entities:
//	  - canonical: Сбербанк
//	    aliases: [Сбер, СберБанк]
//	  - canonical: ВТБ
//	    aliases: [VTB]
type dictionaryFile struct {
	Entities []struct {
		Canonical string   `yaml:"canonical"`
		Aliases   []string `yaml:"aliases"`
	} `yaml:"entities"`
}

// LoadEntities reads a YAML entity dictionary. Each canonical name is also
// searched for as an alias of itself. Alias order follows the file.
func LoadEntities(path string) (*Entities, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parser: read dictionary %s: %w", path, err)
	}
	return ParseEntities(data)
}

// ParseEntities builds an extractor from YAML dictionary bytes.
func ParseEntities(data []byte) (*Entities, error) {
	var f dictionaryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parser: parse dictionary: %w", err)
	}

	var aliases []string
	canonical := make(map[string]string)
	for _, ent := range f.Entities {
		name := strings.TrimSpace(ent.Canonical)
		if name == "" {
			return nil, fmt.Errorf("parser: dictionary entry without canonical name")
		}
		aliases = append(aliases, name)
		for _, a := range ent.Aliases {
			a = strings.TrimSpace(a)
			if a == "" || a == name {
				continue
			}
			aliases = append(aliases, a)
			canonical[a] = name
		}
	}
	return NewEntities(aliases, canonical), nil
}
