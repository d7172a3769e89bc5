package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Person is one entry of the configured people list: a canonical label plus
// the text patterns that identify it in names and extracted content.
type Person struct {
	Label    string   `json:"label"`
	Patterns []string `json:"patterns"`
}

type PeopleConfig struct {
	People   []Person `json:"people"`
	Fallback string   `json:"fallback"`
}

// Taxonomy maps a destination root to suggested category subfolders. It is
// surfaced to users for reference and never enforced at runtime.
type Taxonomy map[string][]string

func loadLocalJSON(name string, dst any) bool {
	path := filepath.Join(Dir(), name+".local.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// LoadPeople reads people.local.json, defaulting to an empty list.
func LoadPeople() PeopleConfig {
	var pc PeopleConfig
	loadLocalJSON("people", &pc)
	return pc
}

// LoadTaxonomy reads taxonomy.local.json, falling back to built-in hints.
func LoadTaxonomy() Taxonomy {
	var tx Taxonomy
	if loadLocalJSON("taxonomy", &tx) {
		return tx
	}
	return Taxonomy{
		"Documents": {"Identity", "Legal", "Finance", "Housing", "Health", "Education", "Employment", "Travel", "Family"},
		"Projects":  {},
		"Media":     {"Movies", "Series", "Music", "Images"},
	}
}

// NormalizeOwnerLabel returns the canonical label when the given one matches
// a configured person, accent- and case-insensitively. Unknown labels map to
// the empty string.
func (pc PeopleConfig) NormalizeOwnerLabel(label string) string {
	if label == "" {
		return ""
	}
	want := strings.ToLower(strings.TrimSpace(unidecode.Unidecode(label)))
	for _, person := range pc.People {
		stored := strings.ToLower(strings.TrimSpace(unidecode.Unidecode(person.Label)))
		if stored == want {
			return person.Label
		}
	}
	return ""
}
