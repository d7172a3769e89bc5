package agent

import (
	"path/filepath"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"vaultsort/internal/config"
)

func foldText(s string) string {
	return strings.ToLower(unidecode.Unidecode(s))
}

// detectOwnerFromText returns the label of the first configured person whose
// pattern occurs in the text, matched case and accent insensitively.
func detectOwnerFromText(people config.PeopleConfig, text string) string {
	folded := foldText(text)
	if folded == "" {
		return ""
	}
	for _, p := range people.People {
		for _, pat := range p.Patterns {
			fp := foldText(pat)
			if fp != "" && strings.Contains(folded, fp) {
				return p.Label
			}
		}
	}
	return ""
}

// detectOwnerForPath tries the file name first, then any extracted text from
// the most recent inspection of the same path.
func detectOwnerForPath(people config.PeopleConfig, path string, recent *slimInspect) string {
	if owner := detectOwnerFromText(people, filepath.Base(path)); owner != "" {
		return owner
	}
	if recent != nil {
		if owner := detectOwnerFromText(people, recent.Text); owner != "" {
			return owner
		}
		if owner := detectOwnerFromText(people, recent.OCR); owner != "" {
			return owner
		}
	}
	return ""
}
