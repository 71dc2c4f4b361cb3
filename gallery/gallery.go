// Package gallery implements the helpers used to browse the assets an
// annotation document can be attached to.
package gallery

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Asset is an image stored by the asset service, along with the path of
// its annotation document.
type Asset struct {
	FileName     string   `json:"file_name"`
	FilePath     string   `json:"file_path"`
	MetaFilePath string   `json:"meta_file_path,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// ParseAssets decodes an asset listing.
func ParseAssets(data []byte) ([]Asset, error) {
	var assets []Asset
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, fmt.Errorf("gallery: invalid asset listing: %w", err)
	}
	return assets, nil
}

// MetaPath returns the location of the annotation document of a, relative
// to base. Assets without a document yield a path ending in "undefined",
// the form the loader treats as absent.
func MetaPath(base string, a Asset) string {
	if a.MetaFilePath == "" {
		return base + "undefined"
	}
	return base + a.MetaFilePath
}

// FilterByName returns the assets whose file name contains keyword,
// ignoring case. An empty keyword matches every asset.
func FilterByName(keyword string, assets []Asset) []Asset {
	if keyword == "" {
		return assets
	}
	keyword = strings.ToLower(keyword)

	var res []Asset
	for _, a := range assets {
		if strings.Contains(strings.ToLower(a.FileName), keyword) {
			res = append(res, a)
		}
	}
	return res
}

// FilterByTags returns the assets whose file name contains, ignoring case,
// at least one of the tags flagged in selected. selected[i] refers to tags[i].
// When no tag is selected every asset matches.
func FilterByTags(selected []bool, assets []Asset, tags []string) []Asset {
	var words []string
	for i, on := range selected {
		if on && i < len(tags) {
			words = append(words, strings.ToLower(tags[i]))
		}
	}
	if len(words) == 0 {
		return assets
	}

	var res []Asset
	for _, a := range assets {
		name := strings.ToLower(a.FileName)
		for _, w := range words {
			if strings.Contains(name, w) {
				res = append(res, a)
				break
			}
		}
	}
	return res
}

// ShortenString abbreviates s to its first six and last four characters.
// Strings too short to be abbreviated are returned unchanged.
func ShortenString(s string) string {
	if utf8.RuneCountInString(s) <= 10 {
		return s
	}
	r := []rune(s)
	return string(r[:6]) + "..." + string(r[len(r)-4:])
}

// SplitFileName splits a file name into its base name and its extension,
// dot included. A name without a dot has no extension.
func SplitFileName(name string) (base, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i:]
}
