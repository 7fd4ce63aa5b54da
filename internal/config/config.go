// Package config loads the chatmerge location configuration. The location
// list comes from the resolved YAML config file when one is present, falling
// back to the built-in table of well-known viewer installation roots.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/viper"

	"github.com/firekeep/chatmerge/pkg/errors"
	"github.com/firekeep/chatmerge/pkg/reconcile"
)

// LocationEntry is one directory entry in the config file.
type LocationEntry struct {
	Path   string `yaml:"path"`
	Access string `yaml:"access"`
}

// File is the subset of the config file this package owns. Global flags in
// the same file are handled by viper.
type File struct {
	Locations []LocationEntry `yaml:"locations"`
}

// defaultEntries are the well-known viewer installation roots and the synced
// archive folder, used when the config file declares no locations. Windows
// and macOS app-data layouts are both listed; locations that do not exist on
// the running machine are dropped at reconcile time.
var defaultEntries = []LocationEntry{
	{Path: "~/AppData/Roaming/Firestorm_x64/", Access: "rw"},
	{Path: "~/AppData/Roaming/Kokua/", Access: "rw"},
	{Path: "~/AppData/Roaming/SecondLife/", Access: "rw"},
	{Path: "~/Library/Application Support/Firestorm/", Access: "rw"},
	{Path: "~/Library/Application Support/Kokua/", Access: "rw"},
	{Path: "~/Library/Application Support/SecondLife/", Access: "rw"},
	{Path: "~/Mega/Apps/SL-Logs-and-Settings/SL-Chat/", Access: "rw"},
}

// Locations resolves the configured location list: the viper-resolved config
// file when it declares locations, the default table otherwise. Paths are
// home-expanded; access strings are parsed into capability flags.
func Locations() ([]reconcile.Location, error) {
	entries := defaultEntries

	if file := viper.ConfigFileUsed(); file != "" {
		loaded, err := loadFile(file)
		if err != nil {
			return nil, err
		}
		if len(loaded) > 0 {
			entries = loaded
		}
	}

	return parseEntries(entries)
}

// loadFile reads the locations list from a YAML config file.
func loadFile(path string) ([]LocationEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.NewConfigError("locations", "cannot parse "+path, err)
	}
	return f.Locations, nil
}

// parseEntries converts raw entries into validated locations. A missing path
// or access mode is a configuration error and aborts before any I/O.
func parseEntries(entries []LocationEntry) ([]reconcile.Location, error) {
	locations := make([]reconcile.Location, 0, len(entries))
	for _, e := range entries {
		if e.Path == "" {
			return nil, errors.NewConfigError("locations", "entry missing path", nil)
		}
		if e.Access == "" {
			return nil, errors.NewConfigError("locations", "entry for "+e.Path+" missing access mode", nil)
		}
		access, err := reconcile.ParseAccess(e.Access)
		if err != nil {
			return nil, errors.NewConfigError("locations", "entry for "+e.Path, err)
		}
		locations = append(locations, reconcile.Location{
			Path:   ExpandPath(e.Path),
			Access: access,
		})
	}
	return locations, nil
}
