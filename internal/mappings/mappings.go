// Package mappings loads administrator-maintained source-mapping seed files.
package mappings

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/attribution-cli/internal/model"
	"github.com/sells-group/attribution-cli/internal/store"
)

// Entry is one mapping row in a seed file.
type Entry struct {
	IdentifierType  string `yaml:"identifier_type"`
	IdentifierValue string `yaml:"identifier_value"`
	Source          string `yaml:"source"`
	Trade           string `yaml:"trade,omitempty"`
	Active          *bool  `yaml:"active,omitempty"` // defaults to true
}

// File is the top-level seed file shape.
type File struct {
	Mappings []Entry `yaml:"mappings"`
}

// Load reads a mapping seed file from a YAML file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "mappings: read %s", path)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "mappings: parse %s", path)
	}

	for i, e := range f.Mappings {
		if e.IdentifierType == "" {
			return nil, eris.Errorf("mappings: entry %d: identifier_type is required", i)
		}
		if e.IdentifierValue == "" {
			return nil, eris.Errorf("mappings: entry %d: identifier_value is required", i)
		}
		if e.Source == "" {
			return nil, eris.Errorf("mappings: entry %d: source is required", i)
		}
	}

	return &f, nil
}

// Import upserts every entry of a seed file into the store. Returns the
// number of mappings written.
func Import(ctx context.Context, st store.Store, f *File) (int, error) {
	for _, e := range f.Mappings {
		m := model.SourceMapping{
			IdentifierType:  e.IdentifierType,
			IdentifierValue: e.IdentifierValue,
			Source:          model.LeadSource(e.Source),
			IsActive:        e.Active == nil || *e.Active,
		}
		if e.Trade != "" {
			tr := model.Trade(e.Trade)
			m.Trade = &tr
		}
		if err := st.UpsertSourceMapping(ctx, m); err != nil {
			return 0, eris.Wrapf(err, "mappings: import %s=%s", e.IdentifierType, e.IdentifierValue)
		}
	}
	return len(f.Mappings), nil
}
