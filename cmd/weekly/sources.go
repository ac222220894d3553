package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/iguv/weekly"
	"gopkg.in/yaml.v3"
)

// SourcesFile is the YAML document listing what the digest is built from.
type SourcesFile struct {
	// Sections overrides the default editorial schema.
	Sections []weekly.SectionSpec `yaml:"sections" validate:"dive"`

	Sources []*weekly.Source `yaml:"sources" validate:"required,min=1,dive"`

	// Events is the listing of upcoming events, if any.
	Events *weekly.Source `yaml:"events"`
}

var placeholderRe = regexp.MustCompile(`\$\{([A-Z][A-Z0-9_]*)\}`)

// LoadSources reads and validates the sources file at path. ${NAME}
// placeholders are replaced through lookup.
func LoadSources(path string, lookup func(string) string) (*SourcesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, weekly.Errorf(weekly.EINVALID, "sources file %q not found", path)
		}
		return nil, err
	}
	return ParseSources(data, lookup)
}

// ParseSources decodes a sources document and applies defaults.
func ParseSources(data []byte, lookup func(string) string) (*SourcesFile, error) {
	if lookup != nil {
		data = placeholderRe.ReplaceAllFunc(data, func(m []byte) []byte {
			return []byte(lookup(string(placeholderRe.FindSubmatch(m)[1])))
		})
	}

	var f SourcesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, weekly.Errorf(weekly.EINVALID, "sources file is empty")
		}
		return nil, weekly.Errorf(weekly.EINVALID, "invalid sources file: %v", err)
	}

	if len(f.Sections) == 0 {
		f.Sections = weekly.DefaultSections()
	}
	for _, src := range f.Sources {
		if src != nil && src.Kind == "" {
			src.Kind = weekly.SourceHTML
		}
		if src != nil && src.Window == "" {
			src.Window = weekly.WindowRecent
		}
	}
	// An events listing under an unset ${WP_BASE} is left out, not an error.
	if f.Events != nil && strings.HasPrefix(f.Events.URL, "/") {
		f.Events = nil
	}
	if f.Events != nil {
		if f.Events.Kind == "" {
			f.Events.Kind = weekly.SourceHTML
		}
		f.Events.Window = weekly.WindowUpcoming
	}

	if err := validate.Struct(&f); err != nil {
		return nil, configError(err, true)
	}

	all := append([]*weekly.Source{}, f.Sources...)
	if f.Events != nil {
		all = append(all, f.Events)
	}
	for _, src := range all {
		if _, err := src.LinkFilter(); err != nil {
			return nil, weekly.Errorf(weekly.EINVALID, "source %q: %s", src.Name, weekly.ErrorMessage(err))
		}
	}
	return &f, nil
}

// windowed returns copies of the sources with days applied to those
// without a window of their own.
func (f *SourcesFile) windowed(days int) []*weekly.Source {
	out := make([]*weekly.Source, 0, len(f.Sources))
	for _, src := range f.Sources {
		s := *src
		if s.Days == 0 {
			s.Days = days
		}
		out = append(out, &s)
	}
	return out
}
