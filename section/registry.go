// Package section decides, once, the shape of every faculty section so
// consumers never special-case list versus singleton payloads.
package section

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/krisalay/faculty-cache/types"
)

// Default faculty section names.
const (
	Profile        = "profile"
	About          = "about"
	Education      = "education"
	Experience     = "experience"
	Publications   = "publications"
	Conferences    = "conferences"
	Books          = "books"
	Projects       = "projects"
	Patents        = "patents"
	Awards         = "awards"
	Memberships    = "memberships"
	Activities     = "activities"
	Courses        = "courses"
	Students       = "students"
	Consultancy    = "consultancy"
	Fellowships    = "fellowships"
	Talks          = "talks"
	Workshops      = "workshops"
	Collaborations = "collaborations"
	Certifications = "certifications"
)

// Registry maps section names to their kind. Sections it does not know keep
// whatever shape they arrived in.
type Registry struct {
	kinds map[string]types.Kind
}

// New builds a registry from name → kind.
func New(kinds map[string]types.Kind) *Registry {
	r := &Registry{kinds: make(map[string]types.Kind, len(kinds))}
	for name, k := range kinds {
		r.kinds[name] = k
	}
	return r
}

// Default is the faculty profile layout.
func Default() *Registry {
	kinds := map[string]types.Kind{
		Profile: types.KindSingleton,
		About:   types.KindSingleton,
	}
	for _, name := range []string{
		Education, Experience, Publications, Conferences, Books, Projects,
		Patents, Awards, Memberships, Activities, Courses, Students,
		Consultancy, Fellowships, Talks, Workshops, Collaborations,
		Certifications,
	} {
		kinds[name] = types.KindList
	}
	return New(kinds)
}

type fileSection struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

type file struct {
	Sections []fileSection `yaml:"sections"`
}

// Parse reads a YAML registry:
//
//	sections:
//	  - name: profile
//	    kind: singleton
//	  - name: education
//	    kind: list
func Parse(b []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse section registry: %w", err)
	}
	kinds := make(map[string]types.Kind, len(f.Sections))
	for i, s := range f.Sections {
		if s.Name == "" {
			return nil, fmt.Errorf("section %d: name is required", i)
		}
		if _, dup := kinds[s.Name]; dup {
			return nil, fmt.Errorf("section %q declared twice", s.Name)
		}
		k, err := types.ParseKind(s.Kind)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", s.Name, err)
		}
		kinds[s.Name] = k
	}
	return New(kinds), nil
}

// Load reads a YAML registry from path. An empty path yields Default.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read section registry: %w", err)
	}
	return Parse(b)
}

// Kind returns the registered kind of name.
func (r *Registry) Kind(name string) (types.Kind, bool) {
	k, ok := r.kinds[name]
	return k, ok
}

// Names lists registered sections in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.kinds))
	for n := range r.kinds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NormalizeSection coerces sec to name's registered kind. A singleton sent
// as a one-element list is unwrapped; a list sent as a bare object is
// wrapped. Only the first record of a longer list survives as a singleton.
func (r *Registry) NormalizeSection(name string, sec types.Section) types.Section {
	k, ok := r.kinds[name]
	if !ok || k == sec.Kind {
		if sec.Kind == types.KindList && sec.Records == nil {
			return types.List()
		}
		return sec
	}
	if k == types.KindSingleton {
		rec, _ := sec.Single()
		return types.Singleton(rec)
	}
	return types.List(sec.Records...)
}

// Normalize returns a copy of doc with every section coerced.
func (r *Registry) Normalize(doc types.Document) types.Document {
	out := make(types.Document, len(doc))
	for name, sec := range doc {
		out[name] = r.NormalizeSection(name, sec)
	}
	return out
}
