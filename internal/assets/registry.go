package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the registry file name inside an output directory.
const ManifestFile = "registry.yaml"

// Asset kinds recorded in the registry.
const (
	KindStaticMesh   = "static_mesh"
	KindSkeletalMesh = "skeletal_mesh"
	KindSkeleton     = "skeleton"
)

// Entry is one generated asset.
type Entry struct {
	GUID    uuid.UUID `yaml:"guid"`
	Name    string    `yaml:"name"`
	Kind    string    `yaml:"kind"`
	Path    string    `yaml:"path"`
	Created time.Time `yaml:"created"`
}

// Registry records the assets written to one output directory and hands out
// names that do not collide with existing ones.
type Registry struct {
	Dir     string  `yaml:"-"`
	Entries []Entry `yaml:"assets"`
}

// OpenRegistry loads the manifest in dir. A missing manifest yields an empty
// registry.
func OpenRegistry(dir string) (*Registry, error) {
	r := &Registry{Dir: dir}
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}
	return r, nil
}

// Save writes the manifest, creating the directory if needed.
func (r *Registry) Save() error {
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.Dir, ManifestFile), data, 0644); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	return nil
}

// UniqueName returns name, or name with _1, _2 ... appended, such that no
// registered asset uses it and no file name+ext exists in the directory.
func (r *Registry) UniqueName(name, ext string) string {
	candidate := name
	for i := 1; r.taken(candidate, ext); i++ {
		candidate = name + "_" + strconv.Itoa(i)
	}
	return candidate
}

func (r *Registry) taken(name, ext string) bool {
	for _, e := range r.Entries {
		if e.Name == name {
			return true
		}
	}
	_, err := os.Stat(filepath.Join(r.Dir, name+ext))
	return err == nil
}

// Register records a new asset and returns its entry.
func (r *Registry) Register(kind, name, path string) Entry {
	e := Entry{
		GUID:    uuid.New(),
		Name:    name,
		Kind:    kind,
		Path:    path,
		Created: time.Now().UTC().Truncate(time.Second),
	}
	r.Entries = append(r.Entries, e)
	return e
}

// Remove deletes the entry with the given id.
func (r *Registry) Remove(id uuid.UUID) bool {
	for i, e := range r.Entries {
		if e.GUID == id {
			r.Entries = append(r.Entries[:i], r.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// PathOf returns the on-disk location of an entry.
func (r *Registry) PathOf(e Entry) string {
	if filepath.IsAbs(e.Path) {
		return e.Path
	}
	return filepath.Join(r.Dir, e.Path)
}
