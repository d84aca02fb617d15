// Package workspace locates Cordova projects and reports their identity
package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/tidwall/gjson"

	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/config"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/system"
)

const (
	// ConfigXML marks the root of a Cordova project.
	ConfigXML = "config.xml"

	// PackageJSON holds the npm name and the installed platforms and plugins.
	PackageJSON = "package.json"
)

var (
	// ErrNotFound is returned when no project directory exists.
	ErrNotFound = errors.New("project not found")

	// ErrNotCordovaProject is returned when a directory has no config.xml.
	ErrNotCordovaProject = errors.New("not a Cordova project (no config.xml)")
)

// Project is a Cordova project as seen by the CLI wrapper.
type Project struct {
	// Name is the project's identity; invocations are serialized per Name.
	Name string

	// Dir is the project location, or "" when the project has none.
	Dir string

	// PackageName is the npm package name from package.json, if any.
	PackageName string
}

// Key returns the stable identity used to serialize commands.
func (p *Project) Key() string {
	return p.Name
}

// WorkingDir returns the directory commands run in ("" = unspecified).
func (p *Project) WorkingDir() string {
	return p.Dir
}

// Installed lists the platforms and plugins recorded in package.json.
type Installed struct {
	Platforms []string
	Plugins   []string
}

// Resolver finds projects inside a workspace root.
type Resolver struct {
	root string
	fs   system.FileSystem
}

// NewResolver creates a Resolver for root. A nil fs uses the OS file system.
func NewResolver(root string, fs system.FileSystem) *Resolver {
	if fs == nil {
		fs = system.DefaultFS()
	}
	return &Resolver{root: root, fs: fs}
}

// Root returns the workspace root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve returns the project called name inside the workspace root.
// The name cannot escape the root, even through symlinks.
func (r *Resolver) Resolve(name string) (*Project, error) {
	if err := config.ValidateProjectName(name); err != nil {
		return nil, err
	}
	if r.root == "" {
		return nil, fmt.Errorf("no workspace directory configured")
	}

	dir, err := securejoin.SecureJoin(r.root, name)
	if err != nil {
		return nil, fmt.Errorf("invalid project path: %w", err)
	}

	if !r.fs.IsDir(dir) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if !r.fs.Exists(filepath.Join(dir, ConfigXML)) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotCordovaProject)
	}

	return r.load(name, dir), nil
}

// Discover walks up from start to the nearest directory containing config.xml.
func (r *Resolver) Discover(start string) (*Project, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("invalid path %s: %w", start, err)
	}

	for {
		if r.fs.Exists(filepath.Join(dir, ConfigXML)) {
			return r.load(filepath.Base(dir), dir), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("%s: %w", start, ErrNotCordovaProject)
		}
		dir = parent
	}
}

func (r *Resolver) load(name, dir string) *Project {
	p := &Project{Name: name, Dir: dir}
	if data, err := r.fs.ReadFile(filepath.Join(dir, PackageJSON)); err == nil && gjson.ValidBytes(data) {
		p.PackageName = gjson.GetBytes(data, "name").String()
	}
	return p
}

// Installed reads the platforms and plugins saved in the project's package.json.
// A project without package.json has nothing installed.
func (r *Resolver) Installed(p *Project) (*Installed, error) {
	inst := &Installed{}
	if p.Dir == "" {
		return inst, nil
	}

	data, err := r.fs.ReadFile(filepath.Join(p.Dir, PackageJSON))
	if err != nil {
		if r.fs.Exists(filepath.Join(p.Dir, PackageJSON)) {
			return nil, fmt.Errorf("failed to read %s: %w", PackageJSON, err)
		}
		return inst, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid %s in %s", PackageJSON, p.Dir)
	}

	for _, v := range gjson.GetBytes(data, "cordova.platforms").Array() {
		inst.Platforms = append(inst.Platforms, v.String())
	}
	gjson.GetBytes(data, "cordova.plugins").ForEach(func(key, _ gjson.Result) bool {
		inst.Plugins = append(inst.Plugins, key.String())
		return true
	})

	sort.Strings(inst.Platforms)
	sort.Strings(inst.Plugins)
	return inst, nil
}
