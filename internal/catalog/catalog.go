// Package catalog holds the list of commands that may be run directly,
// without consulting a model first.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	ShellBash       = "bash"
	ShellZsh        = "zsh"
	ShellPowerShell = "powershell"
	ShellCmd        = "cmd"

	commonSection = "common"

	// EnvCommandsFile names an extra YAML catalog merged over the bundled one.
	EnvCommandsFile = "DETERMINAL_COMMANDS_FILE"
)

//go:embed commands.yaml
var bundledYAML []byte

var (
	bundledOnce    sync.Once
	bundledCatalog *Catalog
	bundledErr     error
)

// Catalog maps section (common or a shell type) to category to command names.
type Catalog struct {
	sections map[string]map[string][]string
}

func Parse(data []byte) (*Catalog, error) {
	var doc map[string]map[string][]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not parse command catalog: %w", err)
	}
	c := &Catalog{sections: map[string]map[string][]string{}}
	for section, categories := range doc {
		section = strings.ToLower(strings.TrimSpace(section))
		if section == "" {
			continue
		}
		for category, names := range categories {
			c.add(section, category, names)
		}
	}
	return c, nil
}

// Bundled returns the embedded catalog. It is parsed once per process.
func Bundled() (*Catalog, error) {
	bundledOnce.Do(func() {
		bundledCatalog, bundledErr = Parse(bundledYAML)
	})
	if bundledErr != nil {
		return nil, bundledErr
	}
	return bundledCatalog.clone(), nil
}

// Load returns the bundled catalog with the file at overridePath merged on
// top. An empty path falls back to $DETERMINAL_COMMANDS_FILE.
func Load(overridePath string) (*Catalog, error) {
	c, err := Bundled()
	if err != nil {
		return nil, err
	}
	path := strings.TrimSpace(overridePath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvCommandsFile))
	}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read command catalog %s: %w", path, err)
	}
	extra, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Merge(extra)
	return c, nil
}

func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	for section, categories := range other.sections {
		for category, names := range categories {
			c.add(section, category, names)
		}
	}
}

// Sections lists the section names in sorted order.
func (c *Catalog) Sections() []string {
	out := make([]string, 0, len(c.sections))
	for section := range c.sections {
		out = append(out, section)
	}
	sort.Strings(out)
	return out
}

// Known returns the common commands plus those of shellType.
func (c *Catalog) Known(shellType string) Set {
	shellType = strings.ToLower(strings.TrimSpace(shellType))
	set := Set{
		names: map[string]struct{}{},
		fold:  shellType == ShellPowerShell || shellType == ShellCmd,
	}
	for _, section := range []string{commonSection, shellType} {
		for _, names := range c.sections[section] {
			for _, name := range names {
				set.add(name)
			}
		}
	}
	return set
}

func (c *Catalog) add(section, category string, names []string) {
	categories, ok := c.sections[section]
	if !ok {
		categories = map[string][]string{}
		c.sections[section] = categories
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		categories[category] = append(categories[category], name)
	}
}

func (c *Catalog) clone() *Catalog {
	out := &Catalog{sections: make(map[string]map[string][]string, len(c.sections))}
	for section, categories := range c.sections {
		for category, names := range categories {
			out.add(section, category, names)
		}
	}
	return out
}

// Set is the flattened command list for one shell type.
type Set struct {
	names map[string]struct{}
	fold  bool
}

func (s Set) add(name string) {
	if s.fold {
		name = strings.ToLower(name)
	}
	s.names[name] = struct{}{}
}

func (s Set) Len() int {
	return len(s.names)
}

func (s Set) Contains(name string) bool {
	if s.fold {
		name = strings.ToLower(name)
	}
	_, ok := s.names[name]
	return ok
}

// Matches reports whether the first whitespace-separated token of input is
// a known command.
func (s Set) Matches(input string) bool {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false
	}
	return s.Contains(fields[0])
}

// DetectShellType classifies the shell by name. On Windows with no $SHELL,
// a PSModulePath means PowerShell and anything else means cmd.
func DetectShellType(shell, psModulePath, goos string) string {
	shell = strings.ToLower(strings.TrimSpace(shell))
	if shell == "" && goos == "windows" {
		if strings.TrimSpace(psModulePath) != "" {
			return ShellPowerShell
		}
		return ShellCmd
	}
	switch {
	case strings.Contains(shell, "zsh"):
		return ShellZsh
	case strings.Contains(shell, "powershell"), strings.Contains(shell, "pwsh"):
		return ShellPowerShell
	case strings.Contains(shell, "cmd"):
		return ShellCmd
	default:
		return ShellBash
	}
}
