// Package skill implements two-phase skill loading. At discovery time only
// lightweight manifests (name and description) are read so the model can
// decide which skill it needs. Loading a skill returns its full
// instructions and any tools it carries, which the session then mounts.
package skill

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tenantwise/steering/tool"
)

// ManifestFile is the file each skill directory must contain.
const ManifestFile = "SKILL.md"

// Manifest is the discovery-time view of a skill.
type Manifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Skill is the fully loaded view, including the instruction body that
// follows the manifest frontmatter and any tools registered for the skill.
type Skill struct {
	Manifest
	Instructions string
	Tools        []tool.Tool
}

// Manager discovers skills from a directory tree and serves loads.
type Manager struct {
	mu     sync.RWMutex
	skills map[string]*Skill
}

// NewManager creates an empty manager. Skills are added with LoadDir and
// RegisterTools.
func NewManager() *Manager {
	return &Manager{skills: make(map[string]*Skill)}
}

// LoadDir scans root for skill directories. Every directory containing a
// SKILL.md file becomes a skill named by its frontmatter. A skill whose
// name collides with an already known one is an error.
func (m *Manager) LoadDir(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != ManifestFile {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		sk, err := parseSkill(raw)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.skills[sk.Name]; ok {
			return fmt.Errorf("duplicate skill %q at %s", sk.Name, path)
		}
		m.skills[sk.Name] = sk
		return nil
	})
}

// Register adds a skill built in code rather than read from disk.
func (m *Manager) Register(sk *Skill) error {
	if sk.Name == "" {
		return fmt.Errorf("skill name is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.skills[sk.Name]; ok {
		return fmt.Errorf("duplicate skill %q", sk.Name)
	}
	m.skills[sk.Name] = sk
	return nil
}

// RegisterTools attaches tools to an already discovered skill. Skill
// directories carry only manifests and instructions; executable tools are
// compiled in and bound here.
func (m *Manager) RegisterTools(skillName string, tools ...tool.Tool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sk, ok := m.skills[skillName]
	if !ok {
		return fmt.Errorf("unknown skill %q", skillName)
	}
	sk.Tools = append(sk.Tools, tools...)
	return nil
}

// Manifests returns the discovery view of all skills, sorted by name.
func (m *Manager) Manifests() []Manifest {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Manifest, 0, len(m.skills))
	for _, sk := range m.skills {
		out = append(out, sk.Manifest)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Exists reports whether a skill with the given name is known.
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.skills[name]
	return ok
}

// Load returns the full skill by name.
func (m *Manager) Load(name string) (*Skill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sk, ok := m.skills[name]
	if !ok {
		return nil, fmt.Errorf("unknown skill %q", name)
	}
	return sk, nil
}

var frontmatterDelim = []byte("---")

// parseSkill splits a SKILL.md file into YAML frontmatter and the
// instruction body.
func parseSkill(raw []byte) (*Skill, error) {
	trimmed := bytes.TrimLeft(raw, "\r\n \t")
	if !bytes.HasPrefix(trimmed, frontmatterDelim) {
		return nil, fmt.Errorf("missing frontmatter")
	}
	rest := trimmed[len(frontmatterDelim):]
	end := bytes.Index(rest, frontmatterDelim)
	if end < 0 {
		return nil, fmt.Errorf("unterminated frontmatter")
	}

	var mf Manifest
	if err := yaml.Unmarshal(rest[:end], &mf); err != nil {
		return nil, fmt.Errorf("frontmatter: %w", err)
	}
	if mf.Name == "" {
		return nil, fmt.Errorf("frontmatter: name is required")
	}

	body := strings.TrimSpace(string(rest[end+len(frontmatterDelim):]))
	return &Skill{Manifest: mf, Instructions: body}, nil
}
