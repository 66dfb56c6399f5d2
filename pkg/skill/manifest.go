package skill

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// SkillFileName is the file agents look for in a skill directory
const SkillFileName = "SKILL.md"

//go:embed SKILL.md
var skillDocument []byte

// Manifest is the frontmatter of the bundled SKILL.md
type Manifest struct {
	Name        string
	Description string
}

// Document returns the bundled SKILL.md
func Document() []byte {
	return bytes.Clone(skillDocument)
}

// LoadManifest parses the frontmatter of the bundled SKILL.md
func LoadManifest() (Manifest, error) {
	return parseManifest(skillDocument)
}

func parseManifest(content []byte) (Manifest, error) {
	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return Manifest{}, errors.Wrap(err, "failed to parse markdown")
	}

	data := meta.Get(pctx)
	if data == nil {
		return Manifest{}, errors.New("missing frontmatter")
	}
	name, _ := data["name"].(string)
	description, _ := data["description"].(string)
	if name == "" {
		return Manifest{}, errors.New("skill name is required in frontmatter")
	}
	if description == "" {
		return Manifest{}, errors.New("skill description is required in frontmatter")
	}
	return Manifest{Name: name, Description: description}, nil
}

// Install writes SKILL.md into <dir>/<skill name>/ and returns the file path.
// An existing file is only replaced when overwrite is set.
func Install(dir string, overwrite bool) (string, error) {
	m, err := LoadManifest()
	if err != nil {
		return "", err
	}

	target := filepath.Join(dir, m.Name)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create %s", target)
	}

	path := filepath.Join(target, SkillFileName)
	if _, err := os.Stat(path); err == nil && !overwrite {
		return "", errors.Errorf("%s already exists (use --force to replace it)", path)
	}
	if err := os.WriteFile(path, skillDocument, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}
