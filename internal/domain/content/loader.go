package content

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/labmat/internal/domain/explain"
)

//go:embed catalog/*.yaml
var embedded embed.FS

// CatalogPattern selects catalog files under a content root.
const CatalogPattern = "**/*.{yaml,yml,toml}"

// yamlDocument is one YAML catalog file. Explanations decode into a
// MapSlice so authored order survives.
type yamlDocument struct {
	Practicals []yamlPractical `yaml:"practicals"`
	Tutor      []TutorTopic    `yaml:"tutor"`
	QuickRef   []QuickRef      `yaml:"quickref"`
}

type yamlPractical struct {
	ID           int           `yaml:"id"`
	Title        string        `yaml:"title"`
	Objective    string        `yaml:"objective"`
	Theory       string        `yaml:"theory"`
	Code         string        `yaml:"code"`
	Explanations yaml.MapSlice `yaml:"explanations"`
}

// tomlDocument is one TOML catalog file. TOML tables are unordered, so
// explanations are an array of {key, value} tables.
type tomlDocument struct {
	Practicals []tomlPractical `toml:"practicals"`
	Tutor      []TutorTopic    `toml:"tutor"`
	QuickRef   []QuickRef      `toml:"quickref"`
}

type tomlPractical struct {
	ID           int                       `toml:"id"`
	Title        string                    `toml:"title"`
	Objective    string                    `toml:"objective"`
	Theory       string                    `toml:"theory"`
	Code         string                    `toml:"code"`
	Explanations []explain.DictionaryEntry `toml:"explanations"`
}

// catalog accumulates decoded files before validation.
type catalog struct {
	practicals []Practical
	topics     []TutorTopic
	quickref   []QuickRef
}

// Open loads the catalog from dir, or the embedded catalog when dir is empty.
func Open(dir string, log *zap.Logger) (*Store, error) {
	if dir == "" {
		return Embedded(log)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("content dir: %w", err)
	}
	return Load(os.DirFS(dir), log)
}

// Embedded loads the catalog compiled into the binary.
func Embedded(log *zap.Logger) (*Store, error) {
	sub, err := fs.Sub(embedded, "catalog")
	if err != nil {
		return nil, err
	}
	return Load(sub, log)
}

// Load reads every catalog file matching CatalogPattern in fsys, in lexical
// path order, then sanitizes and validates the merged result.
func Load(fsys fs.FS, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	paths, err := doublestar.Glob(fsys, CatalogPattern)
	if err != nil {
		return nil, fmt.Errorf("glob catalog: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files match %s", CatalogPattern)
	}

	var c catalog
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		if err := c.decode(p, data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", p, err)
		}
		log.Debug("catalog file loaded", zap.String("path", p))
	}

	for i := range c.practicals {
		sanitizePractical(&c.practicals[i])
	}
	for i := range c.topics {
		sanitizeTopic(&c.topics[i])
	}
	for i := range c.quickref {
		c.quickref[i].Label = plain(c.quickref[i].Label)
	}

	store, err := NewStore(c.practicals, c.topics, c.quickref)
	if err != nil {
		return nil, err
	}

	log.Info("catalog loaded",
		zap.Int("files", len(paths)),
		zap.Int("practicals", len(c.practicals)),
		zap.Int("topics", len(c.topics)),
		zap.Int("quickref", len(c.quickref)))
	return store, nil
}

func (c *catalog) decode(name string, data []byte) error {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		var doc yamlDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return err
		}
		for _, raw := range doc.Practicals {
			dict, err := dictionaryFromMapSlice(raw.Explanations)
			if err != nil {
				return fmt.Errorf("practical %d: %w", raw.ID, err)
			}
			c.practicals = append(c.practicals, Practical{
				ID:           raw.ID,
				Title:        raw.Title,
				Objective:    raw.Objective,
				Theory:       raw.Theory,
				Code:         raw.Code,
				Explanations: dict,
			})
		}
		c.topics = append(c.topics, doc.Tutor...)
		c.quickref = append(c.quickref, doc.QuickRef...)
	case ".toml":
		var doc tomlDocument
		if err := toml.Unmarshal(data, &doc); err != nil {
			return err
		}
		for _, raw := range doc.Practicals {
			c.practicals = append(c.practicals, Practical{
				ID:           raw.ID,
				Title:        raw.Title,
				Objective:    raw.Objective,
				Theory:       raw.Theory,
				Code:         raw.Code,
				Explanations: explain.Dictionary(raw.Explanations),
			})
		}
		c.topics = append(c.topics, doc.Tutor...)
		c.quickref = append(c.quickref, doc.QuickRef...)
	default:
		return fmt.Errorf("unsupported catalog format %q", path.Ext(name))
	}
	return nil
}

func dictionaryFromMapSlice(ms yaml.MapSlice) (explain.Dictionary, error) {
	dict := make(explain.Dictionary, 0, len(ms))
	for _, item := range ms {
		key, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("explanation key %v is not a string", item.Key)
		}
		value, ok := item.Value.(string)
		if !ok {
			return nil, fmt.Errorf("explanation for %q is not a string", key)
		}
		dict = append(dict, explain.DictionaryEntry{Key: key, Value: value})
	}
	return dict, nil
}
