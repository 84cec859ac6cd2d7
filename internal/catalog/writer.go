package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrExists is returned when adding a key the catalog file already defines.
var ErrExists = errors.New("config already exists")

// NewEntry builds an entry whose Default row holds value.
func NewEntry(key string, typ ConfigType, valueType ValueType, value *ConfigValue) *ConfigEntry {
	return &ConfigEntry{
		Key:       key,
		Type:      typ,
		ValueType: valueType,
		Rows:      []Row{{Values: []Value{{Value: value}}}},
	}
}

// AppendEntry adds entry to the catalog file at path, creating the file when
// missing. The document is edited as a node tree so comments and ordering of
// the existing content survive.
func AppendEntry(path string, entry *ConfigEntry) error {
	if entry == nil || entry.Key == "" {
		return errors.New("config has no key")
	}
	// #nosec G304 -- path comes from user configuration
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if len(bytes.TrimSpace(data)) > 0 {
		snap, err := ParseSnapshot(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if _, ok := snap.Entries[entry.Key]; ok {
			return fmt.Errorf("%w: %q", ErrExists, entry.Key)
		}
	}

	doc, err := documentNode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	var item yaml.Node
	if err := item.Encode(entry); err != nil {
		return err
	}
	configs := mappingValue(doc.Content[0], "configs")
	configs.Kind = yaml.SequenceNode
	configs.Tag = "!!seq"
	configs.Style = 0
	configs.Content = append(configs.Content, &item)
	return writeDocument(path, doc)
}

// SetValue replaces the values of key's row for envID with a single
// untargeted value. An empty envID selects the Default row. The row is added
// when the config has none for that environment.
func SetValue(path, key, envID string, value *ConfigValue) error {
	if value == nil {
		return errors.New("no value")
	}
	// #nosec G304 -- path comes from user configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := documentNode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	config := findConfig(doc.Content[0], key)
	if config == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	var values yaml.Node
	if err := values.Encode([]Value{{Value: value}}); err != nil {
		return err
	}
	rows := mappingValue(config, "rows")
	if rows.Kind != yaml.SequenceNode {
		rows.Kind, rows.Tag, rows.Content = yaml.SequenceNode, "!!seq", nil
	}
	row := findRow(rows, envID)
	if row == nil {
		var fresh yaml.Node
		if err := fresh.Encode(Row{EnvironmentID: envID}); err != nil {
			return err
		}
		rows.Content = append(rows.Content, &fresh)
		row = &fresh
	}
	*mappingValue(row, "values") = values
	return writeDocument(path, doc)
}

func findConfig(root *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "configs" || root.Content[i+1].Kind != yaml.SequenceNode {
			continue
		}
		for _, item := range root.Content[i+1].Content {
			if item.Kind == yaml.MappingNode && scalarField(item, "key") == key {
				return item
			}
		}
	}
	return nil
}

func findRow(rows *yaml.Node, envID string) *yaml.Node {
	for _, row := range rows.Content {
		if row.Kind == yaml.MappingNode && scalarField(row, "environmentId") == envID {
			return row
		}
	}
	return nil
}

func scalarField(m *yaml.Node, key string) string {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key && m.Content[i+1].Kind == yaml.ScalarNode {
			return m.Content[i+1].Value
		}
	}
	return ""
}

func writeDocument(path string, doc *yaml.Node) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes())
}

func documentNode(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("catalog root is not a mapping")
	}
	return &doc, nil
}

// mappingValue returns the value node of key, adding an empty one when
// absent.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	v := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	m.Content = append(m.Content, k, v)
	return v
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".prefabls-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
