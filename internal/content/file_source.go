package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/portfolio-search/pkg/types"
)

var frontMatterDelim = []byte("---")

// FileSource reads one content kind from a directory of YAML, JSON, or
// Markdown (YAML front matter) files. A file may hold one record or a list.
type FileSource struct {
	name string
	kind types.RecordType
	fsys fs.FS
	dir  string
}

// NewFileSource creates a source reading kind records from dir inside fsys
func NewFileSource(name string, kind types.RecordType, fsys fs.FS, dir string) *FileSource {
	return &FileSource{name: name, kind: kind, fsys: fsys, dir: dir}
}

func (s *FileSource) Name() string { return s.name }

// Load reads every supported file in lexical order. A missing directory
// yields no records; an unreadable or unparsable file fails the load.
func (s *FileSource) Load(ctx context.Context) ([]RawContent, error) {
	entries, err := fs.ReadDir(s.fsys, s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []RawContent
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ext := strings.ToLower(path.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" && ext != ".md" {
			continue
		}

		p := path.Join(s.dir, entry.Name())
		data, err := fs.ReadFile(s.fsys, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}

		var records []RawContent
		if ext == ".md" {
			records, err = s.decodeMarkdown(data, strings.TrimSuffix(entry.Name(), ext))
		} else {
			records, err = decodeKind(s.kind, data)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", p, err)
		}
		out = append(out, records...)
	}
	return out, nil
}

// decodeMarkdown splits YAML front matter from the body. The body fills the
// record's long-form text field and the file name is the fallback slug.
func (s *FileSource) decodeMarkdown(data []byte, slug string) ([]RawContent, error) {
	meta, body := splitFrontMatter(data)
	records, err := decodeKind(s.kind, meta)
	if err != nil {
		return nil, err
	}
	if len(records) != 1 {
		return nil, fmt.Errorf("markdown front matter must describe exactly one record, got %d", len(records))
	}

	text := strings.TrimSpace(string(body))
	switch c := records[0].(type) {
	case *Project:
		c.Slug = firstNonEmpty(c.Slug, slug)
		c.Description = firstNonEmpty(c.Description, text)
	case *Writing:
		c.Slug = firstNonEmpty(c.Slug, slug)
		c.Body = firstNonEmpty(c.Body, text)
	case *Experience:
		c.ID = firstNonEmpty(c.ID, slug)
		c.Summary = firstNonEmpty(c.Summary, text)
	case *Skill:
		c.ID = firstNonEmpty(c.ID, slug)
	case *Profile:
		c.Bio = firstNonEmpty(c.Bio, text)
	}
	return records, nil
}

func splitFrontMatter(data []byte) (meta, body []byte) {
	trimmed := bytes.TrimLeft(data, "\ufeff \t\r\n")
	if !bytes.HasPrefix(trimmed, frontMatterDelim) {
		return nil, data
	}
	rest := trimmed[len(frontMatterDelim):]
	end := bytes.Index(rest, append([]byte("\n"), frontMatterDelim...))
	if end < 0 {
		return nil, data
	}
	meta = rest[:end]
	body = rest[end+1+len(frontMatterDelim):]
	return meta, body
}

// decodeKind decodes data (YAML or JSON) as one record or a list of records
func decodeKind(kind types.RecordType, data []byte) ([]RawContent, error) {
	switch kind {
	case types.RecordProject:
		return decodeAll[Project](data)
	case types.RecordWriting:
		return decodeAll[Writing](data)
	case types.RecordExperience:
		return decodeAll[Experience](data)
	case types.RecordSkill:
		return decodeAll[Skill](data)
	case types.RecordProfile:
		return decodeAll[Profile](data)
	}
	return nil, fmt.Errorf("unsupported record type %q", kind)
}

// rawPtr constrains T so that *T is a RawContent variant
type rawPtr[T any] interface {
	*T
	RawContent
}

func decodeAll[T any, P rawPtr[T]](data []byte) ([]RawContent, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var items []T
		if err := root.Decode(&items); err != nil {
			return nil, err
		}
		out := make([]RawContent, len(items))
		for i := range items {
			out[i] = P(&items[i])
		}
		return out, nil
	}

	item := new(T)
	if err := root.Decode(item); err != nil {
		return nil, err
	}
	return []RawContent{P(item)}, nil
}
