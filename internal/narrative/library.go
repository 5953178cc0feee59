package narrative

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"heartdash/internal/errors"
)

//go:embed content/*.md
var content embed.FS

// Document is one narrative block, rendered once at load time
type Document struct {
	Name   string        `json:"name"`
	Source string        `json:"source"`
	HTML   template.HTML `json:"-"`
}

// Library holds the narrative documents by name. It is read-only after load
// and safe for concurrent use.
type Library struct {
	docs map[string]Document
}

// Default loads the documents embedded in the binary
func Default() (*Library, error) {
	sub, err := fs.Sub(content, "content")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open embedded narrative")
	}
	return Load(sub)
}

// Load reads every *.md file at the root of fsys. The document name is the
// file name without extension.
func Load(fsys fs.FS) (*Library, error) {
	matches, err := fs.Glob(fsys, "*.md")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list narrative documents")
	}

	lib := &Library{docs: make(map[string]Document, len(matches))}
	for _, file := range matches {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read narrative %s", file)
		}
		name := strings.TrimSuffix(path.Base(file), path.Ext(file))
		lib.docs[name] = Document{
			Name:   name,
			Source: string(raw),
			HTML:   Render(raw),
		}
	}
	return lib, nil
}

// Get returns the named document
func (l *Library) Get(name string) (Document, error) {
	doc, ok := l.docs[name]
	if !ok {
		return Document{}, errors.NotFound(fmt.Sprintf("narrative %q", name))
	}
	return doc, nil
}

// Names lists the available documents in lexical order
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.docs))
	for name := range l.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render converts markdown to HTML. Single newlines are kept as line breaks.
func Render(src []byte) template.HTML {
	// parsers carry state and cannot be reused
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	doc := p.Parse(src)

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return template.HTML(markdown.Render(doc, renderer))
}
