// Package prompts holds the LLM prompt templates used by the gateway. Each
// embedded JSON file defines one operation: a fixed "system" prompt and a
// "user" text/template filled per request.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"text/template"
)

//go:embed *.json
var promptFiles embed.FS

// Prompt files.
const (
	Analysis  = "analysis.json"
	Tailoring = "tailoring.json"
)

// Prompt is one parsed prompt file.
type Prompt struct {
	Name   string
	System string
	user   *template.Template
}

type promptFile struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// load parses every embedded prompt once.
var load = sync.OnceValues(func() (map[string]*Prompt, error) {
	return parseAll(promptFiles)
})

func parseAll(fsys fs.FS) (map[string]*Prompt, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Prompt, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", name, err)
		}
		p, err := parse(name, data)
		if err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}

func parse(name string, data []byte) (*Prompt, error) {
	var f promptFile
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", name, err)
	}
	if strings.TrimSpace(f.System) == "" || strings.TrimSpace(f.User) == "" {
		return nil, fmt.Errorf("prompt file %s needs both system and user prompts", name)
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(f.User)
	if err != nil {
		return nil, fmt.Errorf("invalid user template in %s: %w", name, err)
	}
	return &Prompt{Name: name, System: f.System, user: tmpl}, nil
}

// Lookup returns the prompt defined by filename, e.g. Analysis.
func Lookup(filename string) (*Prompt, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}
	p, ok := all[filename]
	if !ok {
		return nil, fmt.Errorf("prompt %q not found", filename)
	}
	return p, nil
}

// Names lists the embedded prompt files.
func Names() []string {
	all, _ := load()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// User fills the user template. Every field the template references must
// be present in data.
func (p *Prompt) User(data map[string]string) (string, error) {
	var b strings.Builder
	if err := p.user.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", p.Name, err)
	}
	return b.String(), nil
}

// Render returns the system prompt of filename and its user template filled
// from data.
func Render(filename string, data map[string]string) (system, user string, err error) {
	p, err := Lookup(filename)
	if err != nil {
		return "", "", err
	}
	if user, err = p.User(data); err != nil {
		return "", "", err
	}
	return p.System, user, nil
}
