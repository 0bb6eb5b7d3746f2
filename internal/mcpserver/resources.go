package mcpserver

import (
	"context"
	"regexp"
	"strings"

	"github.com/yosida95/uritemplate/v3"

	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/mcperr"
)

// ResourceManager serves resources/list, resources/templates/list and
// resources/read against the registry, matching a concrete URI against
// every registered URI template.
type ResourceManager struct {
	registry *manifest.Registry
}

func newResourceManager(registry *manifest.Registry) *ResourceManager {
	return &ResourceManager{registry: registry}
}

// List returns the manifests whose URI carries no template placeholder
// (concrete, ready-to-read resources), per the resources/list vs.
// resources/templates/list split.
func (m *ResourceManager) List() ListResourcesResult {
	var out []Resource
	for _, man := range m.registry.List(manifest.Resource) {
		if isTemplate(man.Resource.URI) {
			continue
		}
		out = append(out, Resource{
			URI:         man.Resource.URI,
			Name:        man.Name,
			Title:       man.Title,
			Description: man.Description,
			MimeType:    man.Resource.MimeType,
		})
	}
	return ListResourcesResult{Resources: out}
}

// ListTemplates returns every registered resource manifest whose URI
// carries at least one {placeholder}.
func (m *ResourceManager) ListTemplates() ListResourceTemplatesResult {
	var out []ResourceTemplate
	for _, man := range m.registry.List(manifest.Resource) {
		if !isTemplate(man.Resource.URI) {
			continue
		}
		out = append(out, ResourceTemplate{
			URITemplate: man.Resource.URI,
			Name:        man.Name,
			Title:       man.Title,
			Description: man.Description,
			MimeType:    man.Resource.MimeType,
		})
	}
	return ListResourceTemplatesResult{ResourceTemplates: out}
}

// Read resolves uri against every registered resource template, coerces
// the extracted path parameters, and invokes the matching callback.
func (m *ResourceManager) Read(ctx context.Context, uri string) (*ReadResourceResult, error) {
	man, params, ok := m.resolve(uri)
	if !ok || !man.Enabled {
		return nil, mcperr.New(mcperr.ResourceNotFound, "no resource registered for uri %q", uri)
	}

	args := make(map[string]any, len(params))
	for k, v := range params {
		args[k] = v
	}
	result, err := man.Invoker.Invoke(ctx, args)
	if err != nil {
		return nil, err
	}

	mimeType := man.Resource.MimeType
	if mimeType == "" {
		mimeType = "text/plain"
	}
	contents := ResourceContents{URI: uri, MimeType: mimeType, Text: stringify(result)}
	return &ReadResourceResult{Contents: []ResourceContents{contents}}, nil
}

// resolve finds the registered manifest whose URI template matches uri,
// returning the extracted placeholder values.
func (m *ResourceManager) resolve(uri string) (*manifest.Manifest, map[string]string, bool) {
	if man, ok := m.registry.Get(manifest.Resource, uri); ok {
		return man, nil, true
	}
	for _, man := range m.registry.All(manifest.Resource) {
		if !isTemplate(man.Resource.URI) {
			continue
		}
		if params, ok := matchTemplate(man.Resource.URI, uri); ok {
			return man, params, true
		}
	}
	return nil, nil, false
}

func isTemplate(uri string) bool {
	return strings.Contains(uri, "{")
}

// TemplateVarnames returns the placeholder names of a URI template,
// used at registration time to validate them against a callback's
// required parameters.
func TemplateVarnames(template string) ([]string, error) {
	tmpl, err := uritemplate.New(template)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tmpl.Varnames()))
	names = append(names, tmpl.Varnames()...)
	return names, nil
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// matchTemplate converts template into an anchored regular expression,
// one capture group per {name} placeholder, and matches it against uri.
func matchTemplate(template, uri string) (map[string]string, bool) {
	names := placeholderPattern.FindAllStringSubmatch(template, -1)
	re, err := regexp.Compile(rebuildPattern(template))
	if err != nil {
		return nil, false
	}
	match := re.FindStringSubmatch(uri)
	if match == nil {
		return nil, false
	}
	params := make(map[string]string, len(names))
	for i, group := range names {
		params[group[1]] = match[i+1]
	}
	return params, true
}

// rebuildPattern escapes every literal segment of template and replaces
// each {name} placeholder with a single-path-segment capture group.
func rebuildPattern(template string) string {
	var b strings.Builder
	b.WriteString("^")
	rest := template
	for {
		loc := placeholderPattern.FindStringIndex(rest)
		if loc == nil {
			b.WriteString(regexp.QuoteMeta(rest))
			break
		}
		b.WriteString(regexp.QuoteMeta(rest[:loc[0]]))
		b.WriteString(`([^/]+)`)
		rest = rest[loc[1]:]
	}
	b.WriteString("$")
	return b.String()
}
