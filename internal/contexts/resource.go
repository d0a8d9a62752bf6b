package contexts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/resource"
	"github.com/mcdatapack/dpe/internal/text"
)

// resourceContext interprets resource locations. The resource kind is
// fixed, or read from the "kind" argument, or derived from the "registry"
// argument of command nodes. Locations outside the minecraft namespace must
// resolve through the index.
type resourceContext struct {
	lang.BaseContext
	kind string
	tags bool
}

func (c resourceContext) kindOf(n lang.TypedNode) string {
	if c.kind != "" {
		return c.kind
	}
	args := n.ArgumentArgs()
	if k, ok := args["kind"].(string); ok {
		return k
	}
	if r, ok := args["registry"].(string); ok {
		if loc, err := resource.Parse(r); err == nil {
			return loc.Path
		}
	}
	return ""
}

func (c resourceContext) allowsTags(n lang.TypedNode) bool {
	if c.tags {
		return true
	}
	allow, _ := n.ArgumentArgs()["tags"].(bool)
	return allow
}

func (c resourceContext) Prepare(_ *lang.Env, n lang.TypedNode, errs *diag.List) {
	loc, err := resource.Parse(n.Content())
	if err != nil {
		errs.Errorf(diag.CodeInvalidArgument, n.ContentSpan(), "invalid resource location `%s`: %v", n.Content(), err)
		return
	}
	if loc.Tag && !c.allowsTags(n) {
		errs.Errorf(diag.CodeInvalidArgument, n.ContentSpan(), "tags are not allowed here")
		return
	}
	n.SetParsedValue(loc)
}

func (c resourceContext) resolve(env *lang.Env, n lang.TypedNode) (resource.Entry, bool) {
	loc, ok := n.ParsedValue().(resource.Location)
	kind := c.kindOf(n)
	if !ok || kind == "" || env.Index == nil {
		return resource.Entry{}, false
	}
	return env.Index.Lookup(kind, loc)
}

func (c resourceContext) Validate(env *lang.Env, n lang.TypedNode, errs *diag.List) {
	loc, ok := n.ParsedValue().(resource.Location)
	kind := c.kindOf(n)
	if !ok || kind == "" || loc.Namespace == resource.DefaultNamespace {
		return
	}
	if _, ok := c.resolve(env, n); !ok {
		what := kind
		if loc.Tag {
			what = kind + " tag"
		}
		errs.Errorf(diag.CodeUnresolved, n.ContentSpan(), "unknown %s `%s`", what, loc.AsQualifiedString())
	}
}

func (c resourceContext) Suggestions(env *lang.Env, n lang.TypedNode, _ text.Position, _ *lang.ReplaceContext) []string {
	kind := c.kindOf(n)
	if kind == "" || env.Index == nil {
		return nil
	}
	var out []string
	for _, e := range env.Index.Entries(kind) {
		out = append(out, e.Location.AsCompactString())
	}
	if c.allowsTags(n) {
		for _, e := range env.Index.Entries("tags/" + kind) {
			out = append(out, "#"+e.Location.AsCompactString())
		}
	}
	return out
}

func (c resourceContext) Documentation(env *lang.Env, n lang.TypedNode, _ text.Position) string {
	loc, ok := n.ParsedValue().(resource.Location)
	if !ok {
		return ""
	}
	kind := c.kindOf(n)
	if kind == "" {
		kind = "resource"
	}
	doc := fmt.Sprintf("%s `%s`", strings.ReplaceAll(kind, "_", " "), loc.AsQualifiedString())
	if e, ok := c.resolve(env, n); ok && e.Description != "" {
		doc += "\n\n" + e.Description
	}
	return doc
}

func (c resourceContext) ClickableRanges(env *lang.Env, n lang.TypedNode) []text.Span {
	if _, ok := c.resolve(env, n); ok {
		return []text.Span{n.ContentSpan()}
	}
	return nil
}

func (c resourceContext) OnIndicatorClicked(env *lang.Env, n lang.TypedNode, _ text.Position) (lang.Target, bool) {
	e, ok := c.resolve(env, n)
	if !ok || e.File == "" {
		return lang.Target{}, false
	}
	return lang.Target{File: e.File, Span: e.Span}, true
}

var selectorVariables = []string{"@a", "@e", "@n", "@p", "@r", "@s"}

// entityContext checks target selector variables. Player names and UUIDs
// are accepted as written.
type entityContext struct{ lang.BaseContext }

func (entityContext) Validate(_ *lang.Env, n lang.TypedNode, errs *diag.List) {
	s := n.Content()
	if !strings.HasPrefix(s, "@") {
		return
	}
	variable, _, _ := strings.Cut(s, "[")
	if slices.Contains(selectorVariables, variable) {
		return
	}
	errs.Errorf(diag.CodeInvalidArgument, n.ContentSpan(), "unknown selector `%s`", variable)
}

func (entityContext) Suggestions(*lang.Env, lang.TypedNode, text.Position, *lang.ReplaceContext) []string {
	return slices.Clone(selectorVariables)
}
