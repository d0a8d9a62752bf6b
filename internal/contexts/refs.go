package contexts

import (
	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/resource"
	"github.com/mcdatapack/dpe/internal/schemaload"
	"github.com/mcdatapack/dpe/internal/text"
)

// refContext resolves definition and template references inside schema
// documents. Qualified references name their library; unqualified ones
// resolve in the current document first, then in any indexed library.
type refContext struct {
	lang.BaseContext
	kind string
	noun string
}

func (c refContext) lookup(env *lang.Env, ref string) (resource.Entry, bool) {
	if env.Index == nil {
		return resource.Entry{}, false
	}
	lib, name := schemaload.SplitRef(ref)
	if lib != "" {
		return env.Index.Lookup(c.kind, resource.New(lib, name))
	}
	for _, e := range env.Index.BySource(env.File) {
		if e.Kind == c.kind && e.Location.Path == name {
			return e, true
		}
	}
	for _, e := range env.Index.Entries(c.kind) {
		if e.Location.Path == name {
			return e, true
		}
	}
	return resource.Entry{}, false
}

func (c refContext) Validate(env *lang.Env, n lang.TypedNode, errs *diag.List) {
	if _, ok := c.lookup(env, n.Content()); !ok {
		errs.Errorf(diag.CodeUnresolved, n.ContentSpan(), "unknown %s `%s`", c.noun, n.Content())
	}
}

func (c refContext) Suggestions(env *lang.Env, _ lang.TypedNode, _ text.Position, _ *lang.ReplaceContext) []string {
	if env.Index == nil {
		return nil
	}
	var out []string
	for _, e := range env.Index.BySource(env.File) {
		if e.Kind == c.kind {
			out = append(out, e.Location.Path)
		}
	}
	for _, e := range env.Index.Entries(c.kind) {
		if e.File != env.File {
			out = append(out, e.Location.Namespace+":"+e.Location.Path)
		}
	}
	return out
}

func (c refContext) Documentation(env *lang.Env, n lang.TypedNode, _ text.Position) string {
	e, ok := c.lookup(env, n.Content())
	if !ok {
		return ""
	}
	doc := c.noun + " `" + e.Location.Namespace + ":" + e.Location.Path + "`"
	if e.Description != "" {
		doc += "\n\n" + e.Description
	}
	return doc
}

func (c refContext) ClickableRanges(env *lang.Env, n lang.TypedNode) []text.Span {
	if _, ok := c.lookup(env, n.Content()); ok {
		return []text.Span{n.ContentSpan()}
	}
	return nil
}

func (c refContext) OnIndicatorClicked(env *lang.Env, n lang.TypedNode, _ text.Position) (lang.Target, bool) {
	e, ok := c.lookup(env, n.Content())
	if !ok {
		return lang.Target{}, false
	}
	return lang.Target{File: e.File, Span: e.Span}, true
}
