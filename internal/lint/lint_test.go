package lint

import (
	"context"
	"testing"

	"github.com/mcdatapack/dpe/internal/contexts"
	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/mcfunction"
)

func lootSchema() *jsonlang.ObjectSchema {
	return jsonlang.MustObject(jsonlang.Base{},
		&jsonlang.PropertySchema{Name: "rolls", Value: jsonlang.NewIntegerSchema(jsonlang.Base{})},
		&jsonlang.PropertySchema{Name: "bonus_rolls", Desc: "Use `rolls` with a number provider.", Default: 0, Deprecated: true, Value: jsonlang.NewIntegerSchema(jsonlang.Base{})},
		&jsonlang.PropertySchema{Name: "function", Default: "", Value: &jsonlang.StringSchema{Type: &lang.ArgumentType{Name: contexts.Function}}},
		&jsonlang.PropertySchema{Name: "command", Default: "", Value: &jsonlang.StringSchema{Type: &lang.ArgumentType{Name: contexts.Command}}},
		&jsonlang.PropertySchema{Name: "sound", Default: "", Value: &jsonlang.StringSchema{Type: &lang.ArgumentType{Name: "minecraft:sound_event"}}},
	)
}

func newEnv(t *testing.T, file, src string) *lang.Env {
	t.Helper()
	reg, err := contexts.NewRegistry(contexts.Config{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return lang.NewEnv(reg, lang.WithDocument(file, []byte(src)))
}

func mustAnalyze(t *testing.T, env *lang.Env, l lang.Language, schema lang.Schema) *lang.Document {
	t.Helper()
	doc, err := env.Analyze(l, schema)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return doc
}

func TestDeprecatedRule(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "loot.json", `{"rolls": 1, "bonus_rolls": 2, "command": "replaceitem entity @s"}`)
	doc := mustAnalyze(t, env, jsonlang.Language, lootSchema())

	diags, err := DeprecatedRule{}.Run(context.Background(), env, doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(diags) != 2 {
		t.Fatalf("diagnostic count=%d, want 2: %+v", len(diags), diags)
	}
	if got, want := diags[0].Message, "property `bonus_rolls` is deprecated\n\nUse `rolls` with a number provider."; got != want {
		t.Fatalf("message=%q, want %q", got, want)
	}
	if diags[0].Span.Start.Index != 13 || diags[0].Severity != diag.SeverityWarning {
		t.Fatalf("unexpected diagnostic: %+v", diags[0])
	}
	if got, want := diags[1].Message, "`replaceitem` is deprecated\n\nReplaced by `item replace`."; got != want {
		t.Fatalf("message=%q, want %q", got, want)
	}
	if diags[1].Span.Start.Index != 43 {
		t.Fatalf("embedded literal at %s, want index 43", diags[1].Span)
	}
}

func TestDeprecatedRuleOnFunctionFiles(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "main.mcfunction", "say hi\nreplaceitem entity @s")
	doc := mustAnalyze(t, env, mcfunction.Language, nil)

	diags, err := DeprecatedRule{}.Run(context.Background(), env, doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(diags) != 1 || diags[0].Span.Start.Line != 1 || diags[0].Code != diag.CodeDeprecated {
		t.Fatalf("diagnostics=%+v", diags)
	}
}

func TestUnknownArgumentTypeRule(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "loot.json", `{"rolls": 1, "function": "demo:x", "sound": "entity.cat.ambient"}`)
	doc := mustAnalyze(t, env, jsonlang.Language, lootSchema())

	diags, err := UnknownArgumentTypeRule{}.Run(context.Background(), env, doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("diagnostic count=%d, want 1: %+v", len(diags), diags)
	}
	if diags[0].Code != diag.CodeUnsupportedContext || diags[0].Span.Start.Index != 45 {
		t.Fatalf("unexpected diagnostic: %+v", diags[0])
	}
}

func TestDefaultRunnerIncludesSourceAndAggregatesRules(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "loot.json", `{"rolls": 1, "bonus_rolls": 2, "sound": "x"}`)
	doc := mustAnalyze(t, env, jsonlang.Language, lootSchema())

	diags, err := NewDefaultRunner().Run(context.Background(), env, doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(diags) != 2 {
		t.Fatalf("diagnostic count=%d, want 2", len(diags))
	}
	if !hasCode(diags, diag.CodeDeprecated) {
		t.Fatalf("missing %s in %+v", diag.CodeDeprecated, diags)
	}
	if !hasCode(diags, diag.CodeUnsupportedContext) {
		t.Fatalf("missing %s in %+v", diag.CodeUnsupportedContext, diags)
	}
	for _, d := range diags {
		if d.Source != DiagnosticSource {
			t.Fatalf("diagnostic source=%q, want %q", d.Source, DiagnosticSource)
		}
	}
}

func TestRunnerStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "loot.json", `{"rolls": 1}`)
	doc := mustAnalyze(t, env, jsonlang.Language, lootSchema())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewDefaultRunner().Run(ctx, env, doc); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestAnalyzeCombinesPasses(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "loot.json", `{"rolls": "one", "bonus_rolls": 2, "function": "demo:missing",}`)
	res, err := NewDefaultRunner().Analyze(context.Background(), env, jsonlang.Language, lootSchema())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Document == nil {
		t.Fatal("missing document")
	}
	want := []diag.Code{diag.CodeTypeMismatch, diag.CodeDeprecated, diag.CodeUnresolved, diag.CodeUnexpectedToken}
	if len(res.Diagnostics) != len(want) {
		t.Fatalf("diagnostics=%+v", res.Diagnostics)
	}
	for i, d := range res.Diagnostics {
		if d.Code != want[i] {
			t.Fatalf("diagnostic %d code=%s, want %s", i, d.Code, want[i])
		}
	}
}

type panicContext struct{ lang.BaseContext }

func (panicContext) Validate(*lang.Env, lang.TypedNode, *diag.List) {
	panic("handler exploded")
}

func TestAnalyzeRecoversPanics(t *testing.T) {
	t.Parallel()

	reg := lang.NewRegistry()
	if err := reg.RegisterLanguage(jsonlang.Spec()); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterContext("test:panic", func() lang.Context { return panicContext{} }); err != nil {
		t.Fatal(err)
	}
	schema := &jsonlang.StringSchema{Type: &lang.ArgumentType{Name: "test:panic"}}
	env := lang.NewEnv(reg, lang.WithDocument("a.json", []byte(`"x"`)))

	res, err := NewDefaultRunner().Analyze(context.Background(), env, jsonlang.Language, schema)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Document != nil || len(res.Diagnostics) != 1 {
		t.Fatalf("result=%+v", res)
	}
	d := res.Diagnostics[0]
	if d.Code != diag.CodeInternalWrapped || d.Message != "internal error: handler exploded" {
		t.Fatalf("diagnostic=%+v", d)
	}
}

func hasCode(diags []diag.Diagnostic, code diag.Code) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}
