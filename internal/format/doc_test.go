package format

import "testing"

func TestRenderSoftLineWrapsByWidth(t *testing.T) {
	t.Parallel()

	doc := Group(Concat(Text("a"), SoftLine(), Text("b")))

	gotWide, err := Render(doc, RenderOptions{LineWidth: 10})
	if err != nil {
		t.Fatalf("Render wide: %v", err)
	}
	if string(gotWide) != "a b" {
		t.Fatalf("wide render = %q, want %q", gotWide, "a b")
	}

	gotNarrow, err := Render(doc, RenderOptions{LineWidth: 1})
	if err != nil {
		t.Fatalf("Render narrow: %v", err)
	}
	if string(gotNarrow) != "a\nb" {
		t.Fatalf("narrow render = %q, want %q", gotNarrow, "a\nb")
	}
}

func TestRenderIndentAndDeterminism(t *testing.T) {
	t.Parallel()

	doc := Group(Concat(
		Text("{"),
		Indent(Concat(
			Line(),
			Text("alpha"),
			Line(),
			Group(Concat(Text("beta"), SoftLine(), Text("gamma"))),
		)),
		Line(),
		Text("}"),
	))

	opts := RenderOptions{LineWidth: 6, Indent: "  ", Newline: "\n"}
	got1, err := Render(doc, opts)
	if err != nil {
		t.Fatalf("Render #1: %v", err)
	}
	got2, err := Render(doc, opts)
	if err != nil {
		t.Fatalf("Render #2: %v", err)
	}
	if string(got1) != string(got2) {
		t.Fatalf("render not deterministic: %q vs %q", got1, got2)
	}

	want := "{\n  alpha\n  beta gamma\n}"
	if string(got1) != want {
		t.Fatalf("render = %q, want %q", got1, want)
	}
}

func TestRenderSoftBreakVanishesWhenFlat(t *testing.T) {
	t.Parallel()

	doc := Group(Concat(
		Text("["),
		Indent(Concat(SoftBreak(), Join(Concat(Text(","), SoftLine()), []Doc{Text("1"), Text("2")}))),
		SoftBreak(),
		Text("]"),
	))

	tests := map[string]struct {
		width int
		want  string
	}{
		"flat":   {width: 6, want: "[1, 2]"},
		"broken": {width: 5, want: "[\n  1,\n  2\n]"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := Render(doc, RenderOptions{LineWidth: tc.width})
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("render = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRenderStartsAtBaseIndentAndColumn(t *testing.T) {
	t.Parallel()

	doc := Group(Concat(Text("{"), Indent(Concat(SoftBreak(), Text("abc"))), SoftBreak(), Text("}")))

	got, err := Render(doc, RenderOptions{LineWidth: 6, BaseIndent: 1, StartColumn: 2})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if want := "{\n    abc\n  }"; string(got) != want {
		t.Fatalf("render = %q, want %q", got, want)
	}

	got, err = Render(doc, RenderOptions{LineWidth: 6, BaseIndent: 1, StartColumn: 1})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if want := "{abc}"; string(got) != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}

func TestRenderRejectsInvalidOptions(t *testing.T) {
	t.Parallel()

	for name, opts := range map[string]RenderOptions{
		"newline":      {Newline: "\r"},
		"width":        {LineWidth: -1},
		"indent":       {Indent: "--"},
		"start column": {StartColumn: -1},
	} {
		if _, err := Render(Text("x"), opts); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
