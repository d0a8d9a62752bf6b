package schemaload

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/text"
)

//go:embed meta.schema.json
var metaJSON []byte

const metaURL = "https://mcdatapack.dev/dpe/meta.schema.json"

var metaSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal(metaJSON, &doc); err != nil {
		return nil, fmt.Errorf("parse meta-schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(metaURL, doc); err != nil {
		return nil, fmt.Errorf("add meta-schema: %w", err)
	}
	return compiler.Compile(metaURL)
})

// metaValidate checks a parsed schema document against the embedded
// meta-schema and anchors every failure at the offending node.
func metaValidate(root jsonlang.Node) []diag.Diagnostic {
	schema, err := metaSchema()
	if err != nil {
		return []diag.Diagnostic{diag.Wrap(err, root.Span())}
	}
	err = schema.Validate(jsonlang.ToAny(root))
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []diag.Diagnostic{diag.Wrap(err, root.Span())}
	}

	var ds diag.List
	seen := make(map[string]struct{})
	for _, leaf := range leaves(verr) {
		n := locate(root, leaf.InstanceLocation)
		span := anchor(n)
		if ak, ok := leaf.ErrorKind.(*kind.AdditionalProperties); ok && len(ak.Properties) > 0 {
			if obj, ok := n.(*jsonlang.Object); ok {
				if p := obj.Property(ak.Properties[0]); p != nil {
					span = p.Key.Span()
				}
			}
		}
		msg := describe(leaf)
		key := fmt.Sprintf("%d:%d:%s", span.Start.Index, span.End.Index, msg)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ds.Errorf(diag.CodeInvalidSchema, span, "%s", msg)
	}
	diag.Sort(ds)
	return ds
}

func leaves(e *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(e.Causes) == 0 {
		return []*jsonschema.ValidationError{e}
	}
	var out []*jsonschema.ValidationError
	for _, c := range e.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

// locate follows an instance location through the tree. It stops at the
// deepest node that exists.
func locate(root jsonlang.Node, loc []string) jsonlang.Node {
	n := root
	for _, seg := range loc {
		switch v := n.(type) {
		case *jsonlang.Object:
			var next jsonlang.Node
			for _, p := range v.Properties {
				if p.Key.Value == seg {
					next = p.Value
				}
			}
			if next == nil {
				return n
			}
			n = next
		case *jsonlang.Array:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v.Elements) {
				return n
			}
			n = v.Elements[i]
		default:
			return n
		}
	}
	return n
}

// anchor narrows containers to their opening bracket.
func anchor(n jsonlang.Node) text.Span {
	s := n.Span()
	switch n.(type) {
	case *jsonlang.Object, *jsonlang.Array:
		return text.NewSpan(s.Start, s.Start.Shift(1))
	default:
		return s
	}
}

func describe(e *jsonschema.ValidationError) string {
	at := "/" + strings.Join(e.InstanceLocation, "/")
	var keyword string
	if e.ErrorKind != nil {
		if kp := e.ErrorKind.KeywordPath(); len(kp) > 0 {
			keyword = kp[len(kp)-1]
		}
	}
	switch keyword {
	case "type":
		return fmt.Sprintf("`%s` has the wrong type", at)
	case "enum", "const":
		return fmt.Sprintf("`%s` is not an allowed value", at)
	case "required":
		return fmt.Sprintf("`%s` is missing a required property", at)
	case "additionalProperties":
		return fmt.Sprintf("`%s` has an unsupported property", at)
	case "pattern":
		return fmt.Sprintf("`%s` is not a valid name", at)
	}
	msg := e.Error()
	if i := strings.LastIndex(msg, "': "); i >= 0 {
		msg = msg[i+3:]
	}
	return fmt.Sprintf("`%s`: %s", at, msg)
}
