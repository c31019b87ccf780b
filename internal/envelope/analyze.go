package envelope

import (
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/valyala/fastjson"
	"golang.org/x/text/unicode/norm"
)

const (
	// IDPrefixLength is the number of characters kept from trace and
	// span IDs.
	IDPrefixLength = 8
	// MaxBodyLength is the number of characters kept from a log body.
	MaxBodyLength = 50

	unknownValue = "Unknown"
	noMessage    = "No message"
	ellipsis     = "..."
)

// layout lists the keys of the three nesting levels of an envelope.
type layout struct {
	resource string
	scope    string
	record   string
}

var layouts = map[Kind]layout{
	KindTraces:  {resource: "resourceSpans", scope: "scopeSpans", record: "spans"},
	KindMetrics: {resource: "resourceMetrics", scope: "scopeMetrics", record: "metrics"},
	KindLogs:    {resource: "resourceLogs", scope: "scopeLogs", record: "logRecords"},
}

// Analyze walks a decoded payload and summarizes the envelope expected
// for kind.
//
// Missing containers at any nesting level are valid and contribute
// nothing. ErrMalformedPayload is returned if the payload is not an
// object, or if a key is present with a value of the wrong type.
// Unrecognized is returned when the top-level key of the envelope is
// absent.
//
// Analyze doesn't keep any state and never modifies payload.
func Analyze(payload *fastjson.Value, kind Kind) (Summary, error) {
	if payload == nil {
		return nil, malformed("", "object", fastjson.TypeNull)
	}
	if payload.Type() != fastjson.TypeObject {
		return nil, malformed("", "object", payload.Type())
	}

	l, ok := layouts[kind]
	if !ok {
		return Unrecognized{Reason: "no envelope layout for " + kind.String()}, nil
	}
	if top := payload.Get(l.resource); top == nil || top.Type() == fastjson.TypeNull {
		return Unrecognized{Reason: "missing " + l.resource}, nil
	}

	switch kind {
	case KindTraces:
		return analyzeTraces(payload, l)
	case KindMetrics:
		return analyzeMetrics(payload, l)
	default:
		return analyzeLogs(payload, l)
	}
}

func analyzeTraces(payload *fastjson.Value, l layout) (Summary, error) {
	s := TraceSummary{Spans: []Span{}}
	err := walk(payload, l, func(span *fastjson.Value, path string) error {
		name, _, err := text(span, "name", path)
		if err != nil {
			return err
		}
		traceID, err := id(span, "traceId", path)
		if err != nil {
			return err
		}
		spanID, err := id(span, "spanId", path)
		if err != nil {
			return err
		}
		s.Spans = append(s.Spans, Span{
			Name:    name,
			TraceID: traceID,
			SpanID:  spanID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.SpanCount = len(s.Spans)
	return s, nil
}

func analyzeMetrics(payload *fastjson.Value, l layout) (Summary, error) {
	s := MetricSummary{Names: []string{}}
	err := walk(payload, l, func(metric *fastjson.Value, path string) error {
		name, _, err := text(metric, "name", path)
		if err != nil {
			return err
		}
		s.Names = append(s.Names, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.MetricCount = len(s.Names)
	return s, nil
}

func analyzeLogs(payload *fastjson.Value, l layout) (Summary, error) {
	s := LogSummary{Records: []LogRecord{}}
	err := walk(payload, l, func(record *fastjson.Value, path string) error {
		severity, _, err := text(record, "severityText", path)
		if err != nil {
			return err
		}

		body := noMessage
		if b := record.Get("body"); b != nil && b.Type() != fastjson.TypeNull {
			if b.Type() != fastjson.TypeObject {
				return malformed(path+".body", "object", b.Type())
			}
			v, ok, err := text(b, "stringValue", path+".body")
			if err != nil {
				return err
			}
			if ok {
				body = truncate(v, MaxBodyLength)
			}
		}

		s.Records = append(s.Records, LogRecord{
			Severity: severity,
			Body:     body,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.RecordCount = len(s.Records)
	return s, nil
}

// walk calls visit on every record of the envelope, in order.
func walk(payload *fastjson.Value, l layout, visit func(record *fastjson.Value, path string) error) error {
	return each(payload, l.resource, "", func(resource *fastjson.Value, path string) error {
		return each(resource, l.scope, path, func(scope *fastjson.Value, path string) error {
			return each(scope, l.record, path, visit)
		})
	})
}

// each calls fn on every object of the array stored at key.
// A missing key or a null value is treated as an empty array.
func each(parent *fastjson.Value, key, path string, fn func(item *fastjson.Value, path string) error) error {
	if path != "" {
		path += "."
	}
	path += key

	v := parent.Get(key)
	if v == nil || v.Type() == fastjson.TypeNull {
		return nil
	}
	if v.Type() != fastjson.TypeArray {
		return malformed(path, "array", v.Type())
	}

	items, err := v.Array()
	if err != nil {
		return malformed(path, "array", v.Type())
	}
	for i, item := range items {
		itemPath := path + "[" + strconv.Itoa(i) + "]"
		if item.Type() != fastjson.TypeObject {
			return malformed(itemPath, "object", item.Type())
		}
		if err := fn(item, itemPath); err != nil {
			return err
		}
	}
	return nil
}

// text returns the string stored at key, or "Unknown" if the key is
// missing. The boolean reports whether the key was present.
func text(obj *fastjson.Value, key, path string) (string, bool, error) {
	v := obj.Get(key)
	if v == nil || v.Type() == fastjson.TypeNull {
		return unknownValue, false, nil
	}
	if v.Type() != fastjson.TypeString {
		return "", false, malformed(path+"."+key, "string", v.Type())
	}
	b, err := v.StringBytes()
	if err != nil {
		return "", false, malformed(path+"."+key, "string", v.Type())
	}
	return string(b), true, nil
}

// id returns the first IDPrefixLength characters of the ID stored at
// key, followed by an ellipsis. "Unknown" is returned if the key is
// missing.
func id(obj *fastjson.Value, key, path string) (string, error) {
	v, ok, err := text(obj, key, path)
	if err != nil || !ok {
		return v, err
	}
	return truncate(v, IDPrefixLength) + ellipsis, nil
}

// truncate returns the first n characters of s, a character being a
// grapheme cluster. The string is composed first so "e" followed by a
// combining accent counts as a single "é".
func truncate(s string, n int) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for i := 0; i < n && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	return b.String()
}
