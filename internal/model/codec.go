package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// Field is one serialized leader attribute.
type Field struct {
	Key   string
	Value json.RawMessage
}

// UnmarshalJSON decodes a leaders API record. The id may be a string or a
// number. Keys without a named field, and named keys holding an object or
// array, are kept in Extra.
func (l *Leader) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}

	*l = Leader{}
	for key, value := range raw {
		if key == "first_paragraph" {
			if err := json.Unmarshal(value, &l.FirstParagraph); err != nil {
				l.setExtra(key, value)
			}
			continue
		}

		target := l.named(key)
		if target == nil {
			l.setExtra(key, value)
			continue
		}
		text, numeric, ok := scalarText(value)
		if !ok {
			l.setExtra(key, value)
			continue
		}
		*target = text
		if key == "id" {
			l.numericID = numeric
		}
	}
	return nil
}

// MarshalJSON writes the fields returned by Fields, in that order.
func (l Leader) MarshalJSON() ([]byte, error) {
	return MarshalFields(l.Fields()), nil
}

// MarshalYAML writes the same fields as MarshalJSON, in the same order.
func (l Leader) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range l.Fields() {
		var v any
		if err := json.Unmarshal(f.Value, &v); err != nil {
			return nil, fmt.Errorf("leader field %s: %w", f.Key, err)
		}
		value := &yaml.Node{}
		if err := value.Encode(v); err != nil {
			return nil, fmt.Errorf("leader field %s: %w", f.Key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
			value)
	}
	return node, nil
}

// Fields returns the serialized attributes in output order: the named fields,
// then Extra sorted by key. Empty optional fields are omitted and
// first_paragraph is always present. An Extra entry whose key matches a named
// field replaces it.
func (l Leader) Fields() []Field {
	named := []struct {
		key, value string
		always     bool
	}{
		{"id", l.ID, true},
		{"first_name", l.FirstName, true},
		{"last_name", l.LastName, true},
		{"birth_date", l.BirthDate, false},
		{"death_date", l.DeathDate, false},
		{"place_of_birth", l.PlaceOfBirth, false},
		{"wikipedia_url", l.WikipediaURL, false},
		{"start_mandate", l.StartMandate, false},
		{"end_mandate", l.EndMandate, false},
	}

	fields := make([]Field, 0, len(named)+1+len(l.Extra))
	for _, n := range named {
		if _, shadowed := l.Extra[n.key]; shadowed || (!n.always && n.value == "") {
			continue
		}
		value := textValue(n.value)
		if n.key == "id" && l.numericID && json.Valid([]byte(l.ID)) {
			value = json.RawMessage(l.ID)
		}
		fields = append(fields, Field{Key: n.key, Value: value})
	}

	if _, shadowed := l.Extra["first_paragraph"]; !shadowed {
		paragraph := json.RawMessage("null")
		if l.FirstParagraph != nil {
			paragraph = textValue(*l.FirstParagraph)
		}
		fields = append(fields, Field{Key: "first_paragraph", Value: paragraph})
	}

	for _, key := range slices.Sorted(maps.Keys(l.Extra)) {
		fields = append(fields, Field{Key: key, Value: l.Extra[key]})
	}
	return fields
}

// ExtraText renders an Extra value as a table cell: strings unquoted, null
// and absent keys empty, anything else as compact JSON.
func (l Leader) ExtraText(key string) string {
	raw, ok := l.Extra[key]
	if !ok {
		return ""
	}
	if text, _, ok := scalarText(raw); ok {
		return text
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// MarshalFields encodes fields as one JSON object, keeping their order.
// HTML characters are not escaped.
func MarshalFields(fields []Field) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(textValue(f.Key))
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
			continue
		}
		buf.Write(f.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func (l *Leader) named(key string) *string {
	switch key {
	case "id":
		return &l.ID
	case "first_name":
		return &l.FirstName
	case "last_name":
		return &l.LastName
	case "birth_date":
		return &l.BirthDate
	case "death_date":
		return &l.DeathDate
	case "place_of_birth":
		return &l.PlaceOfBirth
	case "wikipedia_url":
		return &l.WikipediaURL
	case "start_mandate":
		return &l.StartMandate
	case "end_mandate":
		return &l.EndMandate
	}
	return nil
}

func (l *Leader) setExtra(key string, value json.RawMessage) {
	if l.Extra == nil {
		l.Extra = make(map[string]json.RawMessage)
	}
	l.Extra[key] = value
}

// scalarText reads a JSON string, number or null. ok is false for anything else.
func scalarText(raw json.RawMessage) (text string, numeric, ok bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false, false
	}
	switch t := v.(type) {
	case nil:
		return "", false, true
	case string:
		return t, false, true
	case json.Number:
		return t.String(), true, true
	}
	return "", false, false
}

func textValue(s string) json.RawMessage {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}
