package domain

import (
	"encoding/json"
	"reflect"
	"strings"
)

// jsonFieldNames collects the JSON keys declared by a struct's tags. Used to
// split an inbound payload into known fields and the retained side-map of
// unrecognized keys.
func jsonFieldNames(v any, extra ...string) map[string]struct{} {
	keys := make(map[string]struct{})
	t := reflect.TypeOf(v)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			keys[name] = struct{}{}
		}
	}
	for _, k := range extra {
		keys[k] = struct{}{}
	}
	return keys
}

// splitExtra returns the keys of raw that are not in known. The returned map
// is nil when every key is recognized.
func splitExtra(raw map[string]json.RawMessage, known map[string]struct{}) map[string]json.RawMessage {
	var extra map[string]json.RawMessage
	for k, v := range raw {
		if _, ok := known[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra
}

// aliasNames maps the long JSON names of a wire struct to the aliased names
// of the matching canonical struct, pairing fields by Go field name. Inbound
// payloads may carry either spelling; the parser canonicalizes to aliases.
func aliasNames(canonical, wire any) map[string]string {
	aliases := make(map[string]string)
	ct := reflect.TypeOf(canonical)
	for i := 0; i < ct.NumField(); i++ {
		f := ct.Field(i)
		if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
			aliases[f.Name] = name
		}
	}
	wt := reflect.TypeOf(wire)
	names := make(map[string]string, wt.NumField())
	for i := 0; i < wt.NumField(); i++ {
		f := wt.Field(i)
		long, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if alias, ok := aliases[f.Name]; ok && long != "" && long != alias {
			names[long] = alias
		}
	}
	return names
}

// canonicalizeKeys rewrites long-named keys to their aliases in place. An
// already-present alias wins over its long spelling.
func canonicalizeKeys(raw map[string]json.RawMessage, names map[string]string) {
	for long, alias := range names {
		v, ok := raw[long]
		if !ok {
			continue
		}
		if _, exists := raw[alias]; !exists {
			raw[alias] = v
		}
		delete(raw, long)
	}
}

// mergeExtra re-emits the retained unknown keys alongside an already
// marshalled object. Known fields win on key collision.
func mergeExtra(b []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return b, nil
	}
	merged := make(map[string]json.RawMessage, len(extra))
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
