package fragment

import (
	"bytes"
	"encoding/json"

	"github.com/iguv/weekly"
)

// ReplaceElementor applies Replace to the HTML widget of an Elementor
// element tree that carries the anchor.
//
// Widgets are visited depth-first in document order and the first one
// containing the anchor is updated. When none does and force is set, the
// first HTML widget is overwritten with the wrapped block. Otherwise the
// error has code ENOTFOUND. Key order of the re-encoded JSON may differ
// from the input; values and nesting are preserved.
func ReplaceElementor(data []byte, anchor weekly.Anchor, inner string, force bool) ([]byte, weekly.Replacement, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, weekly.Replacement{}, weekly.Errorf(weekly.EINVALID, "invalid elementor data: %v", err)
	}

	widgets := htmlWidgets(tree, nil)
	if len(widgets) == 0 {
		return nil, weekly.Replacement{}, weekly.Errorf(weekly.ENOTFOUND, "no html widget in elementor data")
	}

	var result weekly.Replacement
	var target map[string]any
	for _, w := range widgets {
		doc := widgetHTML(w)
		if !Contains(doc, anchor) {
			continue
		}
		if target == nil {
			target = w
			updated, r := Replace(doc, anchor, inner)
			setWidgetHTML(w, updated)
			result = r
			continue
		}
		result.Occurrences++
	}

	if target == nil {
		if !force {
			return nil, weekly.Replacement{}, weekly.Errorf(weekly.ENOTFOUND, "anchor not found in any of %d html widgets", len(widgets))
		}
		setWidgetHTML(widgets[0], anchor.Wrap(inner))
		result = weekly.Replacement{Mode: weekly.ReplaceForced, Forced: true}
	}

	out, err := encode(tree)
	if err != nil {
		return nil, weekly.Replacement{}, err
	}
	return out, result, nil
}

// htmlWidgets collects widgets with widgetType "html" depth-first.
func htmlWidgets(v any, acc []map[string]any) []map[string]any {
	switch node := v.(type) {
	case []any:
		for _, child := range node {
			acc = htmlWidgets(child, acc)
		}
	case map[string]any:
		if wt, _ := node["widgetType"].(string); wt == "html" {
			acc = append(acc, node)
		}
		if children, ok := node["elements"]; ok {
			acc = htmlWidgets(children, acc)
		}
	}
	return acc
}

func widgetHTML(w map[string]any) string {
	settings, ok := w["settings"].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := settings["html"].(string)
	return s
}

// setWidgetHTML stores doc in the widget settings. Elementor writes empty
// settings as [], which is replaced with an object.
func setWidgetHTML(w map[string]any, doc string) {
	settings, ok := w["settings"].(map[string]any)
	if !ok {
		settings = map[string]any{}
		w["settings"] = settings
	}
	settings["html"] = doc
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
