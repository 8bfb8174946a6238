package creative

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Parse decodes a snapshot from JSON. It does not validate.
func Parse(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &s, nil
}

// Load decodes a snapshot from r.
func Load(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Parse(data)
}

// FromHostObjects projects loosely typed drawing objects, as serialized by a
// canvas editor, into elements. Objects use the editor's vocabulary: "type"
// ("textbox", "i-text", "text", "image", "rect", ...), "left", "top", "text" and
// the boolean flags under their camelCase names. Objects without an id get one
// derived from their position in the list.
func FromHostObjects(objects []map[string]any) []Element {
	out := make([]Element, 0, len(objects))
	for i, o := range objects {
		e := Element{
			ID:             str(o, "id"),
			Kind:           hostKind(str(o, "type")),
			Role:           Role(str(o, "role")),
			CustomName:     str(o, "customName"),
			X:              num(o, "left"),
			Y:              num(o, "top"),
			Width:          num(o, "width"),
			Height:         num(o, "height"),
			ScaleX:         num(o, "scaleX"),
			ScaleY:         num(o, "scaleY"),
			Angle:          num(o, "angle"),
			Text:           str(o, "text"),
			FontSize:       num(o, "fontSize"),
			FontWeight:     fmt.Sprint(valueOr(o, "fontWeight", "")),
			Fill:           str(o, "fill"),
			DataURL:        str(o, "src"),
			IsBackground:   flag(o, "isBackground"),
			IsSafeZone:     flag(o, "isSafeZone"),
			IsLogo:         flag(o, "isLogo"),
			IsPackshot:     flag(o, "isPackshot"),
			IsLeadPackshot: flag(o, "isLeadPackshot"),
			IsValueTile:    flag(o, "isValueTile"),
			ValueTileType:  ValueTileType(str(o, "valueTileType")),
			IsDrinkaware:   flag(o, "isDrinkaware"),
			IsTag:          flag(o, "isTag"),
		}
		if e.ID == "" {
			e.ID = fmt.Sprintf("obj-%d", i)
		}
		if e.ValueTileType != ValueTileNone {
			e.IsValueTile = true
		}
		out = append(out, e)
	}
	return out
}

func hostKind(t string) Kind {
	switch strings.ToLower(t) {
	case "text", "textbox", "i-text":
		return KindText
	case "image":
		return KindImage
	default:
		return KindShape
	}
}

func valueOr(o map[string]any, key string, def any) any {
	if v, ok := o[key]; ok && v != nil {
		return v
	}
	return def
}

func str(o map[string]any, key string) string {
	if s, ok := o[key].(string); ok {
		return s
	}
	return ""
}

func num(o map[string]any, key string) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

func flag(o map[string]any, key string) bool {
	b, _ := o[key].(bool)
	return b
}
