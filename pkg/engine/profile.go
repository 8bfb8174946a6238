package engine

import (
	"fmt"
	"slices"
	"strings"

	"retailmedia-hq/guardrail/pkg/creative"
	"retailmedia-hq/guardrail/pkg/detect/layout"
	"retailmedia-hq/guardrail/pkg/verdict"
)

// Profile finding ids.
const (
	RuleProfileBackground = "PROFILE_BACKGROUND"
	RuleProfileValueTile  = "PROFILE_VALUE_TILE"
	RuleProfileTag        = "PROFILE_TAG"
	RuleProfileTextColor  = "PROFILE_TEXT_COLOR"
)

const profileMethod = "profile"

// ProfileConstraints are the locked settings of a creative profile.
type ProfileConstraints struct {
	Background   string
	ValueTiles   []creative.ValueTileType
	RequiredTags []string
	TextColor    string
}

// Profiles lists the constraints of every profile other than STANDARD.
var Profiles = map[creative.Profile]ProfileConstraints{
	creative.ProfileLowEverydayPrice: {
		Background:   "#FFFFFF",
		ValueTiles:   []creative.ValueTileType{creative.ValueTileWhite},
		RequiredTags: []string{"Low Everyday Price"},
		TextColor:    "#00539F",
	},
	creative.ProfileClubcard: {
		Background: "#00539F",
		ValueTiles: []creative.ValueTileType{creative.ValueTileClubcard},
		TextColor:  "#FFFFFF",
	},
}

// checkProfile enforces the locked settings of the snapshot's profile.
func checkProfile(snap *creative.Snapshot) []verdict.Finding {
	profile := snap.Context.EffectiveProfile()
	pc, ok := Profiles[profile]
	if !ok {
		return nil
	}

	var out []verdict.Finding

	bg := snap.Context.BackgroundColor
	if bg == "" {
		bg = "#FFFFFF"
	}
	if !sameColor(bg, pc.Background) {
		f := profileFinding(RuleProfileBackground, "Profile background", verdict.TypeHardFail, "",
			fmt.Sprintf("The %s profile locks the background to %s.", profile, pc.Background),
			fmt.Sprintf("Set the background back to %s.", pc.Background))
		f.Message = fmt.Sprintf("background %s, want %s", bg, pc.Background)
		out = append(out, f)
	}

	for i := range snap.Elements {
		e := &snap.Elements[i]
		if !e.IsValueTile || e.ValueTileType == creative.ValueTileNone {
			continue
		}
		if slices.Contains(pc.ValueTiles, e.ValueTileType) {
			continue
		}
		f := profileFinding(RuleProfileValueTile, "Profile value tile", verdict.TypeHardFail, e.ID,
			fmt.Sprintf("The %s profile only allows %s value tiles.", profile, joinTiles(pc.ValueTiles)),
			fmt.Sprintf("Replace the %s value tile with a %s one.", e.ValueTileType, joinTiles(pc.ValueTiles)))
		f.Message = fmt.Sprintf("%s tile not allowed", e.ValueTileType)
		out = append(out, f)
	}

	for _, phrase := range pc.RequiredTags {
		if hasTag(snap.Elements, phrase) {
			continue
		}
		f := profileFinding(RuleProfileTag, "Profile tag", verdict.TypeHardFail, "",
			fmt.Sprintf("The %s profile requires the %q tag.", profile, phrase),
			fmt.Sprintf("Add the %q tag to the creative.", phrase))
		f.Message = fmt.Sprintf("missing tag %q", phrase)
		out = append(out, f)
	}

	for i := range snap.Elements {
		e := &snap.Elements[i]
		if !e.IsText() || e.IsSystem() || e.Fill == "" {
			continue
		}
		if sameColor(e.Fill, pc.TextColor) {
			continue
		}
		f := profileFinding(RuleProfileTextColor, "Profile text colour", verdict.TypeWarning, e.ID,
			fmt.Sprintf("The %s profile sets text in %s.", profile, pc.TextColor),
			fmt.Sprintf("Change this text colour to %s.", pc.TextColor))
		f.Message = fmt.Sprintf("text colour %s, want %s", e.Fill, pc.TextColor)
		out = append(out, f)
	}

	return out
}

func profileFinding(id, name string, typ verdict.FindingType, objectID, explanation, plain string) verdict.Finding {
	severity := verdict.SeverityBlockExport
	if typ == verdict.TypeWarning {
		severity = verdict.SeverityWarnUser
	}
	return verdict.Finding{
		RuleID:          id,
		RuleName:        name,
		Category:        "profile",
		Type:            typ,
		Severity:        severity,
		DetectionMethod: profileMethod,
		ObjectID:        objectID,
		Explanation:     explanation,
		PlainEnglish:    plain,
	}
}

// sameColor compares two colors by value, falling back to a case-insensitive
// string compare when either is not hex.
func sameColor(a, b string) bool {
	ca, errA := layout.ParseHex(a)
	cb, errB := layout.ParseHex(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return ca == cb
}

func hasTag(elements []creative.Element, phrase string) bool {
	phrase = strings.ToLower(phrase)
	for i := range elements {
		e := &elements[i]
		if (e.IsTag || e.Role == creative.RoleTag) && strings.Contains(strings.ToLower(e.Text), phrase) {
			return true
		}
	}
	return false
}

func joinTiles(tiles []creative.ValueTileType) string {
	names := make([]string, len(tiles))
	for i, t := range tiles {
		names[i] = string(t)
	}
	return strings.Join(names, "/")
}
