package creative

import (
	"fmt"
	"strings"
)

// Category groups formats by placement.
type Category string

const (
	CategorySocial  Category = "social"
	CategoryDisplay Category = "display"
	CategoryInstore Category = "instore"
)

// Format describes an output canvas. The engine reads only the dimensions, the
// aspect ratio label and the category; the layout hints are carried for hosts.
type Format struct {
	// ID is the stable format identifier (e.g. "story_1080x1920").
	ID string `json:"formatId"`

	// Width and Height are the canvas size in pixels.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Ratio is the aspect ratio label such as "1:1" or "9:16".
	Ratio string `json:"ratio"`

	Category Category `json:"category,omitempty"`

	// Layout, FontSizes and TileScale are host layout hints.
	Layout    string             `json:"layout,omitempty"`
	FontSizes map[string]float64 `json:"fontSizes,omitempty"`
	TileScale float64            `json:"tileScale,omitempty"`
}

// Kind is the drawing primitive of an element.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindShape Kind = "shape"
)

// IsValid reports whether k is a known element kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindText, KindImage, KindShape:
		return true
	}
	return false
}

// Role is the semantic tag a host may attach to an element.
type Role string

const (
	RoleNone       Role = ""
	RoleHeadline   Role = "headline"
	RoleSubhead    Role = "subhead"
	RoleBody       Role = "body"
	RoleLogo       Role = "logo"
	RolePackshot   Role = "packshot"
	RoleValueTile  Role = "value_tile"
	RoleDrinkaware Role = "drinkaware"
	RoleTag        Role = "tag"
	RoleBackground Role = "background"
	RoleSafeZone   Role = "safe_zone"
	RoleDecoration Role = "decoration"
)

// ValueTileType identifies the promotional tile variant.
type ValueTileType string

const (
	ValueTileNone     ValueTileType = ""
	ValueTileNew      ValueTileType = "new"
	ValueTileWhite    ValueTileType = "white"
	ValueTileClubcard ValueTileType = "clubcard"
)

// IsValid reports whether t is empty or a known tile type.
func (t ValueTileType) IsValid() bool {
	switch t {
	case ValueTileNone, ValueTileNew, ValueTileWhite, ValueTileClubcard:
		return true
	}
	return false
}

// Profile is the creative profile chosen by the designer.
type Profile string

const (
	ProfileStandard         Profile = "STANDARD"
	ProfileLowEverydayPrice Profile = "LOW_EVERYDAY_PRICE"
	ProfileClubcard         Profile = "CLUBCARD"
)

// IsValid reports whether p is empty or a known profile.
func (p Profile) IsValid() bool {
	switch p {
	case "", ProfileStandard, ProfileLowEverydayPrice, ProfileClubcard:
		return true
	}
	return false
}

// Element is a single drawing object on the canvas.
type Element struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	Role       Role   `json:"role,omitempty"`
	CustomName string `json:"customName,omitempty"`

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	ScaleX float64 `json:"scaleX,omitempty"`
	ScaleY float64 `json:"scaleY,omitempty"`
	Angle  float64 `json:"angle,omitempty"`

	Text       string  `json:"text,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
	Fill       string  `json:"fill,omitempty"`

	DataURL string `json:"dataUrl,omitempty"`

	IsBackground   bool          `json:"isBackground,omitempty"`
	IsSafeZone     bool          `json:"isSafeZone,omitempty"`
	IsLogo         bool          `json:"isLogo,omitempty"`
	IsPackshot     bool          `json:"isPackshot,omitempty"`
	IsLeadPackshot bool          `json:"isLeadPackshot,omitempty"`
	IsValueTile    bool          `json:"isValueTile,omitempty"`
	ValueTileType  ValueTileType `json:"valueTileType,omitempty"`
	IsDrinkaware   bool          `json:"isDrinkaware,omitempty"`
	IsTag          bool          `json:"isTag,omitempty"`
}

// IsText reports whether the element carries text.
func (e *Element) IsText() bool {
	return e.Kind == KindText
}

// IsLogoLike reports whether the element is a logo by flag or role.
func (e *Element) IsLogoLike() bool {
	return e.IsLogo || e.Role == RoleLogo
}

// IsSystem reports whether the element is placed by the editor rather than the
// designer: value tiles, Drinkaware lockups, tags, backgrounds and safe-zone guides.
func (e *Element) IsSystem() bool {
	return e.IsValueTile || e.IsDrinkaware || e.IsTag || e.IsBackground || e.IsSafeZone ||
		e.Role == RoleValueTile || e.Role == RoleDrinkaware || e.Role == RoleTag ||
		e.Role == RoleBackground || e.Role == RoleSafeZone
}

// HasMarker reports whether the custom name or role contains marker, ignoring case.
func (e *Element) HasMarker(marker string) bool {
	marker = strings.ToLower(marker)
	return strings.Contains(strings.ToLower(e.CustomName), marker) ||
		strings.Contains(strings.ToLower(string(e.Role)), marker)
}

// EffectiveFontSize is the rendered font size after vertical scaling.
func (e *Element) EffectiveFontSize() float64 {
	return e.FontSize * scaleOrOne(e.ScaleY)
}

// EffectiveHeight is the rendered height after vertical scaling.
func (e *Element) EffectiveHeight() float64 {
	return e.Height * scaleOrOne(e.ScaleY)
}

// String returns a short description for log lines.
func (e *Element) String() string {
	return fmt.Sprintf("%s(%s)", e.Kind, e.ID)
}

func scaleOrOne(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}

// Context carries the designer-supplied facts the rules depend on.
type Context struct {
	FormatID           string  `json:"formatId"`
	BackgroundColor    string  `json:"backgroundColor,omitempty"`
	IsAlcoholProduct   bool    `json:"isAlcoholProduct"`
	CreativeProfile    Profile `json:"creativeProfile,omitempty"`
	PeopleConfirmed    bool    `json:"peopleConfirmed"`
	IsSAYS             bool    `json:"isSAYS,omitempty"`
	BackgroundImageURL string  `json:"backgroundImageUrl,omitempty"`
	CanvasDataURL      string  `json:"canvasDataUrl,omitempty"`
}

// Snapshot is the complete input to one evaluation.
type Snapshot struct {
	Formats  map[string]Format `json:"formats"`
	Elements []Element         `json:"elements"`
	Context  Context           `json:"context"`
}

// Format returns the current format. When the context names no format and the
// snapshot carries exactly one, that format is current.
func (s *Snapshot) Format() (Format, bool) {
	if s == nil {
		return Format{}, false
	}
	if f, ok := s.Formats[s.Context.FormatID]; ok {
		if f.ID == "" {
			f.ID = s.Context.FormatID
		}
		return f, true
	}
	if s.Context.FormatID == "" && len(s.Formats) == 1 {
		for id, f := range s.Formats {
			if f.ID == "" {
				f.ID = id
			}
			return f, true
		}
	}
	return Format{}, false
}

// Element returns the element with the given id.
func (s *Snapshot) Element(id string) (*Element, bool) {
	for i := range s.Elements {
		if s.Elements[i].ID == id {
			return &s.Elements[i], true
		}
	}
	return nil, false
}

// TextElements returns the text elements in document order.
func (s *Snapshot) TextElements() []*Element {
	var out []*Element
	for i := range s.Elements {
		if s.Elements[i].IsText() {
			out = append(out, &s.Elements[i])
		}
	}
	return out
}
