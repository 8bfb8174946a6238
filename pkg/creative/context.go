package creative

// Context keys understood by Value. Rule applicability predicates are written
// against these names.
const (
	KeyFormatID         = "formatId"
	KeyIsAlcoholProduct = "isAlcoholProduct"
	KeyCreativeProfile  = "creativeProfile"
	KeyPeopleConfirmed  = "peopleConfirmed"
	KeyIsSAYS           = "isSAYS"
	KeyRatio            = "ratio"
	KeyCategory         = "category"
)

// Value resolves a context key for applicability checks. Format-derived keys are
// read from the snapshot's current format.
func (s *Snapshot) Value(key string) (any, bool) {
	c := s.Context
	switch key {
	case KeyFormatID:
		return c.FormatID, true
	case KeyIsAlcoholProduct:
		return c.IsAlcoholProduct, true
	case KeyCreativeProfile:
		return string(c.EffectiveProfile()), true
	case KeyPeopleConfirmed:
		return c.PeopleConfirmed, true
	case KeyIsSAYS:
		return c.IsSAYS, true
	case KeyRatio:
		f, ok := s.Format()
		return f.Ratio, ok
	case KeyCategory:
		f, ok := s.Format()
		return string(f.Category), ok
	}
	return nil, false
}

// EffectiveProfile returns the creative profile, defaulting to STANDARD.
func (c Context) EffectiveProfile() Profile {
	if c.CreativeProfile == "" {
		return ProfileStandard
	}
	return c.CreativeProfile
}
