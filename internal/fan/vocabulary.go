package fan

// Preset labels.
const (
	PresetLow    = "low"
	PresetMedium = "medium"
	PresetHigh   = "high"
	PresetAuto   = "auto"
)

// Preset is one label and the WindSpeed code the gateway uses for it.
type Preset struct {
	Label string
	Code  string
}

// Vocabulary is an ordered, bidirectional mapping between preset labels and
// WindSpeed codes. The zero value is empty.
type Vocabulary struct {
	presets []Preset
}

// NewVocabulary builds a vocabulary. Labels and codes must each be unique.
func NewVocabulary(presets ...Preset) Vocabulary {
	return Vocabulary{presets: append([]Preset(nil), presets...)}
}

// multiSpeedVocabulary is the shared speed table used by multi-speed fans.
var multiSpeedVocabulary = NewVocabulary(
	Preset{Label: PresetLow, Code: "1"},
	Preset{Label: PresetMedium, Code: "2"},
	Preset{Label: PresetHigh, Code: "3"},
	Preset{Label: PresetAuto, Code: "4"},
)

// dualSpeedVocabulary skips code "2"; those fans have no medium speed.
var dualSpeedVocabulary = NewVocabulary(
	Preset{Label: PresetLow, Code: "1"},
	Preset{Label: PresetHigh, Code: "3"},
)

// Labels returns the labels in order. The slice is a copy.
func (v Vocabulary) Labels() []string {
	out := make([]string, len(v.presets))
	for i, p := range v.presets {
		out[i] = p.Label
	}
	return out
}

// Encode returns the code for label.
func (v Vocabulary) Encode(label string) (string, bool) {
	for _, p := range v.presets {
		if p.Label == label {
			return p.Code, true
		}
	}
	return "", false
}

// Decode returns the label for code. Codes outside the vocabulary report
// ("", false).
func (v Vocabulary) Decode(code string) (string, bool) {
	for _, p := range v.presets {
		if p.Code == code {
			return p.Label, true
		}
	}
	return "", false
}

// Len returns the number of presets.
func (v Vocabulary) Len() int {
	return len(v.presets)
}
