package media

// Model describes a printer model: the width of one raster line in bytes and
// the optional protocol features the model understands.
type Model struct {
	Name string
	// BytesPerRow is the fixed width of one raster line on the wire.
	BytesPerRow int
	// Compression marks models that accept packbits-compressed raster lines.
	Compression bool
	// TwoColor marks models with a red print head.
	TwoColor bool
	// CutSupport marks models with an automatic cutter.
	CutSupport bool
}

// AllModels is the catalog of supported Brother printers.
var AllModels = []Model{
	{Name: "QL-500", BytesPerRow: 90},
	{Name: "QL-550", BytesPerRow: 90, CutSupport: true},
	{Name: "QL-560", BytesPerRow: 90, CutSupport: true},
	{Name: "QL-570", BytesPerRow: 90, CutSupport: true},
	{Name: "QL-580N", BytesPerRow: 90, CutSupport: true},
	{Name: "QL-650TD", BytesPerRow: 90, CutSupport: true},
	{Name: "QL-700", BytesPerRow: 90, CutSupport: true},
	{Name: "QL-710W", BytesPerRow: 90, CutSupport: true},
	{Name: "QL-720NW", BytesPerRow: 90, CutSupport: true},
	{Name: "QL-800", BytesPerRow: 90, CutSupport: true, TwoColor: true},
	{Name: "QL-810W", BytesPerRow: 90, CutSupport: true, TwoColor: true},
	{Name: "QL-820NWB", BytesPerRow: 90, CutSupport: true, TwoColor: true},
	{Name: "QL-1050", BytesPerRow: 162, CutSupport: true},
	{Name: "QL-1060N", BytesPerRow: 162, CutSupport: true},
	{Name: "PT-P750W", BytesPerRow: 16, Compression: true},
	{Name: "PT-E550W", BytesPerRow: 16, Compression: true},
	{Name: "PT-P900W", BytesPerRow: 70, Compression: true, CutSupport: true},
}

// FindModel looks up a printer model by name.
func FindModel(name string) (Model, bool) {
	for _, m := range AllModels {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// ModelChoices returns the model catalog as UI choices.
func ModelChoices() []Choice {
	choices := make([]Choice, 0, len(AllModels))
	for _, m := range AllModels {
		choices = append(choices, Choice{Value: m.Name, Name: m.Name})
	}
	return choices
}
