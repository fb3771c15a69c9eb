package media

// FormFactor categorizes the physical shape of label stock. Die-cut variants
// require the printable image to match the printable dots exactly.
type FormFactor int

const (
	Continuous FormFactor = iota
	DieCut
	RoundDieCut
)

// RedIdentifier is the only media that carries a second (red) print plane.
const RedIdentifier = "62red"

// Label describes one label stock: its identifier as reported by the
// printer driver, a human readable name, the printable area in dots and the
// form factor.
type Label struct {
	Identifier string
	Name       string
	// DotsPrintable is the printable area {width, height}. Height is zero
	// for continuous stock.
	DotsPrintable [2]int
	FormFactor    FormFactor
	// TwoColor is true for black/red stock.
	TwoColor bool
}

// PrintableWidth returns the printable width in dots.
func (l Label) PrintableWidth() int { return l.DotsPrintable[0] }

// PrintableHeight returns the printable height in dots (0 for continuous).
func (l Label) PrintableHeight() int { return l.DotsPrintable[1] }

// AllLabels is the catalog of supported Brother label stock. The geometry
// values are the printable dots of the physical media, not logic.
var AllLabels = []Label{
	{Identifier: "12", Name: "12mm endless", DotsPrintable: [2]int{106, 0}, FormFactor: Continuous},
	{Identifier: "29", Name: "29mm endless", DotsPrintable: [2]int{306, 0}, FormFactor: Continuous},
	{Identifier: "38", Name: "38mm endless", DotsPrintable: [2]int{413, 0}, FormFactor: Continuous},
	{Identifier: "50", Name: "50mm endless", DotsPrintable: [2]int{554, 0}, FormFactor: Continuous},
	{Identifier: "54", Name: "54mm endless", DotsPrintable: [2]int{590, 0}, FormFactor: Continuous},
	{Identifier: "62", Name: "62mm endless", DotsPrintable: [2]int{696, 0}, FormFactor: Continuous},
	{Identifier: "62red", Name: "62mm endless (black/red)", DotsPrintable: [2]int{696, 0}, FormFactor: Continuous, TwoColor: true},
	{Identifier: "102", Name: "102mm endless", DotsPrintable: [2]int{1164, 0}, FormFactor: Continuous},
	{Identifier: "17x54", Name: "17mm x 54mm die-cut", DotsPrintable: [2]int{165, 566}, FormFactor: DieCut},
	{Identifier: "17x87", Name: "17mm x 87mm die-cut", DotsPrintable: [2]int{165, 956}, FormFactor: DieCut},
	{Identifier: "23x23", Name: "23mm x 23mm die-cut", DotsPrintable: [2]int{202, 202}, FormFactor: DieCut},
	{Identifier: "29x42", Name: "29mm x 42mm die-cut", DotsPrintable: [2]int{306, 425}, FormFactor: DieCut},
	{Identifier: "29x90", Name: "29mm x 90mm die-cut", DotsPrintable: [2]int{306, 991}, FormFactor: DieCut},
	{Identifier: "39x90", Name: "38mm x 90mm die-cut", DotsPrintable: [2]int{413, 991}, FormFactor: DieCut},
	{Identifier: "39x48", Name: "39mm x 48mm die-cut", DotsPrintable: [2]int{425, 495}, FormFactor: DieCut},
	{Identifier: "52x29", Name: "52mm x 29mm die-cut", DotsPrintable: [2]int{578, 271}, FormFactor: DieCut},
	{Identifier: "62x29", Name: "62mm x 29mm die-cut", DotsPrintable: [2]int{696, 271}, FormFactor: DieCut},
	{Identifier: "62x100", Name: "62mm x 100mm die-cut", DotsPrintable: [2]int{696, 1109}, FormFactor: DieCut},
	{Identifier: "102x51", Name: "102mm x 51mm die-cut", DotsPrintable: [2]int{1164, 526}, FormFactor: DieCut},
	{Identifier: "102x152", Name: "102mm x 152mm die-cut", DotsPrintable: [2]int{1164, 1660}, FormFactor: DieCut},
	{Identifier: "d12", Name: "12mm round die-cut", DotsPrintable: [2]int{94, 94}, FormFactor: RoundDieCut},
	{Identifier: "d24", Name: "24mm round die-cut", DotsPrintable: [2]int{236, 236}, FormFactor: RoundDieCut},
	{Identifier: "d58", Name: "58mm round die-cut", DotsPrintable: [2]int{618, 618}, FormFactor: RoundDieCut},
}

// FindLabel looks up a label stock by identifier.
func FindLabel(identifier string) (Label, bool) {
	for _, l := range AllLabels {
		if l.Identifier == identifier {
			return l, true
		}
	}
	return Label{}, false
}

// Choice is a {value, display name} pair for populating UI choice lists.
type Choice struct {
	Value string `json:"value"`
	Name  string `json:"name"`
}

// LabelChoices returns the media catalog as UI choices.
func LabelChoices() []Choice {
	choices := make([]Choice, 0, len(AllLabels))
	for _, l := range AllLabels {
		choices = append(choices, Choice{Value: l.Identifier, Name: l.Name})
	}
	return choices
}
