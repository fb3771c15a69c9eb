package media

import "testing"

func TestFindLabel(t *testing.T) {
	label, ok := FindLabel("62x100")
	if !ok {
		t.Fatal("expected 62x100 in the catalog")
	}
	if label.PrintableWidth() != 696 || label.PrintableHeight() != 1109 {
		t.Errorf("62x100 printable dots = %dx%d, want 696x1109",
			label.PrintableWidth(), label.PrintableHeight())
	}
	if label.FormFactor != DieCut {
		t.Errorf("62x100 form factor = %v, want DieCut", label.FormFactor)
	}

	if _, ok := FindLabel("999"); ok {
		t.Error("unexpected catalog hit for unknown identifier 999")
	}
}

func TestContinuousLabelsHaveZeroHeight(t *testing.T) {
	for _, l := range AllLabels {
		isContinuous := l.FormFactor == Continuous
		hasHeight := l.PrintableHeight() > 0
		if isContinuous == hasHeight {
			t.Errorf("label %s: continuous=%v but printable height=%d",
				l.Identifier, isContinuous, l.PrintableHeight())
		}
	}
}

func TestRedIdentifierIsOnlyTwoColorStock(t *testing.T) {
	for _, l := range AllLabels {
		if l.TwoColor != (l.Identifier == RedIdentifier) {
			t.Errorf("label %s: TwoColor=%v", l.Identifier, l.TwoColor)
		}
	}
}

func TestFindModel(t *testing.T) {
	model, ok := FindModel("QL-820NWB")
	if !ok {
		t.Fatal("expected QL-820NWB in the catalog")
	}
	if model.BytesPerRow != 90 {
		t.Errorf("QL-820NWB bytes per row = %d, want 90", model.BytesPerRow)
	}
	if !model.TwoColor {
		t.Error("QL-820NWB should support two-color printing")
	}

	if _, ok := FindModel("QL-9999"); ok {
		t.Error("unexpected catalog hit for unknown model QL-9999")
	}
}

func TestChoicesCoverCatalogs(t *testing.T) {
	if got := len(LabelChoices()); got != len(AllLabels) {
		t.Errorf("LabelChoices returned %d entries, want %d", got, len(AllLabels))
	}
	if got := len(ModelChoices()); got != len(AllModels) {
		t.Errorf("ModelChoices returned %d entries, want %d", got, len(AllModels))
	}
}
