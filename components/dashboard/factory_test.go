package dashboard

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCreateWidgetUsesDefinitionDefaults(t *testing.T) {
	factory := NewFactory(FactoryOptions{})
	desc, ok := factory.CreateWidget("shift_stats", map[string]any{"shifts": []string{"mon"}, "user": "ignored"}, LayoutOverrides{})
	if !ok {
		t.Fatalf("expected descriptor")
	}
	if desc.W != 4 || desc.H != 4 || desc.MinW != 3 || desc.MaxW != 8 {
		t.Fatalf("unexpected geometry: %+v", desc)
	}
	if desc.MaxExpandedW != 12 || desc.MaxExpandedH != 10 {
		t.Fatalf("expected max expanded size, got %+v", desc)
	}
	if desc.Title != "Shift Stats" || desc.Component.Name != "ShiftStatsWidget" || !desc.ShowHeader {
		t.Fatalf("unexpected display fields: %+v", desc)
	}
	if diff := cmp.Diff(map[string]any{"shifts": []string{"mon"}}, desc.Props); diff != "" {
		t.Fatalf("only required props may be forwarded:\n%s", diff)
	}
}

func TestCreateWidgetOverrides(t *testing.T) {
	factory := NewFactory(FactoryOptions{})
	unlocked := false
	desc, ok := factory.CreateWidget("welcome", nil, LayoutOverrides{
		Layout: &LayoutEntry{I: "welcome", X: 0, Y: 3, W: 8, H: 2},
		Locked: &unlocked,
	})
	if !ok {
		t.Fatalf("expected descriptor")
	}
	if desc.Locked {
		t.Fatalf("override lock must win over the definition default")
	}
	if desc.Y != 3 || desc.W != 8 || desc.H != 2 || desc.MinW != 6 {
		t.Fatalf("unexpected geometry: %+v", desc)
	}
	if desc.ShowHeader || !desc.Persistent {
		t.Fatalf("unexpected flags: %+v", desc)
	}
}

func TestCreateWidgetInstanceIDs(t *testing.T) {
	factory := NewFactory(FactoryOptions{})
	desc, ok := factory.CreateWidget("spacer_2", nil, LayoutOverrides{})
	if !ok {
		t.Fatalf("expected descriptor for instance id")
	}
	if desc.ID != "spacer_2" || desc.Key != "spacer_2" || desc.BaseID != "spacer" || desc.Instance != 2 || !desc.IsLayoutWidget {
		t.Fatalf("unexpected instance descriptor: %+v", desc)
	}
}

func TestCreateWidgetRejectsUnknownAndUnmapped(t *testing.T) {
	factory := NewFactory(FactoryOptions{Components: StaticComponents{"ScheduleWidget": {Name: "ScheduleWidget"}}})
	if _, ok := factory.CreateWidget("nope", nil, LayoutOverrides{}); ok {
		t.Fatalf("expected unknown id to fail")
	}
	if _, ok := factory.CreateWidget("payroll", nil, LayoutOverrides{}); ok {
		t.Fatalf("expected unmapped component to fail")
	}
	descs := factory.CreateWidgets([]string{"payroll", "schedule", "nope"}, nil, nil, nil)
	if len(descs) != 1 || descs[0].ID != "schedule" {
		t.Fatalf("expected failures skipped, got %+v", descs)
	}
}

func TestCreateWidgetsMergesLayoutAndLocks(t *testing.T) {
	factory := NewFactory(FactoryOptions{})
	layouts := Layouts{
		BreakpointLG: {{I: "schedule", X: 4, Y: 2, W: 6, H: 5}},
		BreakpointSM: {{I: "payroll", X: 0, Y: 0, W: 3, H: 3}},
	}
	locked := map[string]LockedDimensions{"schedule": {W: 7, H: 3, Expanded: true}}
	descs := factory.CreateWidgets([]string{"schedule", "payroll"}, nil, layouts, locked)
	if len(descs) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descs))
	}
	schedule, payroll := descs[0], descs[1]
	if !schedule.Locked || schedule.W != 7 || schedule.H != 3 || schedule.X != 4 || schedule.Y != 2 || !schedule.PersistedExpanded {
		t.Fatalf("unexpected locked descriptor: %+v", schedule)
	}
	if payroll.W != 6 || payroll.H != 4 || payroll.Locked {
		t.Fatalf("non-lg layouts must not override geometry: %+v", payroll)
	}
}

func TestFactoryLocalizedTitles(t *testing.T) {
	reg := NewEmptyRegistry()
	_ = reg.RegisterDefinition(WidgetDefinition{ID: "clock_in", Category: CategoryPersonal, Component: "ClockIn", DefaultSize: Size{W: 2, H: 2}})
	_ = reg.RegisterDefinition(WidgetDefinition{ID: "payroll", Name: "Payroll", NameLocalized: map[string]string{"es": "Nómina"}, Category: CategoryPersonal, Component: "Payroll", DefaultSize: Size{W: 2, H: 2}})
	factory := NewFactory(FactoryOptions{Registry: reg, Locale: "es"})
	descs := factory.CreateWidgets([]string{"clock_in", "payroll"}, nil, nil, nil)
	if descs[0].Title != "Clock In" {
		t.Fatalf("expected title-cased id, got %q", descs[0].Title)
	}
	if descs[1].Title != "Nómina" {
		t.Fatalf("expected localized title, got %q", descs[1].Title)
	}
	if got := factory.WithLocale("en").CreateWidgets([]string{"payroll"}, nil, nil, nil)[0].Title; got != "Payroll" {
		t.Fatalf("expected default title, got %q", got)
	}
}

func TestPresetDescriptorsPacksUnplacedWidgets(t *testing.T) {
	factory := NewFactory(FactoryOptions{})
	preset := Preset{
		Layouts: Layouts{BreakpointLG: {{I: "schedule", X: 0, Y: 0, W: 8, H: 4}}},
	}
	descs := factory.PresetDescriptors([]string{"schedule", "payroll", "timesheet"}, nil, preset)
	if descs[0].X != 0 || descs[0].Y != 0 {
		t.Fatalf("saved layout must be kept: %+v", descs[0])
	}
	if descs[1].Y != 4 || descs[1].X != 0 || descs[2].X != 6 || descs[2].Y != 4 {
		t.Fatalf("expected unplaced widgets packed below saved ones: %+v %+v", descs[1], descs[2])
	}
}
