package dashboard

var categoryOrder = []CategoryInfo{
	{Key: CategoryCore, Label: "Core"},
	{Key: CategoryPersonal, Label: "Personal"},
	{Key: CategoryAdministration, Label: "Administration"},
	{Key: CategorySystem, Label: "System"},
	{Key: CategoryLayout, Label: "Layout"},
}

// Permissions required by the administration widgets.
const (
	PermissionViewTeam      = "team.view"
	PermissionApproveLeave  = "leave.approve"
	PermissionViewEquipment = "equipment.view"
)

var defaultWidgetIDs = []string{
	"shift_stats",
	"schedule",
	"timesheet",
	"payroll",
	"equipment_status",
}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		ID:   "welcome",
		Name: "Welcome",
		NameLocalized: map[string]string{
			"es": "Bienvenida",
		},
		Description: "Greeting banner with the signed in employee",
		Category:    CategoryCore,
		Component:   "WelcomeWidget",
		Persistent:  true,
		Locked:      true,
		HideHeader:  true,
		DefaultSize: Size{W: 12, H: 2},
		MinSize:     Size{W: 6, H: 2},
		MaxSize:     Size{W: 12, H: 2},
		RequiresProps: []string{
			"user",
		},
	},
	{
		ID:   "shift_stats",
		Name: "Shift Stats",
		NameLocalized: map[string]string{
			"es": "Estadísticas de turnos",
		},
		Description:     "Punctuality and hours worked this period",
		Category:        CategoryCore,
		Component:       "ShiftStatsWidget",
		DefaultSize:     Size{W: 4, H: 4},
		MinSize:         Size{W: 3, H: 3},
		MaxSize:         Size{W: 8, H: 8},
		MaxExpandedSize: &Size{W: 12, H: 10},
		CanExpand:       true,
		CanResize:       true,
		CanRefresh:      true,
		RequiresProps:   []string{"shifts", "loading"},
	},
	{
		ID:   "schedule",
		Name: "Schedule",
		NameLocalized: map[string]string{
			"es": "Horario",
		},
		Description:   "Upcoming shifts for the signed in employee",
		Category:      CategoryCore,
		Component:     "ScheduleWidget",
		DefaultSize:   Size{W: 8, H: 4},
		MinSize:       Size{W: 4, H: 3},
		MaxSize:       Size{W: 12, H: 8},
		CanExpand:     true,
		CanResize:     true,
		CanRefresh:    true,
		HeaderAction:  "open_rota",
		RequiresProps: []string{"shifts", "loading"},
	},
	{
		ID:            "rota",
		Name:          "Rota",
		Description:   "Team rota for the current week",
		Category:      CategoryCore,
		Component:     "RotaWidget",
		DefaultSize:   Size{W: 12, H: 6},
		MinSize:       Size{W: 6, H: 4},
		MaxSize:       Size{W: 12, H: 10},
		CanResize:     true,
		CanRefresh:    true,
		RequiresProps: []string{"shifts"},
	},
	{
		ID:   "timesheet",
		Name: "Timesheet",
		NameLocalized: map[string]string{
			"es": "Hoja de horas",
		},
		Description:   "Clock-in history and pending approvals",
		Category:      CategoryPersonal,
		Component:     "TimesheetWidget",
		DefaultSize:   Size{W: 6, H: 4},
		MinSize:       Size{W: 4, H: 3},
		MaxSize:       Size{W: 12, H: 8},
		CanExpand:     true,
		CanResize:     true,
		CanRefresh:    true,
		RequiresProps: []string{"timesheet", "loading"},
	},
	{
		ID:   "payroll",
		Name: "Payroll",
		NameLocalized: map[string]string{
			"es": "Nómina",
		},
		Description:   "Latest payslip summary",
		Category:      CategoryPersonal,
		Component:     "PayrollWidget",
		DefaultSize:   Size{W: 6, H: 4},
		MinSize:       Size{W: 3, H: 3},
		MaxSize:       Size{W: 8, H: 6},
		CanResize:     true,
		RequiresProps: []string{"payslip"},
	},
	{
		ID:          "holidays",
		Name:        "Holidays",
		Description: "Remaining leave allowance",
		Category:    CategoryPersonal,
		Component:   "HolidaysWidget",
		DefaultSize: Size{W: 4, H: 3},
		MinSize:     Size{W: 3, H: 2},
		MaxSize:     Size{W: 6, H: 4},
		CanResize:   true,
	},
	{
		ID:            "team_attendance",
		Name:          "Team Attendance",
		Description:   "Who is on shift, late or absent today",
		Category:      CategoryAdministration,
		Component:     "TeamAttendanceWidget",
		Permission:    PermissionViewTeam,
		DefaultSize:   Size{W: 6, H: 5},
		MinSize:       Size{W: 4, H: 4},
		MaxSize:       Size{W: 12, H: 10},
		CanExpand:     true,
		CanResize:     true,
		CanRefresh:    true,
		RequiresProps: []string{"team"},
	},
	{
		ID:          "approvals",
		Name:        "Approvals",
		Description: "Leave and timesheet requests awaiting a decision",
		Category:    CategoryAdministration,
		Component:   "ApprovalsWidget",
		Permission:  PermissionApproveLeave,
		DefaultSize: Size{W: 6, H: 4},
		MinSize:     Size{W: 4, H: 3},
		MaxSize:     Size{W: 12, H: 8},
		CanResize:   true,
		CanRefresh:  true,
	},
	{
		ID:   "announcements",
		Name: "Announcements",
		NameLocalized: map[string]string{
			"es": "Anuncios",
		},
		Description:    "Company announcements",
		Category:       CategorySystem,
		Component:      "AnnouncementsWidget",
		Persistent:     true,
		StartCollapsed: true,
		DefaultSize:    Size{W: 12, H: 3},
		MinSize:        Size{W: 6, H: 2},
		MaxSize:        Size{W: 12, H: 6},
		CanExpand:      true,
		CanRefresh:     true,
		RequiresProps:  []string{"announcements", "loading"},
	},
	{
		ID:            "equipment_status",
		Name:          "Equipment Status",
		Description:   "Kit issued to the employee and its condition",
		Category:      CategorySystem,
		Component:     "EquipmentStatusWidget",
		Permission:    PermissionBase,
		DefaultSize:   Size{W: 6, H: 4},
		MinSize:       Size{W: 4, H: 3},
		MaxSize:       Size{W: 12, H: 8},
		CanResize:     true,
		CanRefresh:    true,
		RequiresProps: []string{"kit", "loading"},
	},
	{
		ID:             "divider",
		Name:           "Divider",
		Description:    "Horizontal rule between widget rows",
		Category:       CategoryLayout,
		Component:      "DividerWidget",
		IsLayoutWidget: true,
		AllowMultiple:  true,
		HideHeader:     true,
		DefaultSize:    Size{W: 12, H: 1},
		MinSize:        Size{W: 2, H: 1},
		MaxSize:        Size{W: 12, H: 1},
		CanResize:      true,
	},
	{
		ID:             "spacer",
		Name:           "Spacer",
		Description:    "Empty cell used to align widgets",
		Category:       CategoryLayout,
		Component:      "SpacerWidget",
		IsLayoutWidget: true,
		AllowMultiple:  true,
		HideHeader:     true,
		DefaultSize:    Size{W: 2, H: 2},
		MinSize:        Size{W: 1, H: 1},
		MaxSize:        Size{W: 12, H: 6},
		CanResize:      true,
	},
}

// DefaultWidgetDefinitions exposes the built-in portal widgets.
func DefaultWidgetDefinitions() []WidgetDefinition {
	defs := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	copy(defs, defaultWidgetDefinitions)
	return defs
}

// DefaultWidgetIDs returns the ordered widget set that seeds new presets.
func DefaultWidgetIDs() []string {
	return append([]string(nil), defaultWidgetIDs...)
}

// Categories returns every category with its label in picker order.
func Categories() []CategoryInfo {
	return append([]CategoryInfo(nil), categoryOrder...)
}
