package dashboard

import (
	"strconv"
	"strings"
)

// WidgetID is a parsed widget instance identifier. Multi-instance layout widgets are
// addressed as `<base>_<N>`; every other widget uses its definition id verbatim.
type WidgetID struct {
	BaseID      string
	Instance    int
	HasInstance bool
}

// ParseWidgetID splits a raw id into base and instance. Ids without a numeric suffix
// parse as a bare base id.
func ParseWidgetID(raw string) WidgetID {
	idx := strings.LastIndexByte(raw, '_')
	if idx <= 0 || idx == len(raw)-1 {
		return WidgetID{BaseID: raw}
	}
	suffix := raw[idx+1:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return WidgetID{BaseID: raw}
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return WidgetID{BaseID: raw}
	}
	return WidgetID{BaseID: raw[:idx], Instance: n, HasInstance: true}
}

// InstanceID builds the id of the n-th instance of a multi-instance widget.
func InstanceID(base string, n int) WidgetID {
	return WidgetID{BaseID: base, Instance: n, HasInstance: true}
}

func (id WidgetID) String() string {
	if !id.HasInstance {
		return id.BaseID
	}
	return id.BaseID + "_" + strconv.Itoa(id.Instance)
}
