package filter

// PilotFields is the narrow view of a pilot the filter language evaluates
// against — exactly the identifiers spec §4.G allows, nothing more.
type PilotFields struct {
	Callsign      string
	Name          string
	Alt           int64
	GS            int64
	Lat           float64
	Lng           float64
	HasFlightPlan bool
	Aircraft      string
	Arrival       string
	Departure     string
}

type fieldKind int

const (
	fieldString fieldKind = iota
	fieldInt
	fieldFloat
)

// AllowedIdents is the fixed set of identifiers the compiler accepts, in
// the exact grouping spec §4.G lists them.
var AllowedIdents = map[string]fieldKind{
	"callsign":  fieldString,
	"name":      fieldString,
	"alt":       fieldInt,
	"gs":        fieldInt,
	"lat":       fieldFloat,
	"lng":       fieldFloat,
	"aircraft":  fieldString,
	"arrival":   fieldString,
	"departure": fieldString,
}

func (f PilotFields) stringField(ident string) (string, bool) {
	switch ident {
	case "callsign":
		return f.Callsign, true
	case "name":
		return f.Name, true
	case "aircraft":
		if !f.HasFlightPlan {
			return "", false
		}
		return f.Aircraft, true
	case "arrival":
		if !f.HasFlightPlan {
			return "", false
		}
		return f.Arrival, true
	case "departure":
		if !f.HasFlightPlan {
			return "", false
		}
		return f.Departure, true
	}
	return "", false
}

func (f PilotFields) intField(ident string) (int64, bool) {
	switch ident {
	case "alt":
		return f.Alt, true
	case "gs":
		return f.GS, true
	}
	return 0, false
}

func (f PilotFields) floatField(ident string) (float64, bool) {
	switch ident {
	case "lat":
		return f.Lat, true
	case "lng":
		return f.Lng, true
	}
	return 0, false
}
