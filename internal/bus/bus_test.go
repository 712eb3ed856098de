package bus

import (
	"testing"

	"vatlive/internal/session"
)

func TestSubjectForNamesPerObjectTypeSubject(t *testing.T) {
	cases := []struct {
		objType session.ObjectType
		want    string
	}{
		{session.ObjectPilot, "vatlive.updates.pilot"},
		{session.ObjectAirport, "vatlive.updates.airport"},
		{session.ObjectFIR, "vatlive.updates.fir"},
	}
	for _, c := range cases {
		if got := subjectFor(c.objType); got != c.want {
			t.Fatalf("subjectFor(%q) = %q, want %q", c.objType, got, c.want)
		}
	}
}
