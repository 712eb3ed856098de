package session

// chunkSize is the maximum number of pilots carried in one set message;
// a larger pilot set is split across several messages (spec §4.H.4).
// Airport and FIR set lists are not chunked: each is sent in a single
// message whatever its length.
const chunkSize = 100

// pilotsDiff computes set/delete against the stored previous state and
// returns the new state to replace it with.
func pilotsDiff(prev map[string]PilotView, fresh []PilotView) (set []PilotView, deleted []string, next map[string]PilotView) {
	next = make(map[string]PilotView, len(fresh))
	for _, v := range fresh {
		next[v.Callsign] = v
		if old, ok := prev[v.Callsign]; !ok || !old.equal(v) {
			set = append(set, v)
		}
	}
	for cs := range prev {
		if _, ok := next[cs]; !ok {
			deleted = append(deleted, cs)
		}
	}
	return set, deleted, next
}

func airportsDiff(prev map[string]AirportView, fresh []AirportView) (set []AirportView, deleted []string, next map[string]AirportView) {
	next = make(map[string]AirportView, len(fresh))
	for _, v := range fresh {
		next[v.CompoundID] = v
		if old, ok := prev[v.CompoundID]; !ok || !old.equal(v) {
			set = append(set, v)
		}
	}
	for id := range prev {
		if _, ok := next[id]; !ok {
			deleted = append(deleted, id)
		}
	}
	return set, deleted, next
}

func firsDiff(prev map[string]FIRView, fresh []FIRView) (set []FIRView, deleted []string, next map[string]FIRView) {
	next = make(map[string]FIRView, len(fresh))
	for _, v := range fresh {
		next[v.ICAO] = v
		if old, ok := prev[v.ICAO]; !ok || !old.equal(v) {
			set = append(set, v)
		}
	}
	for icao := range prev {
		if _, ok := next[icao]; !ok {
			deleted = append(deleted, icao)
		}
	}
	return set, deleted, next
}

func chunkPilots(set []PilotView) [][]PilotView {
	if len(set) <= chunkSize {
		if len(set) == 0 {
			return nil
		}
		return [][]PilotView{set}
	}
	var chunks [][]PilotView
	for i := 0; i < len(set); i += chunkSize {
		end := i + chunkSize
		if end > len(set) {
			end = len(set)
		}
		chunks = append(chunks, set[i:end])
	}
	return chunks
}
