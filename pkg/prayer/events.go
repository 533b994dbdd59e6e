// Package prayer models the six daily prayer events and the resolution of the
// next upcoming event from a day's schedule.
package prayer

// Event identifies one of the six daily prayer events.
type Event string

// The six canonical events in the order they occur during a calendar day.
const (
	Imsak  Event = "imsak"
	Gunes  Event = "gunes"
	Ogle   Event = "ogle"
	Ikindi Event = "ikindi"
	Aksam  Event = "aksam"
	Yatsi  Event = "yatsi"
)

// CanonicalOrder is the fixed scan order for next-event resolution.
var CanonicalOrder = []Event{Imsak, Gunes, Ogle, Ikindi, Aksam, Yatsi}

// Labels maps canonical events to their display names.
var Labels = map[Event]string{
	Imsak:  "İmsak",
	Gunes:  "Güneş",
	Ogle:   "Öğle",
	Ikindi: "İkindi",
	Aksam:  "Akşam",
	Yatsi:  "Yatsı",
}

// Label returns the display name for the event.
func (e Event) Label() string {
	if l, ok := Labels[e]; ok {
		return l
	}
	return string(e)
}

// aliases maps each canonical event to the upstream field spellings that may
// carry its time, in preference order. Different timing providers name the
// same event differently (Turkish labels, Al Adhan English names), so the
// mapping is declarative rather than inlined in the fetchers.
var aliases = map[Event][]string{
	Imsak:  {"imsak", "Imsak", "İmsak", "fajr", "Fajr"},
	Gunes:  {"gunes", "Gunes", "Güneş", "sunrise", "Sunrise"},
	Ogle:   {"ogle", "Ogle", "Öğle", "dhuhr", "Dhuhr", "zuhr", "Zuhr"},
	Ikindi: {"ikindi", "Ikindi", "İkindi", "asr", "Asr"},
	Aksam:  {"aksam", "Aksam", "Akşam", "maghrib", "Maghrib"},
	Yatsi:  {"yatsi", "Yatsi", "Yatsı", "isha", "Isha"},
}

// Normalize maps an upstream timing field map onto the six canonical events.
// For each event the first alias present in raw wins; events with no matching
// field are left out of the result.
func Normalize(raw map[string]string) map[Event]string {
	out := make(map[Event]string, len(CanonicalOrder))
	for _, ev := range CanonicalOrder {
		for _, alias := range aliases[ev] {
			if v, ok := raw[alias]; ok && v != "" {
				out[ev] = v
				break
			}
		}
	}
	return out
}
