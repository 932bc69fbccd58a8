package reservationstats

// CoachSeed is one row of the static coach roster: a known coach id with
// display attributes and a baseline-minutes offset accumulated before the
// booking backend started tracking. Ids are a mix of opaque numeric
// strings and human-readable slugs, both compared by exact equality.
type CoachSeed struct {
	Id        string  `json:"id"`
	Name      string  `json:"name"`
	Instagram string  `json:"instagram,omitempty"`
	Minutes   float64 `json:"minutes"`
	Hide      bool    `json:"hide,omitempty"`
}

// Roster is configuration data, not logic: it seeds the coach map each
// run and can be swapped out without touching aggregation. Declaration
// order matters, it is the tie-break order for equal totals.
type Roster struct {
	// BaselineMinutes seeds the grand total with coaching minutes that
	// predate the reservation history.
	BaselineMinutes float64     `json:"baseline_minutes"`
	Coaches         []CoachSeed `json:"coaches"`
}

// DefaultRoster is the shipped VäistöCoaching table. The "No Coaching"
// bucket carries a negative offset netting non-training tunnel time out
// of the baseline, and stays hidden from the ranking.
func DefaultRoster() Roster {
	return Roster{
		BaselineMinutes: 240,
		Coaches: []CoachSeed{
			{Id: "leenavaisto", Name: "Leena", Instagram: "leenavaisto", Minutes: 220},
			{Id: "maurivaisto", Name: "Mauri Väistö", Instagram: "maurivaisto", Minutes: 20},
			{Id: "0", Name: "No Coaching", Minutes: -470, Hide: true},
			{Id: "54", Name: "Taneli", Instagram: "jedimaisteri"},
			{Id: "105", Name: "Antti"},
			{Id: "941", Name: "Lassi", Instagram: "lassilainen"},
			{Id: "1197", Name: "Bergius", Instagram: "jerebergius"},
			{Id: "42412", Name: "Ferni", Instagram: "fernandogurdian"},
			{Id: "6558", Name: "Eikka", Instagram: "aeroeizhens"},
			{Id: "42256", Name: "Aaro", Instagram: "aarohilli", Minutes: 220},
			{Id: "48554", Name: "Byman", Instagram: "jerebyman", Minutes: 185},
			{Id: "780", Name: "Eero", Instagram: "supereero"},
			{Id: "schimmell", Name: "Emil Bech", Instagram: "schimmell", Minutes: 15},
			{Id: "iiriserkkila", Name: "Iiris", Instagram: "iiriserkkila", Minutes: 10},
		},
	}
}
