package snapshot

// Summary is the JSON gamestate digest the headless runner persists at
// the end of a demo horizon.
type Summary struct {
	Date            string            `json:"date"`
	TotalPopulation int64             `json:"total_population"`
	GreatPowers     []string          `json:"great_powers"`
	Prices          map[string]string `json:"prices"`
}
