package topics

const (
	// Odds reconciliadas pelos watchers
	OddsChanges = "toto_odds_changes"
)
