package catalog

var defaultCategories = []Category{
	{
		ID:          "weekly_report",
		Name:        "Wochenbericht",
		Description: "Weekly summary from the town hall.",
		Body:        "Ihr Wochenrückblick aus dem Rathaus! Jeden Freitag erhalten Sie unseren Wochenbericht kompakt zusammengefasst, was die Verwaltung diese Woche im Ort bewegt hat.",
	},
	{
		ID:          "townhall_news",
		Name:        "Rathaus Aktuell",
		Description: "General announcements from the administration.",
		Body:        "Hier erhalten Sie alle allgemeinen Informationen aus der Verwaltung. Wir informieren Sie über Schließtage, geänderte Öffnungszeiten, bevorstehende Gemeinderatssitzungen und mehr.",
	},
	{
		ID:          "emergencies",
		Name:        "Notfälle",
		Description: "Warnings for emergencies and disasters.",
		Body:        "Dieser Kanal ist für wichtige Informationen im Notfall oder bei Katastrophen. Ob Unwetterwarnungen, Hochwasser oder andere akute Gefahren.",
	},
	{
		ID:          "closures_and_disruptions",
		Name:        "Sperrungen & Störungen",
		Description: "Road closures and utility disruptions.",
		Body:        "Hier gibt es aktuelle Meldungen zur öffentlichen Versorgung und zum Verkehr. Sofortige Infos zu Straßensperrungen, wichtigen Baustellen und anderen Beeinträchtigungen.",
	},
	{
		ID:          "events",
		Name:        "Veranstaltungen",
		Description: "Upcoming local events.",
		Body:        "Was ist diese Woche los in Laaber? Jeden Montag liefern wir Ihnen die Veranstaltungen für die kommende Woche!",
	},
}

// Default returns the built-in five-category catalog.
func Default() *Catalog {
	c, err := New(defaultCategories)
	if err != nil {
		panic(err)
	}
	return c
}
