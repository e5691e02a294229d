package news

// Item is one entry of the news or daily list.
type Item struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// DACHDomains are the hosts news results are restricted to.
var DACHDomains = []string{
	"www.heise.de", "www.tagesschau.de", "www.zeit.de", "www.srf.ch", "www.zdf.de", "www.derstandard.de",
	"www.welt.de", "www.spiegel.de", "www.handelsblatt.com", "www.20min.ch", "www.nzz.ch", "the-decoder.de",
}

// StaticNews is served when no live news are available.
var StaticNews = []Item{
	{Title: "Künstliche Intelligenz: aktuelle Nachrichten | tagesschau.de", URL: "https://www.tagesschau.de/thema/k%C3%BCnstliche_intelligenz"},
	{Title: "Künstliche Intelligenz (KI): Aktuelle Nachrichten & Hintergründe", URL: "https://www.zdfheute.de/thema/kuenstliche-intelligenz-ki-100.html"},
	{Title: "Künstliche Intelligenz: News, Business, Forschung & mehr | THE DECODER", URL: "https://the-decoder.de/"},
	{Title: "Künstliche Intelligenz: News, Ratgeber und Tipps | heise online", URL: "https://www.heise.de/thema/Kuenstliche-Intelligenz"},
	{Title: "KI Strategie: News und Hintergründe | SRF", URL: "https://www.srf.ch/wissen/kuenstliche-intelligenz"},
	{Title: "KI in Deutschland: Mehr als 1.100 Beispiele | PLSD", URL: "https://www.plattform-lernende-systeme.de/ki-in-deutschland.html"},
	{Title: "Schlüsseltechnologie KI | BMBF", URL: "https://www.bmbf.de/bmbf/de/forschung/digitalisierung/kuenstliche-intelligenz/kuenstliche-intelligenz_node.html"},
	{Title: "AI News: Aktuelle Nachrichten zu KI", URL: "https://www.welt.de/themen/kuenstliche-intelligenz/"},
}

// StaticDaily is served when no live daily tips are available.
var StaticDaily = []Item{
	{Title: "Mini-Workshop: Schreibe User-Storys wie ein Profi (mit GWT-Kriterien)."},
	{Title: "Neue Bubble: Realitäts-Debugger. Finde die Bugs im Universum."},
	{Title: "Prompt-Tipp: 5-Why auf Incidents anwenden (Root-Cause schnell)."},
}

func clone(items []Item) []Item {
	return append([]Item(nil), items...)
}
