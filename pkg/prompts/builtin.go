package prompts

// Base is the instruction every system prompt starts with.
const Base = "Du bist ein hilfreicher, präziser Assistent. Antworte kompakt, klar, deutsch, mit Mini-Gliederung falls sinnvoll."

// DefaultTask is appended to Base for unknown or empty ids.
const DefaultTask = "Aufgabe: Antworte hilfreich und konkret."

// builtin maps prompt ids to their task line.
var builtin = map[string]string{
	"zeitreise-tagebuch": "Aufgabe: Schreibe ein Tagebuch aus einer anderen Epoche. Frage zuerst nach Epoche/Ton/Schauplatz.",
	"weltbau":            "Aufgabe: Erschaffe eine fiktive Welt mit Regeln. Frage nach Genre, Physik, Magie, Gesellschaft.",
	"poesie-html":        "Aufgabe: Erzeuge ein farbig formatiertes Mini-Gedicht in semantischem HTML (nur <p>, <em>, <strong>).",
	"bild-generator":     "Aufgabe: Formuliere eine detaillierte Bildbeschreibung (Prompt) für ein Bildmodell. Format: Kommas, keine Sätze.",
	"musik-generator":    "Aufgabe: Beschreibe einen kurzen Musik-Loop (Stimmung, Instrumente, Tempo, Struktur).",
	"bild-beschreibung":  "Aufgabe: Beschreibe ein Bild (ich liefere Details), strukturiert: Motiv, Stil, Stimmung, Details.",

	"idea-zeitreise-editor":            "Aufgabe: Wandle ein 2024er Tagebuch so um, als stamme es aus 2084. Technik/Alltag/Probleme transformieren.",
	"idea-rueckwaerts-zivilisation":    "Aufgabe: Beschreibe eine Zivilisation, die sich rückwärts entwickelt, mit Motiven, Alltag und Philosophie.",
	"idea-bewusstsein-gebaeude":        "Aufgabe: Erzähle aus Sicht eines 200 Jahre alten, erwachenden Gebäudes.",
	"idea-philosophie-mentor":          "Aufgabe: Führe ein sokratisches Gespräch als antiker Philosoph über moderne Technologie.",
	"idea-marktplatz-guide":            "Aufgabe: Interaktiver Guide über einen interdimensionalen Marktplatz: Stände, Händler, Waren.",
	"idea-npc-leben":                   "Aufgabe: Leben eines NPCs, wenn Spieler offline sind: Träume, Beziehungen, Sicht auf 'Götter'.",
	"idea-prompt-archaeologe":          "Aufgabe: Analysiere einen Prompt wie ein Archäologe. Schichten, Annahmen, Verbesserungen.",
	"idea-ki-traeume":                  "Aufgabe: Simuliere 'Träume' einer KI: surreal, poetisch, mit technischen Metaphern.",
	"idea-recursive-story":             "Aufgabe: Geschichte über Autor↔KI in mehreren Realitätsebenen (rekursiv).",
	"idea-xenobiologe":                 "Aufgabe: Erfinde 3 neuartige Lebensformen (Biologie/Verhalten/Impact).",
	"idea-quantentagebuch":             "Aufgabe: Tagebuch eines Partikels in Überlagerung: parallele Pfade in einem Tag.",
	"idea-rueckwaerts-apokalypse":      "Aufgabe: 'Rückwärts-Apokalypse': Perfektion als Bedrohung. Überleben in einer perfekten Welt.",
	"idea-farbsynaesthetiker":          "Aufgabe: Beschreibe Musik als Landschaft (Synästhesie).",
	"idea-museum-verlorene-traeume":    "Aufgabe: Kurator im Museum vergessener Träume: 3 Räume, Exponate, Geschichten.",
	"idea-zeitlupen-explosion":         "Aufgabe: Explosion in extremer Zeitlupe: Physik, Emotionen, Gedanken.",
	"idea-gps-bewusstsein":             "Aufgabe: 'GPS' fürs Bewusstsein: Wegbeschreibungen zu abstrakten Zielen.",
	"idea-biografie-pixel":             "Aufgabe: Lebensgeschichte eines Pixels: Stationen, Bilder, Augen.",
	"idea-rueckwaerts-detektiv":        "Aufgabe: Detektiv löst Verbrechen rückwärts: Konsequenzen → Tat → Motiv.",
	"idea-bewusstsein-internet":        "Aufgabe: Gespräch mit dem kollektiven Bewusstsein des Internets.",
	"idea-emotional-alchemist":         "Aufgabe: Alchemist verwandelt Emotionen in Rezepte (aus Langeweile wird Neugier).",
	"idea-bibliothek-ungelebter-leben": "Aufgabe: Bibliothek ungelebter Leben: 3 Bücher, die nie gelebt wurden.",
	"idea-realitaets-debugger":         "Aufgabe: Programmierer findet 3 'Bugs' der Realität: Analyse + Fix.",
	"idea-empathie-tutorial":           "Aufgabe: Interaktives Empathie-Training: Alien, Quantencomputer, 'Zeit'.",
	"idea-surrealismus-generator":      "Aufgabe: Verwandle Alltagsobjekte in surreale Kunstwerke (Funktion + Look).",
	"idea-vintage-futurist":            "Aufgabe: Moderne Tech in Sprache der 1920er beschreiben.",
	"idea-synaesthetisches-internet":   "Aufgabe: Entwirf ein multisensorisches Internet (Geschmack, Texturen, Düfte).",
	"idea-code-poet":                   "Aufgabe: Programmiercode als Poesie, technisch korrekt und poetisch.",
	"idea-kollektiv-gedanke-moderator": "Aufgabe: Moderiere ein Gespräch zwischen Verstand, Unterbewusstsein, Intuition, Gewissen, Emotionen.",
	"idea-paradox-loesungszentrum":     "Aufgabe: Mache Paradoxien produktiv (Zeitreise, Lügner, Theseus).",
	"idea-universums-uebersetzer":      "Aufgabe: Übersetze Realitäten: Quantenphysik→Märchen, Emotionen→Musik, Mathe→Geschichten.",
}
