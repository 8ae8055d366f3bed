package config

// Challenge-indicating and solution-language keyword sets, English and
// Dutch. The scorer matches them as substrings of the lowercased statement,
// always using the union of both languages.

// DefaultChallengeKeywords returns the bilingual challenge keyword set.
func DefaultChallengeKeywords() []string {
	return []string{
		// English
		"barrier", "barriers", "constraint", "constraints", "bottleneck", "bottlenecks",
		"gap", "gaps", "unmet need", "unmet needs", "risk", "risks", "vulnerability",
		"vulnerabilities", "inequality", "shortage", "lack of", "needs assessment",
		"baseline", "problem statement", "context", "rationale", "challenge", "challenges",
		// Dutch
		"uitdaging", "uitdagingen", "knelpunt", "knelpunten", "belemmering", "belemmeringen",
		"gat", "gaten", "onvervulde behoefte", "onvervulde behoeften", "risico", "risico's",
		"kwetsbaarheid", "ongelijkheid", "tekort", "gebrek aan", "behoefteanalyse",
		"basislijnstudie", "probleemstelling",
	}
}

// DefaultSolutionKeywords returns the bilingual solution-language keyword set.
func DefaultSolutionKeywords() []string {
	return []string{
		// English
		"will implement", "will develop", "solution", "technology", "deploy", "rollout",
		"build a platform", "deliver a tool", "pilot", "prototype", "intervention",
		"implement", "develop", "deployment", "launch", "introduce", "establish",
		// Dutch
		"we gaan", "implementeren", "ontwikkelen", "uitrollen", "zullen", "gaan",
		"platform", "tool", "interventie", "lanceren", "introduceren",
	}
}
