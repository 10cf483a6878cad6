package speaker

import "strings"

// lexicon matches lowercased word tokens either by stem prefix or by exact word.
// Short abbreviations live in words so that e.g. "кт" does not match "кто".
type lexicon struct {
	stems []string
	words map[string]struct{}
}

func newLexicon(stems []string, words ...string) lexicon {
	l := lexicon{stems: stems, words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		l.words[w] = struct{}{}
	}
	return l
}

func (l lexicon) matches(token string) bool {
	if _, ok := l.words[token]; ok {
		return true
	}
	for _, stem := range l.stems {
		if strings.HasPrefix(token, stem) {
			return true
		}
	}
	return false
}

func (l lexicon) count(tokens []string) int {
	n := 0
	for _, t := range tokens {
		if l.matches(t) {
			n++
		}
	}
	return n
}

// Clinician vocabulary: examinations, diagnostics, prescriptions (ru, kk, en).
var medicalLexicon = newLexicon(
	[]string{
		// ru
		"диагноз", "диагност", "анализ", "обследова", "осмотр", "давлени", "назнача", "назначу", "назначим",
		"назначени", "препарат", "лекарств", "рецепт", "терапи", "дозиров", "доз", "таблетк", "миллиграм",
		"анамнез", "симптом", "рентген", "томограф", "кардиограм", "пульс", "гемоглобин", "холестерин",
		"глюкоз", "инъекц", "антибиотик", "направлени", "консультац", "невролог", "кардиолог", "терапевт",
		"хроническ", "воспален", "инфекц", "госпитализ", "реабилитац",
		// kk
		"дәрі", "емдеу", "емдел", "тексер", "талда", "қысым", "рецепт", "дәрігер",
		// en
		"diagnos", "prescri", "medicat", "dosage", "examin", "therap", "symptom", "pressure",
		"cholesterol", "antibiot", "referral", "treatment", "chronic", "inflamm", "infect",
	},
	"мрт", "кт", "узи", "экг", "ээг", "ад", "мг", "mri", "ct", "ecg", "ekg", "mg", "bp",
)

// Patient vocabulary: pain, discomfort and complaint words (ru, kk, en).
var symptomLexicon = newLexicon(
	[]string{
		// ru
		"болит", "болят", "боль", "болел", "болез", "голов", "тошн", "рвот", "кашел", "кашля", "кашль",
		"слабост", "устал", "утомл", "бессонниц", "жжени", "онемени", "озноб", "насморк", "живот",
		"колет", "колит", "ноет", "ноют", "тянет", "знобит", "жар", "отёк", "отек", "зуд", "сып",
		"задыха", "одышк", "сердцебиен", "мутит", "плох", "тяжело",
		// kk
		"ауыр", "жөтел", "құс", "әлсіз", "шаршап", "басым", "ішім", "жүрегім",
		// en
		"pain", "hurt", "ache", "headache", "nause", "dizz", "tired", "cough", "fever", "vomit",
		"sore", "itch", "rash", "swell", "numb",
	},
)
