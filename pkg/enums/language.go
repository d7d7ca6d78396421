package enums

// Language selects which half of a bilingual record is rendered.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// String implements fmt.Stringer.
func (l Language) String() string {
	return string(l)
}

// IsValid reports whether the value is a known Language.
func (l Language) IsValid() bool {
	return l == LanguageEnglish || l == LanguageArabic
}

// ParseLanguage normalizes raw input, defaulting to English.
func ParseLanguage(value string) Language {
	if Language(value) == LanguageArabic {
		return LanguageArabic
	}
	return LanguageEnglish
}
