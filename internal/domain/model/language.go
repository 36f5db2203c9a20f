package model

// Language is one entry of the dubbing target catalogue.
type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Native string `json:"native"`
}

// SupportedLanguages is the fixed set of dubbing targets.
var SupportedLanguages = []Language{
	{Code: "en", Name: "English", Native: "English"},
	{Code: "es", Name: "Spanish", Native: "Español"},
	{Code: "fr", Name: "French", Native: "Français"},
	{Code: "de", Name: "German", Native: "Deutsch"},
	{Code: "hi", Name: "Hindi", Native: "हिन्दी"},
	{Code: "zh", Name: "Chinese", Native: "中文"},
	{Code: "ja", Name: "Japanese", Native: "日本語"},
	{Code: "ko", Name: "Korean", Native: "한국어"},
	{Code: "pt", Name: "Portuguese", Native: "Português"},
	{Code: "ru", Name: "Russian", Native: "Русский"},
	{Code: "ar", Name: "Arabic", Native: "العربية"},
	{Code: "it", Name: "Italian", Native: "Italiano"},
}

// ValidTargetLanguage reports whether code is a supported dubbing target.
func ValidTargetLanguage(code string) bool {
	for _, l := range SupportedLanguages {
		if l.Code == code {
			return true
		}
	}
	return false
}
