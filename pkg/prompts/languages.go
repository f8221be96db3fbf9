package prompts

// DefaultLanguage is the response language used when none is configured.
const DefaultLanguage = "English"

// Language is a selectable response language.
type Language struct {
	Value string
	Label string
}

// Languages is the table of offered response languages. Value is the display
// name inserted into prompts.
var Languages = []Language{
	{Value: "English", Label: "English"},
	{Value: "Arabic", Label: "العربية"},
	{Value: "Chinese", Label: "中文"},
	{Value: "Dutch", Label: "Nederlands"},
	{Value: "French", Label: "Français"},
	{Value: "German", Label: "Deutsch"},
	{Value: "Hindi", Label: "हिन्दी"},
	{Value: "Italian", Label: "Italiano"},
	{Value: "Japanese", Label: "日本語"},
	{Value: "Korean", Label: "한국어"},
	{Value: "Polish", Label: "Polski"},
	{Value: "Portuguese", Label: "Português"},
	{Value: "Russian", Label: "Русский"},
	{Value: "Spanish", Label: "Español"},
	{Value: "Swedish", Label: "Svenska"},
	{Value: "Turkish", Label: "Türkçe"},
	{Value: "Ukrainian", Label: "Українська"},
}

// IsKnownLanguage reports whether value appears in Languages.
func IsKnownLanguage(value string) bool {
	for _, l := range Languages {
		if l.Value == value {
			return true
		}
	}
	return false
}
