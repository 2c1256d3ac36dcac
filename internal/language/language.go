package language

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// named lists languages that may be given by English name as well as code.
var named = []xlanguage.Tag{
	xlanguage.English, xlanguage.Spanish, xlanguage.French, xlanguage.German,
	xlanguage.Italian, xlanguage.Portuguese, xlanguage.Japanese, xlanguage.Korean,
	xlanguage.Chinese, xlanguage.Russian, xlanguage.Arabic, xlanguage.Hindi,
	xlanguage.Dutch, xlanguage.Polish, xlanguage.Swedish, xlanguage.Danish,
	xlanguage.Norwegian, xlanguage.Finnish, xlanguage.Turkish, xlanguage.Ukrainian,
}

var byName = func() map[string]string {
	names := display.English.Languages()
	out := make(map[string]string, len(named))
	for _, tag := range named {
		base, _ := tag.Base()
		out[strings.ToLower(names.Name(tag))] = base.String()
	}
	return out
}()

// Normalize converts a BCP 47 tag ("en-US"), an ISO 639 code ("eng") or an
// English language name ("english") to its ISO 639-1 base code.
func Normalize(value string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", fmt.Errorf("language: empty value")
	}
	if code, ok := byName[value]; ok {
		return code, nil
	}
	tag, err := xlanguage.Parse(value)
	if err != nil {
		return "", fmt.Errorf("language: unrecognized %q", value)
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return "", fmt.Errorf("language: unrecognized %q", value)
	}
	return base.String(), nil
}

// DisplayName returns the English name for code, or the uppercased code when
// it cannot be parsed.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Unknown"
	}
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(code)
}
