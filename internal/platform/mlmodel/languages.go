package mlmodel

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultLanguageCodes maps simple language codes to the FLORES-200
// codes NLLB expects. Codes are listed at
// https://huggingface.co/facebook/nllb-200-distilled-600M#languages-covered
var defaultLanguageCodes = map[string]string{
	"en": "eng_Latn", // English
	"hi": "hin_Deva", // Hindi
	"es": "spa_Latn", // Spanish
	"fr": "fra_Latn", // French
	"de": "deu_Latn", // German
	"ar": "ara_Arab", // Arabic
	"bn": "ben_Beng", // Bengali
	"gu": "guj_Gujr", // Gujarati
	"kn": "kan_Knda", // Kannada
	"ml": "mal_Mlym", // Malayalam
	"mr": "mar_Deva", // Marathi
	"pa": "pan_Guru", // Punjabi
	"ta": "tam_Taml", // Tamil
	"te": "tel_Telu", // Telugu
	"ur": "urd_Arab", // Urdu
}

// LanguageMap resolves simple language codes to NLLB codes.
type LanguageMap struct {
	codes map[string]string
}

// DefaultLanguageMap returns the built-in language table.
func DefaultLanguageMap() *LanguageMap {
	codes := make(map[string]string, len(defaultLanguageCodes))
	for k, v := range defaultLanguageCodes {
		codes[k] = v
	}
	return &LanguageMap{codes: codes}
}

// LoadLanguageMap reads a YAML file of simple-to-NLLB code mappings and
// merges it over the built-in table, so deployments can add regional
// languages without a rebuild. Entries with an empty value remove the
// language from the table.
func LoadLanguageMap(path string) (*LanguageMap, error) {
	m := DefaultLanguageMap()
	if path == "" {
		return m, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read language map %s: %w", path, err)
	}

	overrides := map[string]string{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse language map %s: %w", path, err)
	}

	for simple, code := range overrides {
		simple = strings.ToLower(strings.TrimSpace(simple))
		code = strings.TrimSpace(code)
		if simple == "" {
			continue
		}
		if code == "" {
			delete(m.codes, simple)
			continue
		}
		m.codes[simple] = code
	}
	return m, nil
}

// Code returns the NLLB code for a simple language code.
func (m *LanguageMap) Code(simple string) (string, bool) {
	code, ok := m.codes[strings.ToLower(strings.TrimSpace(simple))]
	return code, ok
}

// Supported reports whether the simple language code is in the table.
func (m *LanguageMap) Supported(simple string) bool {
	_, ok := m.Code(simple)
	return ok
}

// Languages returns the simple codes in the table, for diagnostics.
func (m *LanguageMap) Languages() []string {
	out := make([]string, 0, len(m.codes))
	for k := range m.codes {
		out = append(out, k)
	}
	return out
}
