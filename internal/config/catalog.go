package config

// Catalog holds the display strings for one language, fetched from the
// server's translations endpoint. Lookups fall back to the key itself, so a
// missing or partial catalog degrades to readable English-ish labels.
type Catalog struct {
	lang    string
	strings map[string]string
}

// NewCatalog builds a catalog. A nil map is a valid empty catalog.
func NewCatalog(lang string, strings map[string]string) *Catalog {
	return &Catalog{lang: lang, strings: strings}
}

// Lang returns the catalog's language code.
func (c *Catalog) Lang() string { return c.lang }

// T resolves a display string, returning the key when untranslated.
func (c *Catalog) T(key string) string {
	if c == nil || c.strings == nil {
		return key
	}
	if v, ok := c.strings[key]; ok && v != "" {
		return v
	}
	return key
}
