package dashboard

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

// TranslationService translates tray labels (category names, page title) for a locale.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

const defaultLocaleKey = "default"

// ResolveLocalizedValue picks the entry of values matching locale. The locale's BCP 47
// parents are tried in order (es-MX, es-419, es) before the "default" key; keys compare
// case-insensitively.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		if value := lookupLocale(values, candidate); value != "" {
			return value
		}
	}
	return fallback
}

func lookupLocale(values map[string]string, locale string) string {
	if value, ok := values[locale]; ok {
		return value
	}
	for key, value := range values {
		if normalizeLocale(key) == locale {
			return value
		}
	}
	return ""
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{defaultLocaleKey}
	}
	candidates := []string{locale}
	tag, err := language.Parse(locale)
	if err != nil {
		if base, _, ok := strings.Cut(locale, "-"); ok && base != "" {
			candidates = append(candidates, base)
		}
		return append(candidates, defaultLocaleKey)
	}
	for parent := tag.Parent(); parent != language.Und; parent = parent.Parent() {
		name := strings.ToLower(parent.String())
		if !containsID(candidates, name) {
			candidates = append(candidates, name)
		}
	}
	return append(candidates, defaultLocaleKey)
}

func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(locale)), "_", "-")
}

func normalizeLocaleMap(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		if key = normalizeLocale(key); key != "" && value != "" {
			out[key] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (def *WidgetDefinition) normalizeLocalizedFields() {
	def.NameLocalized = normalizeLocaleMap(def.NameLocalized)
	def.DescriptionLocalized = normalizeLocaleMap(def.DescriptionLocalized)
}

// NameForLocale is the widget title shown in the tray and picker.
func (def WidgetDefinition) NameForLocale(locale string) string {
	return ResolveLocalizedValue(def.NameLocalized, locale, def.Name)
}

// DescriptionForLocale is the picker description.
func (def WidgetDefinition) DescriptionForLocale(locale string) string {
	return ResolveLocalizedValue(def.DescriptionLocalized, locale, def.Description)
}

// CategoryLabel is the picker heading of a category, translated under
// "dashboard.category.<key>" when svc knows it.
func CategoryLabel(ctx context.Context, svc TranslationService, info CategoryInfo, locale string) string {
	return translateOrFallback(ctx, svc, "dashboard.category."+string(info.Key), locale, info.Label, nil)
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback == "" {
		return key
	}
	return fallback
}
