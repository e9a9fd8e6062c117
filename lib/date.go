package lib

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"

	"github.com/ardnew/bindable/lang"
)

// DefaultLayout is the layout date uses when none is given.
const DefaultLayout = "2 January 2006"

var locales = map[string]monday.Locale{
	"en":    monday.LocaleEnUS,
	"en_us": monday.LocaleEnUS,
	"en_gb": monday.LocaleEnGB,
	"de":    monday.LocaleDeDE,
	"de_de": monday.LocaleDeDE,
	"fr":    monday.LocaleFrFR,
	"fr_fr": monday.LocaleFrFR,
	"fr_ca": monday.LocaleFrCA,
	"es":    monday.LocaleEsES,
	"es_es": monday.LocaleEsES,
	"it":    monday.LocaleItIT,
	"it_it": monday.LocaleItIT,
	"pt":    monday.LocalePtPT,
	"pt_pt": monday.LocalePtPT,
	"pt_br": monday.LocalePtBR,
	"nl":    monday.LocaleNlNL,
	"nl_nl": monday.LocaleNlNL,
	"ru":    monday.LocaleRuRU,
	"ru_ru": monday.LocaleRuRU,
	"pl":    monday.LocalePlPL,
	"pl_pl": monday.LocalePlPL,
	"sv":    monday.LocaleSvSE,
	"sv_se": monday.LocaleSvSE,
	"ja":    monday.LocaleJaJP,
	"ja_jp": monday.LocaleJaJP,
	"zh":    monday.LocaleZhCN,
	"zh_cn": monday.LocaleZhCN,
	"zh_tw": monday.LocaleZhTW,
	"ko":    monday.LocaleKoKR,
	"ko_kr": monday.LocaleKoKR,
}

// locale maps names like "de", "de-AT", or "pt_BR" to a monday locale,
// falling back to the language alone and then to US English.
func locale(name string) monday.Locale {
	name = strings.ToLower(strings.ReplaceAll(name, "-", "_"))

	if loc, ok := locales[name]; ok {
		return loc
	}

	if base, _, ok := strings.Cut(name, "_"); ok {
		if loc, ok := locales[base]; ok {
			return loc
		}
	}

	return monday.LocaleEnUS
}

// toTime accepts times, unix seconds, and any string dateparse recognizes.
// Ambiguous numeric dates read month first.
func toTime(v any) (time.Time, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case float64:
		sec, frac := math.Modf(v)

		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case int:
		return time.Unix(int64(v), 0).UTC(), nil
	case string:
		t, err := dateparse.ParseIn(v, time.UTC, dateparse.PreferMonthFirst(true))
		if err != nil {
			return time.Time{}, lang.ErrOperand.Wrap(err).With(slog.String("date", v))
		}

		return t, nil
	default:
		return time.Time{}, lang.ErrOperand.With(slog.String("date", lang.Stringify(v)))
	}
}

// date formats a date with a Go layout and a locale for month and day
// names: @date(value, layout?, locale?).
func date(args ...any) (any, error) {
	if len(args) == 0 || args[0] == nil || lang.IsUndefined(args[0]) {
		return lang.Undefined, nil
	}

	t, err := toTime(args[0])
	if err != nil {
		return nil, err
	}

	layout, ok := text(args, 1)
	if !ok || layout == "" {
		layout = DefaultLayout
	}

	name, _ := text(args, 2)

	return monday.Format(t, layout, locale(name)), nil
}
