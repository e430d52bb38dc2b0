package app

import (
	"fmt"
	"strconv"
	"strings"

	"rental_yield/internal/domain"
)

/********** alias registries (single source of truth) **********/

var rentAliases = map[string][]string{
	"bedrooms": {"bedrooms", "beds", "bedroom_count", "property.bedrooms"},
	"city_centre": {
		"city_centre", "cityCentre", "city_center", "centre",
		"rents.city_centre", "rents.cityCentre", "monthly.city_centre",
		"zones.city_centre.monthly", "zones.cityCentre.monthly",
	},
	"west_end": {
		"west_end", "westEnd", "west",
		"rents.west_end", "rents.westEnd", "monthly.west_end",
		"zones.west_end.monthly", "zones.westEnd.monthly",
	},
	// list form: [{"zone": "West End", "monthly_income": 1610}, ...]
	"zone_list":   {"zones", "locations", "rents"},
	"zone_name":   {"zone", "location", "name", "area"},
	"zone_income": {"monthly_income", "monthly", "income", "amount", "rent"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "". Numbers are formatted so that
// {"bedrooms": 2} and {"bedrooms": "2"} read the same.
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "1.703,00" or "£1703").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			if f, ok := parseAmount(v); ok {
				return &f
			}
		}
	}
	return nil
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "£"))
	if s == "" {
		return 0, false
	}
	// "1,703.50" and "1,703" -> thousands separators; "1703,50" -> decimal comma
	if i := strings.LastIndex(s, ","); i >= 0 && !strings.Contains(s, ".") &&
		strings.Count(s, ",") == 1 && len(s)-i-1 <= 2 {
		s = s[:i] + "." + s[i+1:]
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

/********** rent quote mapper **********/

// mapRentQuote turns a loosely shaped rates-feed payload into a RentRow for
// the requested category. Both zones must be present.
func mapRentQuote(want domain.BedroomCategory, p map[string]any) (domain.RentRow, error) {
	if raw := firstNonEmptyAlias(p, rentAliases, "bedrooms"); raw != "" {
		got, err := domain.ParseBedrooms(raw)
		if err != nil {
			return domain.RentRow{}, err
		}
		if got != want {
			return domain.RentRow{}, fmt.Errorf("%w: asked for %q, feed returned %q", domain.ErrInvalidInput, want, got)
		}
	}

	row := domain.RentRow{Bedrooms: want}
	cc := getFloatFlexible(p, rentAliases["city_centre"]...)
	we := getFloatFlexible(p, rentAliases["west_end"]...)

	// Fall back to the list form when flat keys are absent.
	if cc == nil || we == nil {
		for loc, v := range zoneList(p) {
			v := v
			switch {
			case loc == domain.CityCentre && cc == nil:
				cc = &v
			case loc == domain.WestEnd && we == nil:
				we = &v
			}
		}
	}

	if cc == nil || we == nil {
		return domain.RentRow{}, fmt.Errorf("%w: rent quote for %q is missing a zone", domain.ErrInvalidInput, want)
	}
	row.CityCentre, row.WestEnd = *cc, *we
	if row.CityCentre < 0 || row.WestEnd < 0 {
		return domain.RentRow{}, fmt.Errorf("%w: negative rent in quote for %q", domain.ErrInvalidInput, want)
	}
	return row, nil
}

func zoneList(p map[string]any) map[domain.Location]float64 {
	out := map[domain.Location]float64{}
	for _, k := range rentAliases["zone_list"] {
		raw, ok := lookupAny(p, k).([]any)
		if !ok {
			continue
		}
		for _, it := range raw {
			z, ok := it.(map[string]any)
			if !ok {
				continue
			}
			loc, err := domain.ParseLocation(firstNonEmptyAlias(z, rentAliases, "zone_name"))
			if err != nil {
				continue
			}
			if f := getFloatFlexible(z, rentAliases["zone_income"]...); f != nil {
				out[loc] = *f
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return out
}
