package thinqapi

import (
	"fmt"
	"strings"
)

const (
	REGION_KIC = "KIC"
	REGION_AIC = "AIC"
	REGION_EIC = "EIC"
)

var regionCountries = map[string][]string{
	REGION_KIC: {"AU", "BD", "CN", "HK", "ID", "IN", "JP", "KH", "KR", "LA", "LK", "MM", "MY", "NP", "NZ", "PH", "SG", "TH", "TW", "VN"},
	REGION_AIC: {"AG", "AR", "AW", "BB", "BO", "BR", "BS", "BZ", "CA", "CL", "CO", "CR", "CU", "DM", "DO", "EC", "GD", "GT", "GY", "HN", "HT", "JM", "KN", "LC", "MX", "NI", "PA", "PE", "PR", "PY", "SR", "SV", "TT", "US", "UY", "VC", "VE"},
	REGION_EIC: {"AE", "AF", "AL", "AM", "AO", "AT", "AZ", "BA", "BE", "BF", "BG", "BH", "BJ", "BY", "CD", "CF", "CG", "CH", "CI", "CM", "CV", "CY", "CZ", "DE", "DJ", "DK", "DZ", "EE", "EG", "ES", "ET", "FI", "FR", "GA", "GB", "GE", "GH", "GM", "GN", "GQ", "GR", "HR", "HU", "IE", "IL", "IQ", "IR", "IS", "IT", "JO", "KE", "KG", "KW", "KZ", "LB", "LR", "LT", "LU", "LV", "LY", "MA", "MD", "ME", "MK", "ML", "MR", "MT", "MU", "MW", "NE", "NG", "NL", "NO", "OM", "PK", "PL", "PS", "PT", "QA", "RO", "RS", "RU", "RW", "SA", "SD", "SE", "SI", "SK", "SL", "SN", "SO", "ST", "SY", "TD", "TG", "TN", "TR", "TZ", "UA", "UG", "UZ", "XK", "YE", "ZA", "ZM"},
}

var countryRegion = func() map[string]string {
	m := make(map[string]string)
	for region, countries := range regionCountries {
		for _, c := range countries {
			m[c] = region
		}
	}
	return m
}()

// RegionForCountry maps an ISO 3166 alpha-2 country code to its API region.
func RegionForCountry(country string) (string, error) {
	region, ok := countryRegion[strings.ToUpper(country)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCountry, country)
	}
	return region, nil
}

// BaseURL returns the API root for a region.
func BaseURL(region string) string {
	return fmt.Sprintf("https://api-%s.lgthinq.com/", strings.ToLower(region))
}
