package order

import (
	"fmt"
	"regexp"

	"storefront-service/internal/models"
)

type fieldRule struct {
	label   string
	minLen  int
	maxLen  int
	pattern *regexp.Regexp
}

var (
	namePattern    = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	zipPattern     = regexp.MustCompile(`(?i)^[0-9A-Z\s-]+$`)
	contactPattern = regexp.MustCompile(`^[\d\s\-+()]+$`)
)

var addressRules = []struct {
	field string
	rule  fieldRule
}{
	{"name", fieldRule{label: "Full Name", minLen: 2, maxLen: 100, pattern: namePattern}},
	{"address", fieldRule{label: "Address", minLen: 5, maxLen: 200}},
	{"city", fieldRule{label: "City", minLen: 2, maxLen: 100, pattern: namePattern}},
	{"state", fieldRule{label: "State", minLen: 2, maxLen: 100}},
	{"zipCode", fieldRule{label: "Zip Code", minLen: 4, maxLen: 10, pattern: zipPattern}},
	{"country", fieldRule{label: "Country", minLen: 2, maxLen: 100}},
	{"contact", fieldRule{label: "Contact Number", minLen: 10, maxLen: 20, pattern: contactPattern}},
}

func addressFieldValue(addr models.ShippingAddress, field string) string {
	switch field {
	case "name":
		return addr.Name
	case "address":
		return addr.Address
	case "city":
		return addr.City
	case "state":
		return addr.State
	case "zipCode":
		return addr.ZipCode
	case "country":
		return addr.Country
	case "contact":
		return addr.Contact
	}
	return ""
}

// ValidateShippingAddress checks every field against its rule and returns
// a field-to-message map. An empty map means the address is valid. The
// map never leaves the process; validation blocks order creation locally.
func ValidateShippingAddress(addr models.ShippingAddress) map[string]string {
	errs := make(map[string]string)

	for _, entry := range addressRules {
		value := addressFieldValue(addr, entry.field)
		rule := entry.rule

		if value == "" {
			errs[entry.field] = fmt.Sprintf("%s is required", rule.label)
			continue
		}
		if len(value) < rule.minLen {
			errs[entry.field] = fmt.Sprintf("%s must be at least %d characters", rule.label, rule.minLen)
			continue
		}
		if len(value) > rule.maxLen {
			errs[entry.field] = fmt.Sprintf("%s must be no more than %d characters", rule.label, rule.maxLen)
			continue
		}
		if rule.pattern != nil && !rule.pattern.MatchString(value) {
			errs[entry.field] = fmt.Sprintf("%s format is invalid", rule.label)
		}
	}

	return errs
}
