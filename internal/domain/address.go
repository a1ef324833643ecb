package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Field length limits imposed by the carrier API
const (
	MaxStreetLength = 30
	MaxSuburbLength = 30
)

// SupportedCountry is the only country the carrier path handles.
// International destinations go through the fallback estimator only.
const SupportedCountry = "Australia"

// FieldErrorCode classifies an address validation failure
type FieldErrorCode string

const (
	FieldRequired     FieldErrorCode = "FIELD_REQUIRED"
	FieldTooLong      FieldErrorCode = "FIELD_TOO_LONG"
	InvalidFormat     FieldErrorCode = "INVALID_FORMAT"
	InvalidEnum       FieldErrorCode = "INVALID_ENUM"
	UnsupportedRegion FieldErrorCode = "UNSUPPORTED_REGION"
)

// FieldError describes a single invalid address field
type FieldError struct {
	Field   string         `json:"field"`
	Code    FieldErrorCode `json:"code"`
	Message string         `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors aggregates validation failures across all address fields.
// Validation is not fail-fast: the caller gets every problem at once.
type FieldErrors map[string]FieldError

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	return "invalid address fields: " + strings.Join(fields, ", ")
}

// ToMessages flattens field errors into a field->message map for API responses
func (e FieldErrors) ToMessages() map[string]string {
	out := make(map[string]string, len(e))
	for f, fe := range e {
		out[f] = fe.Message
	}
	return out
}

// Address is a destination address as submitted by the checkout UI
type Address struct {
	Street   string `json:"street"`
	Suburb   string `json:"suburb"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// NormalizedAddress is an address that has passed full validation:
// state normalized to its code, postcode cleaned to 4 digits.
// A partially-valid address must never be constructed.
type NormalizedAddress struct {
	Street   string `json:"street" bson:"street"`
	Suburb   string `json:"suburb" bson:"suburb"`
	State    string `json:"state" bson:"state"`
	Postcode string `json:"postcode" bson:"postcode"`
	Country  string `json:"country" bson:"country"`
}

// stateNames maps full state names (lowercased) to their codes
var stateNames = map[string]string{
	"new south wales":              "NSW",
	"victoria":                     "VIC",
	"queensland":                   "QLD",
	"south australia":              "SA",
	"western australia":            "WA",
	"tasmania":                     "TAS",
	"northern territory":           "NT",
	"australian capital territory": "ACT",
}

// stateCodes is the set of valid Australian state/territory codes
var stateCodes = map[string]bool{
	"NSW": true, "VIC": true, "QLD": true, "SA": true,
	"WA": true, "TAS": true, "NT": true, "ACT": true,
}

var postcodePattern = regexp.MustCompile(`^\d{4}$`)

// ValidateStreet checks the street line against carrier constraints
func ValidateStreet(s string) (string, *FieldError) {
	return validateLine("street", s)
}

// ValidateSuburb checks the suburb/city line against carrier constraints
func ValidateSuburb(s string) (string, *FieldError) {
	return validateLine("suburb", s)
}

func validateLine(field, s string) (string, *FieldError) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", &FieldError{Field: field, Code: FieldRequired, Message: field + " is required"}
	}
	if len(trimmed) > MaxStreetLength {
		return "", &FieldError{
			Field:   field,
			Code:    FieldTooLong,
			Message: fmt.Sprintf("%s must be %d characters or fewer", field, MaxStreetLength),
		}
	}
	return trimmed, nil
}

// ValidateState accepts a state code or full name (case-insensitive) and
// normalizes it to the code
func ValidateState(s string) (string, *FieldError) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", &FieldError{Field: "state", Code: FieldRequired, Message: "state is required"}
	}

	upper := strings.ToUpper(trimmed)
	if stateCodes[upper] {
		return upper, nil
	}
	if code, ok := stateNames[strings.ToLower(trimmed)]; ok {
		return code, nil
	}

	return "", &FieldError{Field: "state", Code: InvalidEnum, Message: "unknown state: " + trimmed}
}

// ValidatePostcode strips whitespace and requires exactly 4 digits
func ValidatePostcode(s string) (string, *FieldError) {
	cleaned := strings.ReplaceAll(s, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "\t", "")
	if cleaned == "" {
		return "", &FieldError{Field: "postcode", Code: FieldRequired, Message: "postcode is required"}
	}
	if !postcodePattern.MatchString(cleaned) {
		return "", &FieldError{Field: "postcode", Code: InvalidFormat, Message: "postcode must be exactly 4 digits"}
	}
	return cleaned, nil
}

// ValidateCountry requires Australia; the carrier does not quote international
func ValidateCountry(s string) (string, *FieldError) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", &FieldError{Field: "country", Code: FieldRequired, Message: "country is required"}
	}
	if !strings.EqualFold(trimmed, SupportedCountry) {
		return "", &FieldError{
			Field:   "country",
			Code:    UnsupportedRegion,
			Message: "only Australian delivery addresses are supported",
		}
	}
	return SupportedCountry, nil
}

// ValidateAddress runs every field validator and collects all failures.
// It returns a NormalizedAddress only when zero errors exist.
func ValidateAddress(addr Address) (*NormalizedAddress, FieldErrors) {
	errs := FieldErrors{}

	street, ferr := ValidateStreet(addr.Street)
	if ferr != nil {
		errs[ferr.Field] = *ferr
	}
	suburb, ferr := ValidateSuburb(addr.Suburb)
	if ferr != nil {
		errs[ferr.Field] = *ferr
	}
	state, ferr := ValidateState(addr.State)
	if ferr != nil {
		errs[ferr.Field] = *ferr
	}
	postcode, ferr := ValidatePostcode(addr.Postcode)
	if ferr != nil {
		errs[ferr.Field] = *ferr
	}
	country, ferr := ValidateCountry(addr.Country)
	if ferr != nil {
		errs[ferr.Field] = *ferr
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &NormalizedAddress{
		Street:   street,
		Suburb:   suburb,
		State:    state,
		Postcode: postcode,
		Country:  country,
	}, nil
}
