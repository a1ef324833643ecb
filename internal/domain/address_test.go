package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestAddress() Address {
	return Address{
		Street:   "1 Test St",
		Suburb:   "Melbourne",
		State:    "VIC",
		Postcode: "3000",
		Country:  "Australia",
	}
}

func TestValidateStreet(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		wantCode FieldErrorCode
	}{
		{name: "valid street", input: "1 Test St", want: "1 Test St"},
		{name: "trims whitespace", input: "  42 Wallaby Way  ", want: "42 Wallaby Way"},
		{name: "empty after trim", input: "   ", wantCode: FieldRequired},
		{name: "exactly 30 chars accepted", input: strings.Repeat("a", 30), want: strings.Repeat("a", 30)},
		{name: "31 chars rejected", input: strings.Repeat("a", 31), wantCode: FieldTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ferr := ValidateStreet(tt.input)
			if tt.wantCode != "" {
				require.NotNil(t, ferr)
				assert.Equal(t, tt.wantCode, ferr.Code)
				assert.Equal(t, "street", ferr.Field)
			} else {
				require.Nil(t, ferr)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestValidateState(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		wantCode FieldErrorCode
	}{
		{name: "code uppercase", input: "VIC", want: "VIC"},
		{name: "code lowercase", input: "nsw", want: "NSW"},
		{name: "full name", input: "Queensland", want: "QLD"},
		{name: "full name mixed case", input: "wEsTeRn AuStRaLiA", want: "WA"},
		{name: "territory full name", input: "australian capital territory", want: "ACT"},
		{name: "empty", input: "", wantCode: FieldRequired},
		{name: "unknown", input: "Auckland", wantCode: InvalidEnum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ferr := ValidateState(tt.input)
			if tt.wantCode != "" {
				require.NotNil(t, ferr)
				assert.Equal(t, tt.wantCode, ferr.Code)
			} else {
				require.Nil(t, ferr)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestValidatePostcode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		wantCode FieldErrorCode
	}{
		{name: "clean", input: "3000", want: "3000"},
		{name: "surrounding whitespace", input: " 3000 ", want: "3000"},
		{name: "internal whitespace", input: "30 00", want: "3000"},
		{name: "tabs stripped", input: "\t3000\t", want: "3000"},
		{name: "too short", input: "300", wantCode: InvalidFormat},
		{name: "too long", input: "30000", wantCode: InvalidFormat},
		{name: "letters", input: "3O00", wantCode: InvalidFormat},
		{name: "empty", input: "", wantCode: FieldRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ferr := ValidatePostcode(tt.input)
			if tt.wantCode != "" {
				require.NotNil(t, ferr)
				assert.Equal(t, tt.wantCode, ferr.Code)
			} else {
				require.Nil(t, ferr)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestValidateCountry(t *testing.T) {
	got, ferr := ValidateCountry("australia")
	require.Nil(t, ferr)
	assert.Equal(t, "Australia", got)

	_, ferr = ValidateCountry("New Zealand")
	require.NotNil(t, ferr)
	assert.Equal(t, UnsupportedRegion, ferr.Code)

	_, ferr = ValidateCountry("")
	require.NotNil(t, ferr)
	assert.Equal(t, FieldRequired, ferr.Code)
}

func TestValidateAddress(t *testing.T) {
	t.Run("valid address normalizes all fields", func(t *testing.T) {
		addr := Address{
			Street:   " 1 Test St ",
			Suburb:   "Melbourne",
			State:    "victoria",
			Postcode: " 3000",
			Country:  "AUSTRALIA",
		}

		normalized, errs := ValidateAddress(addr)
		require.Empty(t, errs)
		require.NotNil(t, normalized)
		assert.Equal(t, "1 Test St", normalized.Street)
		assert.Equal(t, "VIC", normalized.State)
		assert.Equal(t, "3000", normalized.Postcode)
		assert.Equal(t, "Australia", normalized.Country)
	})

	t.Run("collects all errors at once", func(t *testing.T) {
		addr := Address{
			Street:   strings.Repeat("x", 40),
			Suburb:   "",
			State:    "ZZ",
			Postcode: "abc",
			Country:  "France",
		}

		normalized, errs := ValidateAddress(addr)
		assert.Nil(t, normalized)
		require.Len(t, errs, 5)
		assert.Equal(t, FieldTooLong, errs["street"].Code)
		assert.Equal(t, FieldRequired, errs["suburb"].Code)
		assert.Equal(t, InvalidEnum, errs["state"].Code)
		assert.Equal(t, InvalidFormat, errs["postcode"].Code)
		assert.Equal(t, UnsupportedRegion, errs["country"].Code)
	})

	t.Run("overlong suburb reported as FieldTooLong", func(t *testing.T) {
		addr := validTestAddress()
		addr.Suburb = strings.Repeat("b", 31)

		normalized, errs := ValidateAddress(addr)
		assert.Nil(t, normalized)
		require.Len(t, errs, 1)
		assert.Equal(t, FieldTooLong, errs["suburb"].Code)
	})
}
