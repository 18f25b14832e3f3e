package rate

import (
	"encoding/json"
	"strings"
	"testing"

	"ratelock/internal/domain"

	"github.com/stretchr/testify/require"
)

func rawRates(kv map[string]string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(kv))
	for k, v := range kv {
		out[k] = json.RawMessage(v)
	}
	return out
}

func TestValidatePayload_InjectsPivot(t *testing.T) {
	payload := domain.FeedPayload{Base: "EUR", Rates: rawRates(map[string]string{"USD": "1.1", "GBP": "0.85"})}

	rates, err := ValidatePayload(payload, "EUR")

	require.NoError(t, err)
	require.Len(t, rates, 3)
	require.Equal(t, "1", rates["EUR"].String())
	require.Equal(t, "1.1", rates["USD"].String())
	require.Equal(t, "0.85", rates["GBP"].String())
}

func TestValidatePayload_KeepsExactLiteral(t *testing.T) {
	payload := domain.FeedPayload{Rates: rawRates(map[string]string{"JPY": "161.23456789012345678"})}

	rates, err := ValidatePayload(payload, "EUR")

	require.NoError(t, err)
	require.Equal(t, "161.23456789012345678", rates["JPY"].String())
}

func TestValidatePayload_PivotAlreadyPresent(t *testing.T) {
	payload := domain.FeedPayload{Rates: rawRates(map[string]string{"EUR": "1.0", "USD": "1.1"})}

	rates, err := ValidatePayload(payload, "EUR")

	require.NoError(t, err)
	require.Len(t, rates, 2)
}

func TestValidatePayload_Errors(t *testing.T) {
	cases := []struct {
		name    string
		payload domain.FeedPayload
		wantErr error
	}{
		{name: "nil rates", payload: domain.FeedPayload{Base: "EUR"}, wantErr: ErrRatesMissing},
		{name: "empty rates", payload: domain.FeedPayload{Rates: rawRates(map[string]string{})}, wantErr: ErrRatesMissing},
		{name: "base mismatch", payload: domain.FeedPayload{Base: "USD", Rates: rawRates(map[string]string{"EUR": "0.9"})}, wantErr: ErrBaseMismatch},
		{name: "string rate", payload: domain.FeedPayload{Rates: rawRates(map[string]string{"USD": `"1.1"`})}, wantErr: ErrInvalidRate},
		{name: "null rate", payload: domain.FeedPayload{Rates: rawRates(map[string]string{"USD": "null"})}, wantErr: ErrInvalidRate},
		{name: "bool rate", payload: domain.FeedPayload{Rates: rawRates(map[string]string{"USD": "true"})}, wantErr: ErrInvalidRate},
		{name: "object rate", payload: domain.FeedPayload{Rates: rawRates(map[string]string{"USD": `{"v":1}`})}, wantErr: ErrInvalidRate},
		{name: "zero rate", payload: domain.FeedPayload{Rates: rawRates(map[string]string{"USD": "0"})}, wantErr: ErrInvalidRate},
		{name: "negative rate", payload: domain.FeedPayload{Rates: rawRates(map[string]string{"USD": "-1.1"})}, wantErr: ErrInvalidRate},
		{name: "tiny exponent", payload: domain.FeedPayload{Rates: rawRates(map[string]string{"USD": "1e-100000000"})}, wantErr: ErrInvalidRate},
		{name: "huge exponent", payload: domain.FeedPayload{Rates: rawRates(map[string]string{"USD": "1e2000000000"})}, wantErr: ErrInvalidRate},
		{name: "long literal", payload: domain.FeedPayload{Rates: rawRates(map[string]string{"USD": "1." + strings.Repeat("1", 70)})}, wantErr: ErrInvalidRate},
		{name: "only invalid codes", payload: domain.FeedPayload{Rates: rawRates(map[string]string{"usd": "1.1", "USDT": "1.2"})}, wantErr: ErrRatesMissing},
		{name: "pivot not one", payload: domain.FeedPayload{Rates: rawRates(map[string]string{"EUR": "1.2"})}, wantErr: ErrPivotRate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidatePayload(tc.payload, "EUR")
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidatePayload_SkipsInvalidCodes(t *testing.T) {
	payload := domain.FeedPayload{Rates: rawRates(map[string]string{
		"USD":  "1.1",
		"usd":  "1.1",
		"USDT": "1.0",
		"X1Y":  `"junk"`,
	})}

	rates, err := ValidatePayload(payload, "EUR")

	require.NoError(t, err)
	require.Len(t, rates, 2)
	require.Contains(t, rates, "USD")
	require.Contains(t, rates, "EUR")
}

func TestIsCurrencyCode(t *testing.T) {
	require.True(t, IsCurrencyCode("USD"))
	require.False(t, IsCurrencyCode("US"))
	require.False(t, IsCurrencyCode("usd"))
	require.False(t, IsCurrencyCode("U$D"))
	require.False(t, IsCurrencyCode(""))
}
