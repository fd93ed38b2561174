package config

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// GST configuration of the issuing entity. The home state decides whether an
// invoice is taxed intra-state (CGST+SGST split) or inter-state (IGST).
//
// Known limitation: a single home state per deployment. Multi-jurisdiction
// issuers are not supported.

const (
	defaultHomeState      = "Uttar Pradesh"
	defaultIntraSplitRate = "9"
	defaultInterRate      = "18"
)

// GetHomeState returns the issuing entity's registered state.
func GetHomeState() string {
	if v := strings.TrimSpace(os.Getenv("GST_HOME_STATE")); v != "" {
		return v
	}
	return defaultHomeState
}

// GetIntraStateSplitRate returns the per-component rate (CGST and SGST each)
// applied to intra-state invoices.
func GetIntraStateSplitRate() decimal.Decimal {
	return envRate("GST_INTRA_STATE_SPLIT_RATE", defaultIntraSplitRate)
}

// GetInterStateRate returns the combined IGST rate applied to inter-state
// invoices.
func GetInterStateRate() decimal.Decimal {
	return envRate("GST_INTER_STATE_RATE", defaultInterRate)
}

func envRate(key string, fallback string) decimal.Decimal {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if rate, err := decimal.NewFromString(v); err == nil && !rate.IsNegative() {
			return rate
		}
	}
	rate, _ := decimal.NewFromString(fallback)
	return rate
}
