package loan

import (
	"math"
	"regexp"
	"strconv"
)

// Analysis is a closed-form EMI breakdown.
type Analysis struct {
	EMI           float64 `json:"emi"`
	TotalInterest float64 `json:"total_interest"`
	TotalPayment  float64 `json:"total_payment"`
}

// ComputeEMI derives the monthly instalment for a loan via the standard
// annuity formula. A zero rate degenerates to straight division.
func ComputeEMI(principal, annualRate, tenureYears float64) Analysis {
	monthlyRate := annualRate / 12 / 100
	months := tenureYears * 12

	var emi float64
	if monthlyRate == 0 {
		emi = principal / months
	} else {
		factor := math.Pow(1+monthlyRate, months)
		emi = principal * monthlyRate * factor / (factor - 1)
	}

	totalPayment := emi * months
	return Analysis{
		EMI:           round2(emi),
		TotalInterest: round2(totalPayment - principal),
		TotalPayment:  round2(totalPayment),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Slots are the loan parameters recognized in a free-form user message.
type Slots struct {
	Principal   float64
	AnnualRate  float64
	TenureYears float64
}

// slotPatternsV1 is the extraction policy: three independent patterns for a
// plain number (amount), a percentage, and a year count. All three must
// match for extraction to succeed.
var slotPatternsV1 = struct {
	amount *regexp.Regexp
	rate   *regexp.Regexp
	years  *regexp.Regexp
}{
	amount: regexp.MustCompile(`(\d+)`),
	rate:   regexp.MustCompile(`(\d+)%`),
	years:  regexp.MustCompile(`(\d+)\s*(year|years)`),
}

// ExtractSlots opportunistically pulls loan parameters out of the user's
// original message. It is best-effort: ok is false on any partial match and
// the caller simply omits the analysis.
func ExtractSlots(message string) (Slots, bool) {
	amount := slotPatternsV1.amount.FindStringSubmatch(message)
	rate := slotPatternsV1.rate.FindStringSubmatch(message)
	years := slotPatternsV1.years.FindStringSubmatch(message)
	if amount == nil || rate == nil || years == nil {
		return Slots{}, false
	}

	principal, _ := strconv.ParseFloat(amount[1], 64)
	annualRate, _ := strconv.ParseFloat(rate[1], 64)
	tenure, _ := strconv.ParseFloat(years[1], 64)
	// "0 years" matches the pattern but has no defined instalment.
	if tenure <= 0 {
		return Slots{}, false
	}
	return Slots{Principal: principal, AnnualRate: annualRate, TenureYears: tenure}, true
}

// Analyze runs slot extraction and, when every slot is present, computes
// the EMI breakdown.
func Analyze(message string) (*Analysis, bool) {
	slots, ok := ExtractSlots(message)
	if !ok {
		return nil, false
	}
	a := ComputeEMI(slots.Principal, slots.AnnualRate, slots.TenureYears)
	return &a, true
}
