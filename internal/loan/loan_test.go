package loan

import (
	"math"
	"testing"
)

// ========== ComputeEMI ==========

func TestComputeEMI_ZeroRate(t *testing.T) {
	a := ComputeEMI(100000, 0, 1)
	if a.EMI != 8333.33 {
		t.Errorf("EMI = %v, want 8333.33", a.EMI)
	}
	if a.TotalInterest > 0.05 {
		t.Errorf("total interest = %v, want ~0 at zero rate", a.TotalInterest)
	}
}

func TestComputeEMI_StandardLoan(t *testing.T) {
	a := ComputeEMI(500000, 8, 5)
	if a.EMI <= 0 || a.TotalInterest <= 0 || a.TotalPayment <= a.EMI {
		t.Fatalf("implausible analysis: %+v", a)
	}
	// total_payment is emi times the number of months, up to rounding.
	if diff := math.Abs(a.TotalPayment - a.EMI*60); diff > 1.0 {
		t.Errorf("total_payment %v inconsistent with emi*60 = %v", a.TotalPayment, a.EMI*60)
	}
	if diff := math.Abs(a.TotalPayment - 500000 - a.TotalInterest); diff > 0.02 {
		t.Errorf("total_interest %v inconsistent with total_payment - principal", a.TotalInterest)
	}
}

func TestComputeEMI_Rounding(t *testing.T) {
	a := ComputeEMI(100000, 7, 3)
	for name, v := range map[string]float64{"emi": a.EMI, "interest": a.TotalInterest, "payment": a.TotalPayment} {
		if math.Abs(v*100-math.Round(v*100)) > 1e-9 {
			t.Errorf("%s = %v not rounded to 2 decimals", name, v)
		}
	}
}

// ========== slot extraction ==========

func TestExtractSlots_FullMatch(t *testing.T) {
	slots, ok := ExtractSlots("I want a loan of 500000 at 8% for 5 years")
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if slots.Principal != 500000 || slots.AnnualRate != 8 || slots.TenureYears != 5 {
		t.Errorf("slots = %+v", slots)
	}
}

func TestExtractSlots_PartialMatchFails(t *testing.T) {
	cases := []string{
		"I want a loan of 500000",             // amount only
		"what is a good rate, maybe 8%?",      // no year count
		"can I repay over 5 years",            // no percentage
		"tell me about home loans in general", // nothing
	}
	for _, msg := range cases {
		if _, ok := ExtractSlots(msg); ok {
			t.Errorf("ExtractSlots(%q) succeeded, want failure on partial match", msg)
		}
	}
}

func TestExtractSlots_ZeroTenureRejected(t *testing.T) {
	// "0 years" matches the year pattern but a zero-month loan has no
	// finite instalment; it must be dropped like any other partial match.
	if _, ok := ExtractSlots("loan of 200000 at 8% for 0 years"); ok {
		t.Error("extraction succeeded for a zero-year tenure")
	}
}

func TestAnalyze_ZeroTenureProducesNoAnalysis(t *testing.T) {
	a, ok := Analyze("loan of 200000 at 8% for 0 years")
	if ok {
		t.Fatalf("expected no analysis, got %+v", a)
	}
}

func TestAnalyze(t *testing.T) {
	a, ok := Analyze("loan of 300000 at 9% for 10 years")
	if !ok {
		t.Fatal("expected analysis")
	}
	if a.EMI <= 0 {
		t.Errorf("EMI = %v", a.EMI)
	}

	if _, ok := Analyze("hello, what documents do I need?"); ok {
		t.Error("expected no analysis for a message without loan slots")
	}
}
