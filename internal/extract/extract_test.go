package extract

import (
	"math"
	"testing"
)

const eps = 1e-9

func almost(a, b float64) bool { return math.Abs(a-b) < eps }

// ---------- empty / irrelevant input ----------

func TestParse_NoDetectableFields(t *testing.T) {
	for _, msg := range []string{"", "hello", "good morning everyone", "see you at 5"} {
		req := Parse(msg)
		if req.Confidence != 0 {
			t.Fatalf("Parse(%q): confidence = %v, want 0", msg, req.Confidence)
		}
		if req.Shape != nil || req.Color != nil || req.Clarity != nil ||
			req.CaratMin != nil || req.CaratMax != nil || req.PriceMax != nil {
			t.Fatalf("Parse(%q): expected all fields unset", msg)
		}
		if len(req.Keywords) != 0 {
			t.Fatalf("Parse(%q): keywords = %v, want none", msg, req.Keywords)
		}
	}
}

// ---------- single-field weights ----------

func TestParse_SingleFieldWeights(t *testing.T) {
	cases := []struct {
		msg    string
		weight float64
		tag    string
	}{
		{"round", 0.30, "shape"},
		{"2 carat", 0.25, "carat"},
		{"looking at f quality", 0.20, "color"},
		{"vs1", 0.20, "clarity"},
		{"$5k", 0.15, "price"},
		{"diamond", 0.10, "diamond"},
	}
	for _, tc := range cases {
		req := Parse(tc.msg)
		if !almost(req.Confidence, tc.weight) {
			t.Errorf("Parse(%q): confidence = %v, want %v", tc.msg, req.Confidence, tc.weight)
		}
		if len(req.Keywords) != 1 || req.Keywords[0] != tc.tag {
			t.Errorf("Parse(%q): keywords = %v, want [%s]", tc.msg, req.Keywords, tc.tag)
		}
	}
}

// ---------- shape ----------

func TestParse_Shape_FirstMatchWins(t *testing.T) {
	// "round" precedes "oval" in the vocabulary, so it wins regardless of
	// the order the words appear in the message.
	req := Parse("oval or round, either works")
	if req.Shape == nil || *req.Shape != "round" {
		t.Fatalf("shape = %v, want round", req.Shape)
	}
}

// ---------- carat ----------

func TestParse_Carat_SingleValueToleranceBand(t *testing.T) {
	req := Parse("1.5 ct")
	if req.CaratMin == nil || req.CaratMax == nil {
		t.Fatal("carat bounds unset")
	}
	if !almost(*req.CaratMin, 1.35) || !almost(*req.CaratMax, 1.65) {
		t.Fatalf("carat band = [%v, %v], want [1.35, 1.65]", *req.CaratMin, *req.CaratMax)
	}
}

func TestParse_Carat_RangeBypassesExpansion(t *testing.T) {
	req := Parse("1-2 ct")
	if req.CaratMin == nil || req.CaratMax == nil {
		t.Fatal("carat bounds unset")
	}
	if *req.CaratMin != 1 || *req.CaratMax != 2 {
		t.Fatalf("carat range = [%v, %v], want [1, 2] exactly", *req.CaratMin, *req.CaratMax)
	}
}

func TestParse_Carat_ToRange(t *testing.T) {
	req := Parse("looking for 2 to 3 carats")
	if req.CaratMin == nil || *req.CaratMin != 2 || *req.CaratMax != 3 {
		t.Fatalf("carat range = [%v, %v], want [2, 3]", req.CaratMin, req.CaratMax)
	}
}

// ---------- color ----------

func TestParse_Color_RequiresSurroundingContext(t *testing.T) {
	req := Parse("need a d color stone")
	if req.Color == nil || *req.Color != "D" {
		t.Fatalf("color = %v, want D", req.Color)
	}

	// Known weak point, preserved: a color letter at the end of the
	// message has no trailing space/'+' and is missed.
	req = Parse("need color d")
	if req.Color != nil {
		t.Fatalf("color = %q, want unset (boundary false negative)", *req.Color)
	}
}

func TestParse_Color_PlusSuffix(t *testing.T) {
	req := Parse("anything g+ works")
	if req.Color == nil || *req.Color != "G" {
		t.Fatalf("color = %v, want G", req.Color)
	}
}

// ---------- clarity ----------

func TestParse_Clarity_OrderDependent(t *testing.T) {
	// SI1 is tested before I1, so "si1" resolves to SI1 even though "i1"
	// is also a substring.
	req := Parse("si1")
	if req.Clarity == nil || *req.Clarity != "SI1" {
		t.Fatalf("clarity = %v, want SI1", req.Clarity)
	}
	// VVS1 precedes VS1.
	req = Parse("vvs1")
	if req.Clarity == nil || *req.Clarity != "VVS1" {
		t.Fatalf("clarity = %v, want VVS1", req.Clarity)
	}
}

// ---------- price ----------

func TestParse_Price(t *testing.T) {
	cases := []struct {
		msg  string
		want float64
	}{
		{"$5k", 5000},
		{"$12,500", 12500},
		{"budget 20k", 20000},
		{"$1,250,000", 1250000},
	}
	for _, tc := range cases {
		req := Parse(tc.msg)
		if req.PriceMax == nil || *req.PriceMax != tc.want {
			t.Errorf("Parse(%q): price = %v, want %v", tc.msg, req.PriceMax, tc.want)
		}
	}
}

// ---------- full message ----------

func TestParse_FullRequestUnclampedConfidence(t *testing.T) {
	req := Parse("Looking for a round 1.5ct D VS1 diamond under $10k")

	if req.Shape == nil || *req.Shape != "round" {
		t.Fatalf("shape = %v, want round", req.Shape)
	}
	if req.CaratMin == nil || !almost(*req.CaratMin, 1.35) || !almost(*req.CaratMax, 1.65) {
		t.Fatalf("carat band = [%v, %v], want [1.35, 1.65]", req.CaratMin, req.CaratMax)
	}
	if req.Color == nil || *req.Color != "D" {
		t.Fatalf("color = %v, want D", req.Color)
	}
	if req.Clarity == nil || *req.Clarity != "VS1" {
		t.Fatalf("clarity = %v, want VS1", req.Clarity)
	}
	if req.PriceMax == nil || *req.PriceMax != 10000 {
		t.Fatalf("price = %v, want 10000", req.PriceMax)
	}

	// Additive and unclamped: 0.30+0.25+0.20+0.20+0.15+0.10 = 1.20.
	if !almost(req.Confidence, 1.20) {
		t.Fatalf("confidence = %v, want 1.20", req.Confidence)
	}

	want := []string{"shape", "carat", "color", "clarity", "price", "diamond"}
	if len(req.Keywords) != len(want) {
		t.Fatalf("keywords = %v, want %v", req.Keywords, want)
	}
	for i := range want {
		if req.Keywords[i] != want[i] {
			t.Fatalf("keywords[%d] = %q, want %q (detection order)", i, req.Keywords[i], want[i])
		}
	}
}
