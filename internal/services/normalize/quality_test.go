package normalize

import (
	"strings"
	"testing"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	"github.com/foreverwb/volatility-analysis/pkg/config"
)

func qualityCfg() config.Scoring {
	return config.Scoring{
		DataQualityMissingWarn:     2,
		DataQualityMissingFail:     4,
		DataQualityVolumeTolerance: 0.15,
		DataQualityPutPctTolerance: 0.12,
		DataQualityVolumeCeiling:   50_000_000,
		DataQualityNotionalCeiling: 5_000_000_000,
		DataQualityIVCeiling:       300,
	}
}

func cleanRecord() map[string]interface{} {
	return map[string]interface{}{
		"PriceChgPct":  2.5,
		"IV30":         45.0,
		"HV20":         38.0,
		"HV1Y":         35.0,
		"IVR":          60.0,
		"IV_52W_P":     55.0,
		"Volume":       1100.0,
		"CallVolume":   600.0,
		"PutVolume":    500.0,
		"PutPct":       45.0,
		"CallNotional": "261.75 M",
		"PutNotional":  "120 M",
		"OI_PctRank":   70.0,
	}
}

func TestQualityCleanRecordIsHigh(t *testing.T) {
	grade, issues := Quality(cleanRecord(), qualityCfg())

	if grade != models.DataQualityHigh {
		t.Fatalf("grade = %q, want high (issues: %v)", grade, issues)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestQualityVolumeSplitMismatchWarns(t *testing.T) {
	rec := cleanRecord()
	rec["Volume"] = 1000.0
	rec["CallVolume"] = 700.0
	rec["PutVolume"] = 500.0 // 1200 vs 1000: 20% off, within 2x tolerance
	rec["PutPct"] = 41.7     // keep the flow-share check quiet

	grade, issues := Quality(rec, qualityCfg())

	if grade != models.DataQualityMedium {
		t.Fatalf("grade = %q, want medium (issues: %v)", grade, issues)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "volume differs") {
		t.Fatalf("issues = %v", issues)
	}
}

func TestQualityRankOutOfRangeIsLow(t *testing.T) {
	rec := cleanRecord()
	rec["IVR"] = 150.0

	grade, issues := Quality(rec, qualityCfg())

	if grade != models.DataQualityLow {
		t.Fatalf("grade = %q, want low (issues: %v)", grade, issues)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "IVR out of range") {
		t.Fatalf("issues = %v", issues)
	}
}

func TestQualityManyMissingFieldsIsLow(t *testing.T) {
	grade, issues := Quality(map[string]interface{}{"Symbol": "NVDA"}, qualityCfg())

	if grade != models.DataQualityLow {
		t.Fatalf("grade = %q, want low", grade)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "missing fields") {
		t.Fatalf("issues = %v", issues)
	}
}

func TestQualityNegativeValueIsLow(t *testing.T) {
	rec := cleanRecord()
	rec["Volume"] = -5.0

	grade, issues := Quality(rec, qualityCfg())

	if grade != models.DataQualityLow {
		t.Fatalf("grade = %q, want low (issues: %v)", grade, issues)
	}
}

func TestQualitySuspiciousMagnitudeWarns(t *testing.T) {
	rec := cleanRecord()
	rec["IV30"] = 950.0

	grade, issues := Quality(rec, qualityCfg())

	if grade != models.DataQualityMedium {
		t.Fatalf("grade = %q, want medium (issues: %v)", grade, issues)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "IV30 magnitude") {
		t.Fatalf("issues = %v", issues)
	}
}
