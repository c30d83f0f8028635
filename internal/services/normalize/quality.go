package normalize

import (
	"fmt"
	"math"
	"strings"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	"github.com/foreverwb/volatility-analysis/pkg/config"
)

// Key fields whose absence degrades the quality grade.
var qualityKeyFields = []string{
	"PriceChgPct", "IV30", "HV20", "HV1Y", "IVR", "IV_52W_P",
	"Volume", "CallVolume", "PutVolume", "PutPct",
	"CallNotional", "PutNotional", "OI_PctRank",
}

const (
	severityWarn = 1
	severityFail = 2
)

// Quality cross-checks the raw record before normalization fills the gaps:
// volume split vs total, put% vs observed flow share, rank-field ranges,
// magnitude ceilings, and key-field presence. It returns the grade and the
// list of issues found. The grade never blocks an evaluation.
func Quality(rec map[string]interface{}, cfg config.Scoring) (models.DataQuality, []string) {
	var issues []string
	severity := 0

	flag := func(text string, sev int) {
		issues = append(issues, text)
		if sev > severity {
			severity = sev
		}
	}

	var missing []string
	for _, k := range qualityKeyFields {
		if v, ok := rec[k]; !ok || v == nil {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sev := severityWarn
		if len(missing) >= cfg.DataQualityMissingFail {
			sev = severityFail
		}
		flag("missing fields: "+strings.Join(missing, ", "), sev)
	}

	total, totalOK := parseNumeric(rec["Volume"])
	cv, cvOK := parseNumeric(rec["CallVolume"])
	pv, pvOK := parseNumeric(rec["PutVolume"])
	if totalOK && cvOK && pvOK && total != 0 && cv+pv != 0 {
		mismatch := math.Abs(cv+pv-total) / math.Max(total, 1.0)
		if mismatch > cfg.DataQualityVolumeTolerance {
			sev := severityWarn
			if mismatch > cfg.DataQualityVolumeTolerance*2 {
				sev = severityFail
			}
			flag(fmt.Sprintf("call+put volume differs from total by %.1f%%", mismatch*100), sev)
		}
	}

	if putPct, ok := parseNumeric(rec["PutPct"]); ok && cvOK && pvOK && cv+pv > 0 {
		observed := pv / (cv + pv)
		diff := math.Abs(observed - scalePercent(putPct)/100.0)
		if diff > cfg.DataQualityPutPctTolerance {
			sev := severityWarn
			if diff > cfg.DataQualityPutPctTolerance*1.5 {
				sev = severityFail
			}
			flag(fmt.Sprintf("put%% differs from observed flow share by %.1f%%", diff*100), sev)
		}
	}

	for _, k := range []string{"IVR", "IV_52W_P", "OI_PctRank"} {
		v, present := rec[k]
		if !present || v == nil {
			continue
		}
		f, ok := parseNumeric(v)
		if !ok || f < 0 || f > 100 {
			flag(fmt.Sprintf("%s out of range (%v)", k, v), severityFail)
		}
	}

	ceilings := []struct {
		key     string
		ceiling float64
	}{
		{"Volume", cfg.DataQualityVolumeCeiling},
		{"CallVolume", cfg.DataQualityVolumeCeiling},
		{"PutVolume", cfg.DataQualityVolumeCeiling},
		{"CallNotional", cfg.DataQualityNotionalCeiling},
		{"PutNotional", cfg.DataQualityNotionalCeiling},
		{"IV30", cfg.DataQualityIVCeiling},
		{"IV7", cfg.DataQualityIVCeiling},
		{"IV60", cfg.DataQualityIVCeiling},
		{"IV90", cfg.DataQualityIVCeiling},
		{"HV20", cfg.DataQualityIVCeiling},
		{"HV1Y", cfg.DataQualityIVCeiling},
	}
	for _, c := range ceilings {
		k, ceiling := c.key, c.ceiling
		v, present := rec[k]
		if !present || v == nil {
			continue
		}
		f, ok := parseNotional(v)
		if !ok {
			flag(fmt.Sprintf("%s is not numeric (%v)", k, v), severityFail)
			continue
		}
		if f < 0 {
			flag(fmt.Sprintf("%s is negative (%v)", k, f), severityFail)
		} else if ceiling > 0 && f > ceiling {
			flag(fmt.Sprintf("%s magnitude suspicious (%v > %v)", k, f, ceiling), severityWarn)
		}
	}

	switch {
	case severity >= severityFail || len(missing) >= cfg.DataQualityMissingFail:
		return models.DataQualityLow, issues
	case len(issues) > 0 || len(missing) >= cfg.DataQualityMissingWarn:
		return models.DataQualityMedium, issues
	default:
		return models.DataQualityHigh, issues
	}
}
