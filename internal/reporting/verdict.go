package reporting

import (
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/soufianos01/sanitizer-checker/api/schemas"
	"github.com/soufianos01/sanitizer-checker/internal/driver"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// ToRecord converts one driver.Verdict into the flat, storable
// schemas.VerdictRecord spec.md §6 describes as the driver's output: a
// safe/vulnerable/unknown classification, and — only when vulnerable — a
// sample witness plus the intersection automaton's DOT rendering.
func ToRecord(field string, v driver.Verdict) schemas.VerdictRecord {
	rec := schemas.VerdictRecord{
		Field:      field,
		Context:    v.ContextName,
		ObservedAt: time.Now().UTC(),
	}
	switch {
	case v.Unknown:
		rec.Verdict = schemas.VerdictUnknown
		rec.Reason = v.Reason
	case v.Safe:
		rec.Verdict = schemas.VerdictSafe
	default:
		rec.Verdict = schemas.VerdictVulnerable
		rec.Intersection = ToDOT(v.ContextName, v.Intersection)
		if v.HasWitness {
			rec.Witness = string(v.Witness)
			rec.HasWitness = true
		}
	}
	return rec
}

// WriteJSON marshals records as a pretty-printed JSON array, grounded on
// the teacher's json-iterator usage for its own result envelopes.
func WriteJSON(w io.Writer, records []schemas.VerdictRecord) error {
	enc := jsonAPI.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
