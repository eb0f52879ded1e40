package reporting

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/soufianos01/sanitizer-checker/api/schemas"
	"github.com/soufianos01/sanitizer-checker/internal/observability"
	"github.com/soufianos01/sanitizer-checker/internal/reporting/sarif"
)

// Constants for tool identification in the SARIF report.
const (
	ToolName     = "sanitizer-checker"
	ToolInfoURI  = "https://github.com/soufianos01/sanitizer-checker"
	SARIFVersion = "2.1.0"
	SARIFSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

// ruleIDSanitizer replaces characters not safe in a SARIF rule ID with a
// single hyphen, collapsing consecutive sequences.
var ruleIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_.]+`)

// SARIFReporter accumulates VerdictRecords into a SARIF 2.1.0 log and
// writes it on Close. It is safe for concurrent Write calls, matching
// CombinedAnalysis's concurrent per-context fan-out.
type SARIFReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	log    *sarif.Log

	mu          sync.Mutex
	ruleByCtx   map[string]string
	ruleIDUsage map[string]int
}

// NewSARIFReporter creates a reporter that writes one SARIF run to writer.
func NewSARIFReporter(writer io.WriteCloser, toolVersion string) *SARIFReporter {
	return &SARIFReporter{
		writer: writer,
		logger: observability.GetLogger().Named("sarif_reporter"),
		log: &sarif.Log{
			Version: SARIFVersion,
			Schema:  SARIFSchema,
			Runs: []*sarif.Run{{
				Tool: &sarif.Tool{
					Driver: &sarif.ToolComponent{
						Name:           ToolName,
						Version:        pString(toolVersion),
						InformationURI: pString(ToolInfoURI),
						Rules:          []*sarif.ReportingDescriptor{},
					},
				},
				Results: []*sarif.Result{},
			}},
		},
		ruleByCtx:   make(map[string]string),
		ruleIDUsage: make(map[string]int),
	}
}

// Write appends one SARIF result per non-safe record (vulnerable or
// unknown); safe verdicts carry nothing worth reporting.
func (r *SARIFReporter) Write(records []schemas.VerdictRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	for _, rec := range records {
		if rec.Verdict == schemas.VerdictSafe {
			continue
		}
		ruleID := r.ensureRule(rec)
		message := fmt.Sprintf("field %q is %s under context %q", rec.Field, rec.Verdict, rec.Context)
		if rec.HasWitness {
			message += fmt.Sprintf(": witness %q", rec.Witness)
		}
		if rec.Reason != "" {
			message += ": " + rec.Reason
		}
		run.Results = append(run.Results, &sarif.Result{
			RuleID:  ruleID,
			Message: &sarif.Message{Text: pString(message)},
			Level:   levelFor(rec.Verdict),
			Locations: []*sarif.Location{{
				PhysicalLocation: &sarif.PhysicalLocation{
					ArtifactLocation: &sarif.ArtifactLocation{URI: pString(rec.Field)},
				},
			}},
		})
	}
	return nil
}

// Close finalizes and writes the SARIF log, closing the underlying writer
// regardless of encode success.
func (r *SARIFReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	r.logger.Info("finalizing SARIF report",
		zap.Int("results", len(run.Results)),
		zap.Int("rules", len(run.Tool.Driver.Rules)))

	encodeErr := jsonAPI.NewEncoder(r.writer).Encode(r.log)
	closeErr := r.writer.Close()
	if encodeErr != nil {
		return fmt.Errorf("failed to encode SARIF output: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close SARIF output writer: %w", closeErr)
	}
	return nil
}

// ensureRule returns a stable rule ID for rec's context, minting a new
// ReportingDescriptor on first use; must be called holding r.mu.
func (r *SARIFReporter) ensureRule(rec schemas.VerdictRecord) string {
	if ruleID, ok := r.ruleByCtx[rec.Context]; ok {
		return ruleID
	}

	base := "SANITIZER-CHECKER-" + sanitizeRuleName(rec.Context)
	usage := r.ruleIDUsage[base]
	r.ruleIDUsage[base] = usage + 1

	ruleID := base
	if usage > 0 {
		ruleID = fmt.Sprintf("%s-%d", base, usage)
	}

	driver := r.log.Runs[0].Tool.Driver
	driver.Rules = append(driver.Rules, &sarif.ReportingDescriptor{
		ID:               ruleID,
		Name:             pString(rec.Context),
		ShortDescription: &sarif.MultiformatMessageString{Text: pString("XSS reachability under context " + rec.Context)},
		FullDescription:  &sarif.MultiformatMessageString{Text: pString("A sink is reachable by an attack-shaped string under the " + rec.Context + " context.")},
	})
	r.ruleByCtx[rec.Context] = ruleID
	return ruleID
}

func sanitizeRuleName(name string) string {
	if name == "" {
		return "UNNAMED-CONTEXT"
	}
	sanitized := ruleIDSanitizer.ReplaceAllString(strings.ToUpper(name), "-")
	sanitized = strings.Trim(sanitized, "-")
	if sanitized == "" {
		return "UNKNOWN-CONTEXT"
	}
	return sanitized
}

func levelFor(v schemas.Verdict) sarif.Level {
	switch v {
	case schemas.VerdictVulnerable:
		return sarif.LevelError
	case schemas.VerdictUnknown:
		return sarif.LevelWarning
	default:
		return sarif.LevelNote
	}
}

func pString(s string) *string { return &s }
