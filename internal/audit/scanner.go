package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Heuristic thresholds. The scanner is not a general rule engine, so
// these are constants rather than configuration.
const (
	failedAuthThreshold   = 5
	failedAuthWindow      = time.Hour
	massDeletionThreshold = 10
	massDeletionWindow    = time.Hour
	settingsChangeWindow  = 24 * time.Hour
	offHoursStart         = 22 // 22:00 tenant local
	offHoursEnd           = 6  // 06:00 tenant local
)

// FindingCategory classifies one anomaly finding.
type FindingCategory string

const (
	FindingSuspiciousAuth  FindingCategory = "suspicious-auth"
	FindingOffHours        FindingCategory = "off-hours-activity"
	FindingMassDeletion    FindingCategory = "mass-deletion"
	FindingSettingsChanged FindingCategory = "settings-changed"
)

// Finding is one flagged pattern with the entries that produced it.
// SettingsChanged is informational; the rest are adverse.
type Finding struct {
	Category      FindingCategory
	TenantID      uuid.UUID
	Informational bool
	Entries       []Entry
}

// ScanRepository covers the reads the scanner needs.
type ScanRepository interface {
	ListWindow(ctx context.Context, tenantID uuid.UUID, from time.Time) ([]Entry, error)
	TenantTimezone(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// Scanner runs read-only heuristics over recent audit entries. It has
// no side effects; alerting on findings is a collaborator's job.
type Scanner struct {
	repo ScanRepository
	now  func() time.Time
}

// NewScanner constructs a scanner.
func NewScanner(repo ScanRepository) *Scanner {
	return &Scanner{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Scan inspects the tenant's entries within the window and returns zero
// or more findings.
func (s *Scanner) Scan(ctx context.Context, tenantID uuid.UUID, window time.Duration) ([]Finding, error) {
	if window <= 0 {
		return nil, fmt.Errorf("audit: scan window must be positive")
	}
	now := s.now()
	// The settings heuristic looks back a full day regardless of the
	// requested window, so fetch whichever span is wider.
	span := window
	if settingsChangeWindow > span {
		span = settingsChangeWindow
	}
	entries, err := s.repo.ListWindow(ctx, tenantID, now.Add(-span))
	if err != nil {
		return nil, err
	}

	loc := s.tenantLocation(ctx, tenantID)

	var findings []Finding
	if f, ok := s.suspiciousAuth(tenantID, entries, now); ok {
		findings = append(findings, f)
	}
	if f, ok := s.offHours(tenantID, entries, now, window, loc); ok {
		findings = append(findings, f)
	}
	findings = append(findings, s.massDeletions(tenantID, entries, now)...)
	if f, ok := s.settingsChanged(tenantID, entries, now); ok {
		findings = append(findings, f)
	}
	return findings, nil
}

func (s *Scanner) tenantLocation(ctx context.Context, tenantID uuid.UUID) *time.Location {
	tz, err := s.repo.TenantTimezone(ctx, tenantID)
	if err != nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s *Scanner) suspiciousAuth(tenantID uuid.UUID, entries []Entry, now time.Time) (Finding, bool) {
	cutoff := now.Add(-failedAuthWindow)
	var failed []Entry
	for _, e := range entries {
		if e.Action == ActionLoginFailed && !e.OccurredAt.Before(cutoff) {
			failed = append(failed, e)
		}
	}
	if len(failed) < failedAuthThreshold {
		return Finding{}, false
	}
	return Finding{Category: FindingSuspiciousAuth, TenantID: tenantID, Entries: failed}, true
}

func (s *Scanner) offHours(tenantID uuid.UUID, entries []Entry, now time.Time, window time.Duration, loc *time.Location) (Finding, bool) {
	cutoff := now.Add(-window)
	var flagged []Entry
	for _, e := range entries {
		if e.OccurredAt.Before(cutoff) || IsAuthEvent(e.Action) {
			continue
		}
		hour := e.OccurredAt.In(loc).Hour()
		if hour >= offHoursStart || hour < offHoursEnd {
			flagged = append(flagged, e)
		}
	}
	if len(flagged) == 0 {
		return Finding{}, false
	}
	return Finding{Category: FindingOffHours, TenantID: tenantID, Entries: flagged}, true
}

func (s *Scanner) massDeletions(tenantID uuid.UUID, entries []Entry, now time.Time) []Finding {
	cutoff := now.Add(-massDeletionWindow)
	byActor := make(map[uuid.UUID][]Entry)
	for _, e := range entries {
		if e.ActorID == nil || e.OccurredAt.Before(cutoff) || !IsDeleteEvent(e.Action) {
			continue
		}
		byActor[*e.ActorID] = append(byActor[*e.ActorID], e)
	}
	var findings []Finding
	for _, deletes := range byActor {
		if len(deletes) >= massDeletionThreshold {
			findings = append(findings, Finding{
				Category: FindingMassDeletion,
				TenantID: tenantID,
				Entries:  deletes,
			})
		}
	}
	return findings
}

func (s *Scanner) settingsChanged(tenantID uuid.UUID, entries []Entry, now time.Time) (Finding, bool) {
	cutoff := now.Add(-settingsChangeWindow)
	var changes []Entry
	for _, e := range entries {
		if e.Action == ActionSettingsUpdated && !e.OccurredAt.Before(cutoff) {
			changes = append(changes, e)
		}
	}
	if len(changes) == 0 {
		return Finding{}, false
	}
	return Finding{
		Category:      FindingSettingsChanged,
		TenantID:      tenantID,
		Informational: true,
		Entries:       changes,
	}, true
}
