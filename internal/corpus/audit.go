package corpus

import (
	"slices"

	"github.com/morrowland-code/morrowland77777/internal/trait"
)

type AuditReport struct {
	Missing []string `json:"missing_codes"`
	Extra   []string `json:"extra_codes"`
}

func (r AuditReport) MissingCount() int { return len(r.Missing) }
func (r AuditReport) ExtraCount() int   { return len(r.Extra) }

func (r AuditReport) Complete() bool {
	return len(r.Missing) == 0 && len(r.Extra) == 0
}

// Audit diffs discovered codes against the canonical domain. Both result
// lists are sorted and free of duplicates.
func Audit(discovered []string) AuditReport {
	domain := trait.DomainStrings()
	canonical := make(map[string]struct{}, len(domain))
	for _, c := range domain {
		canonical[c] = struct{}{}
	}

	found := make(map[string]struct{}, len(discovered))
	report := AuditReport{Missing: []string{}, Extra: []string{}}
	for _, c := range discovered {
		if _, dup := found[c]; dup {
			continue
		}
		found[c] = struct{}{}
		if _, ok := canonical[c]; !ok {
			report.Extra = append(report.Extra, c)
		}
	}
	for _, c := range domain {
		if _, ok := found[c]; !ok {
			report.Missing = append(report.Missing, c)
		}
	}

	slices.Sort(report.Missing)
	slices.Sort(report.Extra)
	return report
}
