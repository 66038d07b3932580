package override

import (
	"fmt"
	"slices"

	"github.com/morrowland-code/morrowland77777/internal/trait"
)

type Policy string

const (
	// PolicyFirstUsable applies only the first source that loads with at
	// least one entry; later sources are never read.
	PolicyFirstUsable Policy = "first_usable"
	// PolicyLayered applies every usable source, earlier sources winning.
	PolicyLayered Policy = "layered"
)

const (
	FallbackCode = "Low-Low-Low-Low-Low"
	FallbackName = "Aquashine"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyFirstUsable, nil
	case PolicyFirstUsable, PolicyLayered:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown override policy %q", s)
}

// Target is the code-to-name table being layered onto.
type Target interface {
	Put(code, name string) bool
	Len() int
}

type Skipped struct {
	Source string
	Err    error
}

type Result struct {
	Applied      []string
	Skipped      []Skipped
	Overwritten  int
	Added        int
	Rejected     []string
	UsedFallback bool
}

// Merge layers sources onto target in priority order. Codes that do not
// normalize to the canonical grammar are never written; they come back in
// Result.Rejected. When nothing is usable and target is empty, the
// fallback entry is installed.
func Merge(target Target, sources []Source, policy Policy) Result {
	var res Result

	var usable [][]Entry
	for _, src := range sources {
		entries, err := src.Load()
		if err == nil && len(entries) == 0 {
			err = fmt.Errorf("%w: %s yielded no entries", ErrSourceUnusable, src.Name())
		}
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Source: src.Name(), Err: err})
			continue
		}
		res.Applied = append(res.Applied, src.Name())
		usable = append(usable, entries)
		if policy != PolicyLayered {
			break
		}
	}

	rejected := make(map[string]struct{})
	// Lowest priority first so higher priority sources overwrite.
	for i := len(usable) - 1; i >= 0; i-- {
		for _, e := range usable[i] {
			code, err := trait.ParseLenient(e.Code)
			if err != nil || e.Name == "" {
				if err != nil {
					rejected[e.Code] = struct{}{}
				}
				continue
			}
			if target.Put(code.String(), e.Name) {
				res.Overwritten++
			} else {
				res.Added++
			}
		}
	}

	for c := range rejected {
		res.Rejected = append(res.Rejected, c)
	}
	slices.Sort(res.Rejected)

	// An applied source made of rejected codes still leaves nothing to serve.
	if target.Len() == 0 {
		target.Put(FallbackCode, FallbackName)
		res.UsedFallback = true
	}
	return res
}
