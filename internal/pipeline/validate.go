package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Validate builds the validate stage: a pure function over the generated
// files with no external I/O. Every file whose path implies a structured
// format is parsed; one error string is recorded per failing file and the
// stage passes iff none were recorded.
func Validate() Stage {
	return func(ctx context.Context, s State) Update {
		logs := []string{fmt.Sprintf("validate: checking %d files", len(s.Files))}

		var merr *multierror.Error
		for _, path := range s.Files.Paths() {
			if !strings.HasSuffix(path, ".json") {
				continue
			}
			if !json.Valid([]byte(s.Files[path])) {
				merr = multierror.Append(merr, fmt.Errorf("%s: invalid JSON syntax", path))
			}
		}

		if merr != nil {
			errs := make([]string, 0, merr.Len())
			for _, e := range merr.Errors {
				errs = append(errs, e.Error())
			}
			// A failed validation is a data error like any other: it is
			// recorded into the error message so the run settles FAILED.
			return Update{
				Logs:       append(logs, fmt.Sprintf("validate: failed with %d errors", len(errs))),
				Validation: &ValidationResult{Passed: false, Errors: errs},
				ErrMessage: "validation failed: " + strings.Join(errs, "; "),
			}
		}

		return Update{
			Logs:       append(logs, "validate: all files passed"),
			Validation: &ValidationResult{Passed: true},
		}
	}
}
