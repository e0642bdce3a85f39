package intent

import "context"

// retry calls fn up to attempts times and returns the last error.
// A cancelled context stops the loop early.
func retry(ctx context.Context, attempts int, fn func(attempt int) error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
