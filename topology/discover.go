package topology

import (
	"errors"

	"boosttester/constants"
	"boosttester/debug"
)

// Discover queries e and builds the model. Enumeration failure is not
// fatal: it is logged and the model carries zeroed counts, which makes the
// orchestrator skip the stress loop.
func Discover(e Enumerator, id Identity) *Model {
	records, err := Query(e, constants.EnumerateAttempts)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			debug.DropWarn("TOPOLOGY", "enumeration unavailable, continuing with zeroed counts", "err", err)
		} else {
			debug.DropError("TOPOLOGY", err)
		}
		records = nil
	}

	m := Build(id, Collect(records))
	for _, w := range m.Warnings {
		debug.DropWarn("TOPOLOGY", w)
	}
	return m
}
