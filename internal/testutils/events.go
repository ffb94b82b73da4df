package testutils

import (
	"fmt"
	"strings"

	"github.com/srg/rayq/internal/evtype"
)

// FormatEvents renders a sequence of events as one line per event
// ("kind(source_id) info=N"), the shape package tests diff against via
// TextAsserter to assert an exact take() order (spec testable property 2).
func FormatEvents(events []evtype.Event) string {
	var b strings.Builder
	for _, e := range events {
		var id int32
		if e.Source != nil {
			id = e.Source.ID()
		}
		fmt.Fprintf(&b, "%s(%d) info=%d\n", e.Kind.String(), id, e.Info)
	}
	return b.String()
}
