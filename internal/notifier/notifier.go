// Package notifier is the boundary to the outbound messaging provider.
// The engine builds one Message per client group; the provider's wire
// format stays behind the Notifier interface.
package notifier

import (
	"fmt"
	"strings"

	"github.com/stilistico/salonsched/internal/model"
)

// Entry is one appointment line inside a reminder message.
type Entry struct {
	Start   model.MinuteOfDay
	Service string
}

// Message is the reminder for one client covering all of that client's
// appointments on Date, entries ordered by start time.
type Message struct {
	ClientName string
	Date       model.Date
	Entries    []Entry
}

func (m Message) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, a reminder of your appointments on %s:", m.ClientName, m.Date)
	for _, e := range m.Entries {
		fmt.Fprintf(&b, "\n- %s %s", e.Start, e.Service)
	}
	return b.String()
}
