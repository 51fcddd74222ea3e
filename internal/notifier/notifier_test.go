package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stilistico/salonsched/internal/model"
)

func TestMessageBody(t *testing.T) {
	msg := Message{
		ClientName: "Enea Muja",
		Date:       model.Date{Year: 2025, Month: time.July, Day: 18},
		Entries: []Entry{
			{Start: 10 * 60, Service: "Taglio"},
			{Start: 20*60 + 15, Service: "Piega"},
		},
	}

	body := msg.Body()
	if !strings.Contains(body, "Enea Muja") {
		t.Fatalf("body must carry the client name: %q", body)
	}
	if !strings.Contains(body, "2025-07-18") {
		t.Fatalf("body must carry the date: %q", body)
	}
	if !strings.Contains(body, "10:00 Taglio") || !strings.Contains(body, "20:15 Piega") {
		t.Fatalf("body must list each appointment: %q", body)
	}
	if strings.Index(body, "10:00") > strings.Index(body, "20:15") {
		t.Fatalf("entries must appear in order: %q", body)
	}
}
