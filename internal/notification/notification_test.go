package notification

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pray-app/pray_api/internal/logging"
)

func TestLoggerNotifierWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(logging.NewWithWriter(&buf, "info", "json"))

	if err := n.Send(context.Background(), Message{Kind: KindPrayPaid, UserID: 1, PrayID: 9, Body: "paid"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(buf.String(), `"kind":"pray_paid"`) || !strings.Contains(buf.String(), `"pray_id":9`) {
		t.Fatalf("unexpected log output %q", buf.String())
	}
}

func TestNilLoggerNotifierIsNoop(t *testing.T) {
	var n *LoggerNotifier
	if err := n.Send(context.Background(), Message{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_ = r.Send(context.Background(), Message{Kind: KindPrayPaid, PrayID: 1})
	_ = r.Send(context.Background(), Message{Kind: KindPrayPaid, PrayID: 2})
	if got := r.Messages(); len(got) != 2 || got[1].PrayID != 2 {
		t.Fatalf("unexpected messages %+v", got)
	}
}
