package obs

import (
	"bytes"
	"context"
	"errors"
	"street-screens-service/internal/platform/logging"
	"strings"
	"testing"
)

func TestTimeLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { logging.Init(logging.Config{}) })

	ctx := logging.ContextWithRequestID(context.Background(), "abc")

	run := func() (err error) {
		defer Time(ctx, "list screens")(&err)
		return errors.New("boom")
	}
	_ = run()

	out := buf.String()
	for _, want := range []string{`"op":"list screens"`, `"error":"boom"`, `"request_id":"abc"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
}

func TestTimeNilErrPointer(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { logging.Init(logging.Config{}) })

	Time(context.Background(), "noop")(nil)

	if !strings.Contains(buf.String(), `"message":"operation done"`) {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}
