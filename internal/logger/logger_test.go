package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestBuild_StampsComponentAndContext(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "debug", Component: "moulinette-server"}, &buf)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithDepartment(ctx, "44")
	FromContext(ctx, &zl).Info().Msg("evaluation started")

	out := buf.String()
	for _, want := range []string{`"component":"moulinette-server"`, `"request_id":"req-1"`, `"department":"44"`, "evaluation started"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}

func TestNewSlog_BridgesLevelsGroupsAndDurations(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "info"}, &buf)
	sl := NewSlog(&zl)

	sl.Debug("dropped below the zerolog level")
	sl.WithGroup("reload").Warn("slow reload", "elapsed", 1500*time.Millisecond)

	out := buf.String()
	if strings.Contains(out, "dropped below") {
		t.Errorf("debug record should be gated: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, "slow reload") {
		t.Errorf("warn record missing: %s", out)
	}
	if !strings.Contains(out, `"reload.elapsed":1500`) {
		t.Errorf("group prefix or duration field missing: %s", out)
	}
}

func TestNewID_Unique(t *testing.T) {
	if NewID() == NewID() {
		t.Fatal("two ids should differ")
	}
}
