package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdLoggerFormatsKeyValues(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLogger(&buf, "")

	l.Info("sent", "cmd", "GPRS_PDP_CONTEXT", "id", 3)
	assert.Contains(t, buf.String(), "[INFO] sent cmd=GPRS_PDP_CONTEXT id=3")

	buf.Reset()
	l.Warn("odd", "dangling")
	assert.Contains(t, buf.String(), "odd EXTRA=dangling")
}

func TestWithFieldsPrependsAndMerges(t *testing.T) {
	var buf bytes.Buffer
	base := NewStdLogger(&buf, "")

	l := WithFields(WithFields(base, "channel", "fmt"), "cid", 1)
	l.Error("drop", "reason", "unknown")

	line := buf.String()
	assert.True(t, strings.Index(line, "channel=fmt") < strings.Index(line, "cid=1"))
	assert.True(t, strings.Index(line, "cid=1") < strings.Index(line, "reason=unknown"))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := NewStdLogger(nil, "")
	assert.Equal(t, l, OrNop(l))
}
