package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"BuildType", KeyBuildType, "m", BuildType("m")},
		{"Node", KeyNode, "build/project", Node("build/project")},
		{"Phase", KeyPhase, "setup", Phase("setup")},
		{"Step", KeyStep, "conf-make", Step("conf-make")},
		{"Action", KeyAction, "make -j4", Action("make -j4")},
		{"Plugin", KeyPlugin, "git", Plugin("git")},
		{"Result", KeyResult, "failure", Result("failure")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"URL", KeyURL, "https://x", URL("https://x")},
		{"Revision", KeyRevision, "abc", Revision("abc")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.attrKey, c.attr.Key)
			assert.Equal(t, c.attrVal, c.attr.Value.String())
		})
	}
}

func TestNumericHelpers(t *testing.T) {
	assert.Equal(t, int64(2), ReturnCode(2).Value.Int64())
	assert.InDelta(t, 1500.0, Duration(1500*time.Millisecond).Value.Float64(), 0.001)
}

func TestErrorHelper(t *testing.T) {
	assert.Equal(t, "", Error(nil).Value.String())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
