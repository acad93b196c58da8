package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")

	if !called {
		t.Error("custom logger was not called")
	}

	// nil installs a no-op logger; must not panic
	SetLogger(nil)
	Logf("test message")
}

func TestPrefixed(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})

	trackerLog := Prefixed("tracker")
	trackerLog("opened %s", "/dev/ttyUSB0")

	want := "[tracker] opened /dev/ttyUSB0"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
