package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestDefaultLoggerIsNopUntilSet(t *testing.T) {
	// Reset via Set(nil) rather than relying on process-start state, since
	// other tests in this package may have already installed a logger.
	Set(nil)
	if Initialised() {
		t.Fatal("expected Initialised() == false before a real logger is set")
	}
	if Logger() == nil {
		t.Fatal("Logger() must never return nil")
	}
}

func TestSetInstallsLogger(t *testing.T) {
	tl := zaptest.NewLogger(t)
	Set(tl)
	if !Initialised() {
		t.Fatal("expected Initialised() == true after Set")
	}
	if Logger() != tl {
		t.Fatal("expected Logger() to return the installed logger")
	}
	Set(nil)
}

func TestSugarDelegatesToLogger(t *testing.T) {
	Set(zap.NewNop())
	if Sugar() == nil {
		t.Fatal("Sugar() must never return nil")
	}
}
