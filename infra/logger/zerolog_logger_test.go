package logger

import "testing"

func TestNewZerologLogger(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := New("test")
	if l == nil {
		t.Fatal("expected logger")
	}
	l.Infof("hello %s", "world")
	l.Debugw("fields", map[string]any{"a": 1})
}

func TestSetGlobalLevel(t *testing.T) {
	if err := SetGlobalLevel("debug"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	if err := SetGlobalLevel("nope"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
