package health

import (
	"context"
	"errors"
	"testing"
)

type fakeSearchPinger struct{ err error }

func (f fakeSearchPinger) Ping(context.Context, string) error { return f.err }

type fakeBlobPinger struct{ err error }

func (f fakeBlobPinger) Ping(context.Context) error { return f.err }

func TestCheck_AllHealthy(t *testing.T) {
	s := New(fakeSearchPinger{}, "html-index", fakeBlobPinger{})

	report := s.Check(context.Background())
	if report.Status != Healthy {
		t.Errorf("status = %q", report.Status)
	}
	if report.Checks["search"] != CheckOK || report.Checks["storage"] != CheckOK {
		t.Errorf("checks = %v", report.Checks)
	}
}

func TestCheck_SearchDown(t *testing.T) {
	s := New(fakeSearchPinger{err: errors.New("down")}, "html-index", fakeBlobPinger{})

	report := s.Check(context.Background())
	if report.Status != Degraded {
		t.Errorf("status = %q", report.Status)
	}
	if report.Checks["search"] != CheckError {
		t.Errorf("checks = %v", report.Checks)
	}
}

func TestCheck_NoBlobPinger(t *testing.T) {
	s := New(fakeSearchPinger{}, "html-index", nil)

	report := s.Check(context.Background())
	if _, present := report.Checks["storage"]; present {
		t.Error("storage check must be skipped when unconfigured")
	}
	if report.Status != Healthy {
		t.Errorf("status = %q", report.Status)
	}
}
