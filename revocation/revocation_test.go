package revocation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/macaroon/fingerprint"
)

func testFingerprint(t *testing.T, data string) string {
	t.Helper()
	fp := fingerprint.String([]byte(data))
	if fp == "" {
		t.Fatal("empty fingerprint")
	}
	return fp
}

func TestRevokeAndCheck(t *testing.T) {
	l := NewList()
	fp1 := testFingerprint(t, "token-1")
	fp2 := testFingerprint(t, "token-2")

	if err := l.Revoke(fp1); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !l.IsRevoked(fp1) {
		t.Error("fp1 should be revoked")
	}
	if l.IsRevoked(fp2) {
		t.Error("fp2 should not be revoked")
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1", l.Len())
	}
}

func TestRevokeRejectsJunk(t *testing.T) {
	l := NewList()
	if err := l.Revoke("not a fingerprint"); err == nil {
		t.Fatal("expected junk to be rejected")
	}
	if l.Len() != 0 {
		t.Error("junk entry was stored")
	}
}

func TestLoadSkipsCommentsAndBlanks(t *testing.T) {
	fp1 := testFingerprint(t, "token-1")
	fp2 := testFingerprint(t, "token-2")
	text := "# revoked 2026-08-01\n" + fp1 + "\n\n  " + fp2 + "  \n"

	l := NewList()
	if err := l.Load(strings.NewReader(text)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !l.IsRevoked(fp1) || !l.IsRevoked(fp2) {
		t.Error("loaded fingerprints missing")
	}
	if l.Len() != 2 {
		t.Errorf("Len = %d, want 2", l.Len())
	}
}

func TestLoadReportsBadLine(t *testing.T) {
	l := NewList()
	err := l.Load(strings.NewReader(testFingerprint(t, "ok") + "\ngarbage\n"))
	if err == nil {
		t.Fatal("expected the bad line to abort the load")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error does not name the line: %v", err)
	}
}

func TestSaveLoadFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "revoked.txt")

	l := NewList()
	fps := []string{
		testFingerprint(t, "token-1"),
		testFingerprint(t, "token-2"),
		testFingerprint(t, "token-3"),
	}
	for _, fp := range fps {
		if err := l.Revoke(fp); err != nil {
			t.Fatalf("Revoke: %v", err)
		}
	}
	if err := l.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("file mode %v, want 0600", info.Mode().Perm())
	}

	back, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	for _, fp := range fps {
		if !back.IsRevoked(fp) {
			t.Errorf("fingerprint %s lost in the round trip", fp)
		}
	}
	if back.Len() != len(fps) {
		t.Errorf("Len = %d, want %d", back.Len(), len(fps))
	}
}
