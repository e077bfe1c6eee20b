package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sardine-ai/go-remote-ini/ini"
)

func loadFile(t *testing.T, path string) *ini.Buffer {
	t.Helper()
	b := ini.New()
	if err := b.LoadFile(path); err != nil {
		t.Fatalf("LoadFile(%s): %v", path, err)
	}
	return b
}

func TestSetCommand(t *testing.T) {
	path := copyTestFile(t)

	out, _, err := runCLI(t, "--file", path, "set", "--section", "new_section", "--key", "ratio", "--value", "3", "--type", "float")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	requireContains(t, out, "Wrote "+path)

	b := loadFile(t, path)
	if f, err := b.GetFloat("new_section", "ratio"); err != nil || f != 3 {
		t.Errorf("GetFloat(new_section, ratio) = %v, %v; want 3, <nil>", f, err)
	}
	if n, err := b.GetInt("04_integers", "key02"); err != nil || n != 42 {
		t.Errorf("existing value lost: GetInt = %v, %v", n, err)
	}

	if _, _, err := runCLI(t, "--file", path, "set", "--section", "04_integers", "--key", "key02", "--value", "7"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if n, err := loadFile(t, path).GetInt("04_integers", "key02"); err != nil || n != 7 {
		t.Errorf("overwritten value = %v, %v; want 7, <nil>", n, err)
	}
}

func TestSetCommandErrors(t *testing.T) {
	path := copyTestFile(t)

	if _, _, err := runCLI(t, "--file", path, "set", "--section", "s", "--key", "k", "--value", "abc", "--type", "int"); err == nil {
		t.Error("set --type int with a non-number succeeded")
	}
	_, _, err := runCLI(t, "--file", path, "set", "--section", "s", "--key", "k", "--value", "a ; b")
	if !errors.Is(err, ini.ErrInvalidValue) {
		t.Errorf("comment in value error = %v; want ErrInvalidValue", err)
	}
	_, _, err = runCLI(t, "--file", path, "set", "--section", "s", "--key", "bad key", "--value", "1")
	if !errors.Is(err, ini.ErrInvalidName) {
		t.Errorf("bad key error = %v; want ErrInvalidName", err)
	}
}

func TestSetCommandRemoteSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[app]\nname = demo\n"))
	}))
	defer srv.Close()

	_, _, err := runCLI(t, "--source", srv.URL+"/app.ini", "set", "--section", "app", "--key", "port", "--value", "80")
	if err == nil {
		t.Fatal("set on a remote source without --output succeeded")
	}
	requireContains(t, err.Error(), "--output")

	output := filepath.Join(t.TempDir(), "app.ini")
	if _, _, err := runCLI(t, "--source", srv.URL+"/app.ini", "set", "--section", "app", "--key", "port", "--value", "80", "--output", output); err != nil {
		t.Fatalf("set --output: %v", err)
	}
	b := loadFile(t, output)
	if s, err := b.GetString("app", "name"); err != nil || s != "demo" {
		t.Errorf("GetString(app, name) = %q, %v", s, err)
	}
	if n, err := b.GetInt("app", "port"); err != nil || n != 80 {
		t.Errorf("GetInt(app, port) = %v, %v", n, err)
	}
}

func TestEraseCommand(t *testing.T) {
	path := copyTestFile(t)

	if _, _, err := runCLI(t, "--file", path, "erase", "--section", "05_floats", "--key", "key01"); err != nil {
		t.Fatalf("erase key: %v", err)
	}
	b := loadFile(t, path)
	if b.HasKey("05_floats", "key01") || !b.HasKey("05_floats", "key02") {
		t.Error("erase --key removed the wrong keys")
	}

	if _, _, err := runCLI(t, "--file", path, "erase", "--section", "06_booleans"); err != nil {
		t.Fatalf("erase section: %v", err)
	}
	if loadFile(t, path).HasSection("06_booleans") {
		t.Error("section still present after erase")
	}

	_, _, err := runCLI(t, "--file", path, "erase", "--section", "06_booleans")
	if !errors.Is(err, ini.ErrSectionNotFound) {
		t.Errorf("erase missing section error = %v; want ErrSectionNotFound", err)
	}
}
