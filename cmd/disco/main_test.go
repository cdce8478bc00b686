package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/broady/disco"
	"github.com/broady/disco/testutil"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cli := &CLI{}
	parser, err := newParser(cli, &stdout, &stderr)
	if err != nil {
		t.Fatalf("newParser: %v", err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return stdout.String(), stderr.String(), err
	}
	err = ctx.Run(&cli.Globals)
	return stdout.String(), stderr.String(), err
}

// writeDescription saves the Drive fixture as JSON and returns its path.
func writeDescription(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(testutil.DriveDescription())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "drive.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "0.1.0") && !strings.HasPrefix(out, "v") {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestTreeCommand(t *testing.T) {
	out, _, err := run(t, "tree", "-d", writeDescription(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"drive v2 (https://www.googleapis.com/drive/v2/)",
		"files/",
		"permissions/",
		"about/",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	var listLine string
	for line := range strings.SplitSeq(out, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "list ") && strings.Contains(line, "files") && !strings.Contains(line, "permissions") {
			listLine = line
			break
		}
	}
	if fields := strings.Fields(listLine); !reflect.DeepEqual(fields, []string{"list", "GET", "files"}) {
		t.Errorf("expected files.list line, got %q", listLine)
	}
}

func TestTreeCommand_Prefix(t *testing.T) {
	out, _, err := run(t, "tree", "-d", writeDescription(t), "files.permissions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "about/") {
		t.Errorf("expected only the permissions subtree, got:\n%s", out)
	}

	_, _, err = run(t, "tree", "-d", writeDescription(t), "nope")
	if err == nil || !strings.Contains(err.Error(), `"nope"`) {
		t.Errorf("expected unknown path error, got %v", err)
	}
}

func TestCallCommand(t *testing.T) {
	var got *http.Request
	srv := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"kind":"drive#fileList","items":[]}`))
	}))

	out, _, err := run(t, "call", "files.list",
		"-d", writeDescription(t),
		"--root-url", srv.URL+"/",
		"--token", "tok",
		"--api-key", "k",
		"-p", "q=title contains 'a=b'",
		"-p", "spaces=drive",
		"-p", "spaces=appDataFolder",
		"-H", "X-Trace=1",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got == nil {
		t.Fatal("expected a request")
	}
	if got.URL.Path != "/drive/v2/files" {
		t.Errorf("expected path /drive/v2/files, got %s", got.URL.Path)
	}
	q := got.URL.Query()
	if q.Get("q") != "title contains 'a=b'" {
		t.Errorf("expected q to keep '=' in its value, got %q", q.Get("q"))
	}
	if spaces := q["spaces"]; !reflect.DeepEqual(spaces, []string{"drive", "appDataFolder"}) {
		t.Errorf("expected repeated spaces, got %v", spaces)
	}
	if q.Get("key") != "k" {
		t.Errorf("expected api key, got %q", q.Get("key"))
	}
	if h := got.Header.Get("Authorization"); h != "Bearer tok" {
		t.Errorf("expected bearer token, got %q", h)
	}
	if h := got.Header.Get("X-Trace"); h != "1" {
		t.Errorf("expected X-Trace header, got %q", h)
	}
	if got.Header.Get("X-Request-Id") == "" {
		t.Error("expected a request id")
	}
	if ua := got.Header.Get("User-Agent"); !strings.HasPrefix(ua, "disco-cli/") {
		t.Errorf("expected disco-cli user agent, got %q", ua)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	if payload["kind"] != "drive#fileList" {
		t.Errorf("expected kind drive#fileList, got %v", payload["kind"])
	}
}

func TestCallCommand_Body(t *testing.T) {
	var body map[string]any
	srv := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"id":"1"}`))
	}))

	bodyFile := filepath.Join(t.TempDir(), "file.json")
	if err := os.WriteFile(bodyFile, []byte(`{"title":"report"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := run(t, "call", "files.insert",
		"-d", writeDescription(t),
		"--root-url", srv.URL+"/",
		"--body", "@"+bodyFile,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["title"] != "report" {
		t.Errorf("expected title in body, got %v", body)
	}
}

func TestCallCommand_Failure(t *testing.T) {
	srv := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"File not found: abc"}}`))
	}))

	_, stderr, err := run(t, "call", "files.get",
		"-d", writeDescription(t),
		"--root-url", srv.URL+"/",
		"-p", "fileId=abc",
	)
	var f *disco.Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *disco.Failure, got %v", err)
	}
	if f.Code != disco.CodeNotFound {
		t.Errorf("expected code %s, got %s", disco.CodeNotFound, f.Code)
	}
	if !strings.Contains(stderr, "File not found: abc") {
		t.Errorf("expected response body on stderr, got %q", stderr)
	}
}

func TestCallCommand_Errors(t *testing.T) {
	desc := writeDescription(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown method", []string{"call", "files.nope", "-d", desc}, `no method "files.nope"`},
		{"namespace", []string{"call", "files", "-d", desc}, `no method "files"`},
		{"bad param", []string{"call", "files.list", "-d", desc, "-p", "novalue"}, "expected name=value"},
		{"bad body", []string{"call", "files.insert", "-d", desc, "--body", "{"}, "invalid body"},
		{"missing required", []string{"call", "files.get", "-d", desc}, "fileId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestNoDescription(t *testing.T) {
	t.Setenv("DISCO_DESCRIPTION", "")
	_, _, err := run(t, "tree")
	if err == nil || !strings.Contains(err.Error(), "no description") {
		t.Errorf("expected no description error, got %v", err)
	}
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
		want  disco.Params
	}{
		{"empty", nil, disco.Params{}},
		{"single", []string{"q=x"}, disco.Params{"q": "x"}},
		{"empty value", []string{"q="}, disco.Params{"q": ""}},
		{"repeated", []string{"s=a", "s=b", "s=c"}, disco.Params{"s": []any{"a", "b", "c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.pairs)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
