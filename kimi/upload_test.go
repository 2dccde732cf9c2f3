package kimi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muran-prog/kimi-go/core"
)

// uploadServer emulates the three upload endpoints plus the storage target.
type uploadServer struct {
	*httptest.Server

	transferred   atomic.Int64
	parseCalls    atomic.Int32
	parseResponse string

	failNegotiate bool
	failTransfer  bool
	failRegister  bool
}

func newUploadServer(t *testing.T) *uploadServer {
	t.Helper()
	us := &uploadServer{parseResponse: `[{"id":"file-123","status":"parsed"}]`}

	mux := http.NewServeMux()
	mux.HandleFunc("/pre-sign-url", func(w http.ResponseWriter, r *http.Request) {
		if us.failNegotiate {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var req preSignRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(preSignResponse{
			URL:        us.URL + "/storage/" + req.Name,
			ObjectName: "obj/" + req.Name,
			FileID:     "pre-" + req.Name,
		})
	})
	mux.HandleFunc("/storage/", func(w http.ResponseWriter, r *http.Request) {
		if us.failTransfer {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		n, _ := io.Copy(io.Discard, r.Body)
		us.transferred.Store(n)
	})
	mux.HandleFunc("/file", func(w http.ResponseWriter, r *http.Request) {
		if us.failRegister {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var req registerFileRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ObjectName == "" {
			t.Error("register request missing object_name")
		}
		_ = json.NewEncoder(w).Encode(registerFileResponse{
			ID:         "file-123",
			Name:       req.Name,
			ObjectName: req.ObjectName,
			Type:       req.Type,
		})
	})
	mux.HandleFunc("/file/parse_process", func(w http.ResponseWriter, r *http.Request) {
		us.parseCalls.Add(1)
		_, _ = w.Write([]byte(us.parseResponse))
	})

	us.Server = httptest.NewServer(mux)
	t.Cleanup(us.Close)
	return us
}

func tempFileWithSize(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := writeFile(t, path, strings.Repeat("x", size)); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadFileHappyPath(t *testing.T) {
	server := newUploadServer(t)
	engine := newTestEngine(t, server.URL)
	path := tempFileWithSize(t, "notes.txt", 48)

	file, err := engine.UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}

	if file.ID != "file-123" {
		t.Errorf("ID = %q, want file-123", file.ID)
	}
	if file.Size != 48 {
		t.Errorf("Size = %d, want 48", file.Size)
	}
	if got := server.transferred.Load(); got != 48 {
		t.Errorf("transferred %d bytes, want 48", got)
	}
	if file.Name != "notes.txt" {
		t.Errorf("Name = %q, want notes.txt", file.Name)
	}
	if !strings.HasPrefix(file.ContentType, "text/plain") {
		t.Errorf("ContentType = %q, want text/plain", file.ContentType)
	}
	if server.parseCalls.Load() == 0 {
		t.Error("document upload skipped the parse wait")
	}
}

func TestUploadFileImageSkipsParse(t *testing.T) {
	server := newUploadServer(t)
	engine := newTestEngine(t, server.URL)
	path := tempFileWithSize(t, "pic.png", 16)

	file, err := engine.UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if file.ID != "file-123" {
		t.Errorf("ID = %q", file.ID)
	}
	if server.parseCalls.Load() != 0 {
		t.Error("image upload should not wait for document parsing")
	}
}

func TestUploadFileMissingLocalFile(t *testing.T) {
	server := newUploadServer(t)
	engine := newTestEngine(t, server.URL)

	file, err := engine.UploadFile(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	if !errors.Is(err, core.ErrFileUpload) {
		t.Fatalf("UploadFile() error = %v, want ErrFileUpload", err)
	}
	if file != nil {
		t.Error("got a handle despite failure")
	}

	var ce *core.Error
	if !errors.As(err, &ce) || ce.Phase != core.PhaseLocalRead {
		t.Errorf("Phase = %v, want local_read", ce.Phase)
	}
}

func TestUploadFileNegotiateFailure(t *testing.T) {
	server := newUploadServer(t)
	server.failNegotiate = true
	engine := newTestEngine(t, server.URL)
	path := tempFileWithSize(t, "notes.txt", 8)

	file, err := engine.UploadFile(context.Background(), path)
	if !errors.Is(err, core.ErrFileUpload) {
		t.Fatalf("UploadFile() error = %v, want ErrFileUpload", err)
	}
	if file != nil {
		t.Error("got a handle despite negotiate failure")
	}

	var ce *core.Error
	if !errors.As(err, &ce) || ce.Phase != core.PhaseNegotiate {
		t.Errorf("Phase = %v, want negotiate", ce.Phase)
	}
	if ce.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", ce.Status)
	}
}

func TestUploadFileTransferFailure(t *testing.T) {
	server := newUploadServer(t)
	server.failTransfer = true
	engine := newTestEngine(t, server.URL)
	path := tempFileWithSize(t, "notes.txt", 8)

	file, err := engine.UploadFile(context.Background(), path)
	if !errors.Is(err, core.ErrFileUpload) {
		t.Fatalf("UploadFile() error = %v, want ErrFileUpload", err)
	}
	if file != nil {
		t.Error("got a handle despite transfer failure")
	}

	var ce *core.Error
	if !errors.As(err, &ce) || ce.Phase != core.PhaseTransfer {
		t.Errorf("Phase = %v, want transfer", ce.Phase)
	}
}

func TestUploadFileRegisterFailure(t *testing.T) {
	server := newUploadServer(t)
	server.failRegister = true
	engine := newTestEngine(t, server.URL)
	path := tempFileWithSize(t, "notes.txt", 8)

	file, err := engine.UploadFile(context.Background(), path)
	if !errors.Is(err, core.ErrFileUpload) {
		t.Fatalf("UploadFile() error = %v, want ErrFileUpload", err)
	}
	if file != nil {
		t.Error("got a handle despite register failure")
	}

	var ce *core.Error
	if !errors.As(err, &ce) || ce.Phase != core.PhaseRegister {
		t.Errorf("Phase = %v, want register", ce.Phase)
	}
}

func TestUploadFileParseFailure(t *testing.T) {
	server := newUploadServer(t)
	server.parseResponse = `[{"id":"file-123","status":"failed"}]`
	engine := newTestEngine(t, server.URL)
	path := tempFileWithSize(t, "notes.txt", 8)

	_, err := engine.UploadFile(context.Background(), path)
	if !errors.Is(err, core.ErrFileUpload) {
		t.Fatalf("UploadFile() error = %v, want ErrFileUpload", err)
	}

	var ce *core.Error
	if !errors.As(err, &ce) || ce.Phase != core.PhaseProcess {
		t.Errorf("Phase = %v, want process", ce.Phase)
	}
}

func TestUploadFileParsePendingStillSucceeds(t *testing.T) {
	restoreInterval, restoreAttempts := parsePollInterval, parsePollAttempts
	parsePollInterval, parsePollAttempts = time.Millisecond, 2
	defer func() { parsePollInterval, parsePollAttempts = restoreInterval, restoreAttempts }()

	server := newUploadServer(t)
	server.parseResponse = `[{"id":"file-123","status":"pending"}]`
	engine := newTestEngine(t, server.URL)
	path := tempFileWithSize(t, "notes.txt", 8)

	file, err := engine.UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if file == nil || file.ID != "file-123" {
		t.Fatalf("file = %+v, want registered handle", file)
	}
	if server.parseCalls.Load() != 2 {
		t.Errorf("parse polled %d times, want 2", server.parseCalls.Load())
	}
}

func TestUploadFilesConcurrent(t *testing.T) {
	server := newUploadServer(t)
	engine := newTestEngine(t, server.URL)

	paths := []string{
		tempFileWithSize(t, "a.png", 4),
		tempFileWithSize(t, "b.png", 5),
		tempFileWithSize(t, "c.png", 6),
	}

	files, err := engine.UploadFiles(context.Background(), paths...)
	if err != nil {
		t.Fatalf("UploadFiles() error = %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}
	for i, f := range files {
		if f == nil {
			t.Errorf("files[%d] = nil", i)
		}
	}
}

func TestUploadFilesFirstFailureWins(t *testing.T) {
	server := newUploadServer(t)
	engine := newTestEngine(t, server.URL)

	paths := []string{
		tempFileWithSize(t, "a.png", 4),
		filepath.Join(t.TempDir(), "absent.png"),
	}

	files, err := engine.UploadFiles(context.Background(), paths...)
	if !errors.Is(err, core.ErrFileUpload) {
		t.Fatalf("UploadFiles() error = %v, want ErrFileUpload", err)
	}
	if files != nil {
		t.Error("got partial results despite failure")
	}
}
