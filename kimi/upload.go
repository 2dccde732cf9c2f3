package kimi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muran-prog/kimi-go/core"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// parsePollInterval and parsePollAttempts bound the best-effort wait for the
// vendor's document parsing step after registration.
var (
	parsePollInterval = 2 * time.Second
	parsePollAttempts = 5
)

// UploadFile uploads a local file for use as conversation context. The
// pipeline has three phases, each a distinct network call:
//
//  1. Negotiate: request an upload slot (pre-signed URL) for the file.
//  2. Transfer: stream the file's bytes to the slot.
//  3. Register: tell the API the transfer finished; yields the permanent ID.
//
// The operation is all-or-nothing: a failure in any phase yields a classified
// error with the failing phase recorded, never a partial handle. Phases run
// strictly in order within one call; distinct calls may run concurrently.
func (e *Engine) UploadFile(ctx context.Context, path string) (*core.UploadedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &core.Error{
			Op:      "upload_file",
			Phase:   core.PhaseLocalRead,
			Message: err.Error(),
			Err:     core.ErrFileUpload,
		}
	}

	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))
	action := "file"
	if imageExtensions[ext] {
		action = "image"
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Phase 1: negotiate an upload slot.
	var slot preSignResponse
	if err := e.doJSON(ctx, "upload_negotiate", http.MethodPost, "/pre-sign-url",
		preSignRequest{Name: name, Action: action}, &slot); err != nil {
		return nil, uploadError(core.PhaseNegotiate, err)
	}
	if slot.URL == "" {
		return nil, uploadError(core.PhaseNegotiate, fmt.Errorf("no upload target in pre-sign response"))
	}

	// Phase 2: transfer the bytes.
	if err := e.transferFile(ctx, path, info.Size(), contentType, slot.URL); err != nil {
		return nil, uploadError(core.PhaseTransfer, err)
	}

	// Phase 3: register the completed transfer.
	var reg registerFileResponse
	if err := e.doJSON(ctx, "upload_register", http.MethodPost, "/file",
		registerFileRequest{
			Name:       name,
			ObjectName: slot.ObjectName,
			Type:       action,
			FileID:     slot.FileID,
		}, &reg); err != nil {
		return nil, uploadError(core.PhaseRegister, err)
	}
	if reg.ID == "" {
		return nil, uploadError(core.PhaseRegister, fmt.Errorf("no file id in register response"))
	}

	// Documents go through a server-side parse step before they are usable
	// as context. Wait for it, best effort: a slow parse is not a failure,
	// but a failed parse or a failed poll is.
	if action == "file" {
		if err := e.waitForParse(ctx, reg.ID); err != nil {
			return nil, uploadError(core.PhaseProcess, err)
		}
	}

	return &core.UploadedFile{
		ID:          reg.ID,
		Name:        name,
		Size:        info.Size(),
		ContentType: contentType,
	}, nil
}

// transferFile streams the file's bytes to the upload slot. The file handle
// is scoped to this call and closed on every exit path.
func (e *Engine) transferFile(ctx context.Context, path string, size int64, contentType, target string) error {
	const op = "upload_transfer"

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	req, err := e.newRequest(ctx, http.MethodPut, target, f)
	if err != nil {
		return newNetworkError(op, err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	resp, err := e.client.Do(req)
	if err != nil {
		return newNetworkError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		return normalizeError(op, resp.StatusCode, respBody)
	}
	return nil
}

// waitForParse polls the parse-process endpoint until the file reports
// parsed, a bounded number of times. Running out of attempts is not an
// error; a reported failure or an HTTP failure is.
func (e *Engine) waitForParse(ctx context.Context, fileID string) error {
	const op = "parse_process"

	for attempt := 0; attempt < parsePollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(parsePollInterval):
			}
		}

		status, err := e.parseStatus(ctx, fileID)
		if err != nil {
			return err
		}
		switch {
		case strings.Contains(status, `"status":"parsed"`):
			return nil
		case strings.Contains(status, `"status":"failed"`):
			return &core.Error{
				Op:      op,
				Message: "server failed to parse file " + fileID,
				RawBody: status,
				Err:     core.ErrAPI,
			}
		}
	}
	return nil
}

func (e *Engine) parseStatus(ctx context.Context, fileID string) (string, error) {
	const op = "parse_process"

	body, err := jsonBody(parseProcessRequest{IDs: []string{fileID}})
	if err != nil {
		return "", newDecodeError(op, err, nil)
	}

	req, err := e.newRequest(ctx, http.MethodPost, "/file/parse_process", body)
	if err != nil {
		return "", newNetworkError(op, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", newNetworkError(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", newNetworkError(op, err)
	}
	if resp.StatusCode >= 400 {
		return "", normalizeError(op, resp.StatusCode, respBody)
	}
	return string(respBody), nil
}

func jsonBody(in any) (io.Reader, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(in); err != nil {
		return nil, err
	}
	return &buf, nil
}
