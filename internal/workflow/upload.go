package workflow

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"sync"
)

// MaxUploadSize bounds the raw size of an uploaded file.
const MaxUploadSize = 10 << 20

const readChunk = 32 << 10

// Upload is one file upload interaction for a PDF assessment. Converting the
// file to base64 can be cancelled by dismissing the upload; a dismissed or
// replaced upload never yields a result.
type Upload struct {
	app    *Application
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	filename string
	body     string
	ready    bool
}

// BeginUpload opens an upload session for app, replacing and cancelling any
// previous one.
func (f *CandidateFlow) BeginUpload(ctx context.Context, app *Application) (*Upload, error) {
	if !app.Assessment.IsPDF() {
		return nil, ErrUnsupportedResponse
	}

	uctx, cancel := context.WithCancel(ctx)
	u := &Upload{app: app, ctx: uctx, cancel: cancel}

	f.mu.Lock()
	defer f.mu.Unlock()

	if previous, ok := f.uploads[app.ID]; ok {
		previous.cancel()
	}
	f.uploads[app.ID] = u

	return u, nil
}

// DismissUpload cancels the live upload of app, if any.
func (f *CandidateFlow) DismissUpload(app *Application) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u, ok := f.uploads[app.ID]; ok {
		u.cancel()
		delete(f.uploads, app.ID)
	}
}

// Convert reads the file and base64 encodes it. It returns ErrStaleUpload if
// the upload is dismissed before or while converting.
func (u *Upload) Convert(filename string, r io.Reader) error {
	if err := u.ctx.Err(); err != nil {
		return ErrStaleUpload
	}

	var sb strings.Builder
	enc := base64.NewEncoder(base64.StdEncoding, &sb)

	buf := make([]byte, readChunk)
	var total int64
	for {
		if err := u.ctx.Err(); err != nil {
			return ErrStaleUpload
		}

		n, err := r.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > MaxUploadSize {
				return ErrFileTooLarge
			}
			enc.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}
	enc.Close()

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ctx.Err() != nil {
		return ErrStaleUpload
	}

	u.filename = strings.TrimSpace(filename)
	u.body = sb.String()
	u.ready = true
	return nil
}

// Dismiss cancels the conversion and discards any result.
func (u *Upload) Dismiss() {
	u.cancel()
}

// Ready reports whether a converted file is available.
func (u *Upload) Ready() bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.ready && u.ctx.Err() == nil
}

func (u *Upload) result() (string, string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ctx.Err() != nil {
		return "", "", ErrStaleUpload
	}
	if !u.ready {
		return "", "", ErrUploadNotReady
	}
	return u.filename, u.body, nil
}
