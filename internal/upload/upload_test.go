package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPhotoName(t *testing.T) {
	for _, tc := range []struct {
		filename string
		want     string
	}{
		{"campus.jpg", "photo_b1.jpg"},
		{"Campus.PNG", "photo_b1.png"},
		{`C:\Users\me\pic.jpeg`, "photo_b1.jpeg"},
		{"../../etc/passwd", "photo_b1"},
		{"noext", "photo_b1"},
		{"weird.j p g", "photo_b1"},
	} {
		if got := PhotoName("b1", tc.filename); got != tc.want {
			t.Errorf("PhotoName(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestCheckImage(t *testing.T) {
	for _, tc := range []struct {
		name        string
		contentType string
		size        int64
		wantMsg     string
	}{
		{name: "OK", contentType: "image/jpeg", size: 100},
		{name: "AtLimit", contentType: "image/png", size: 1000},
		{name: "Empty", contentType: "image/png", size: 0, wantMsg: "Please upload a file"},
		{name: "NotImage", contentType: "application/pdf", size: 10, wantMsg: "Please upload an image file"},
		{name: "TooLarge", contentType: "image/gif", size: 1001, wantMsg: "Please upload an image less than 1000"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckImage(tc.contentType, tc.size, 1000)
			if tc.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidFile) {
				t.Fatalf("got %v, want ErrInvalidFile", err)
			}
			if got := Message(err); got != tc.wantMsg {
				t.Errorf("Message = %q, want %q", got, tc.wantMsg)
			}
		})
	}
}

func TestLocalDestination_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	dest, err := NewLocalDestination(dir)
	if err != nil {
		t.Fatalf("NewLocalDestination: %v", err)
	}

	if err := dest.Save(context.Background(), "photo_b1.jpg", "image/jpeg", strings.NewReader("jpegdata")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "photo_b1.jpg"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(got) != "jpegdata" {
		t.Errorf("content = %q", got)
	}

	// Saving again replaces the photo and leaves no temp files behind.
	if err := dest.Save(context.Background(), "photo_b1.jpg", "image/jpeg", strings.NewReader("v2")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1", len(entries))
	}
}

func TestLocalDestination_RejectsPaths(t *testing.T) {
	dest, err := NewLocalDestination(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"../x.jpg", "a/b.jpg", ".."} {
		if err := dest.Save(context.Background(), name, "image/jpeg", strings.NewReader("x")); !errors.Is(err, ErrInvalidFile) {
			t.Errorf("Save(%q) = %v, want ErrInvalidFile", name, err)
		}
	}
}

func TestS3Destination_Save(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "none"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "none"))

	type put struct {
		method, path, contentType string
		body                      string
	}
	puts := make(chan put, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		puts <- put{r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(body)}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dest, err := NewS3Destination(context.Background(), "photos", "uploads/", "us-east-1", srv.URL)
	if err != nil {
		t.Fatalf("NewS3Destination: %v", err)
	}
	if err := dest.Save(context.Background(), "photo_b1.png", "image/png", strings.NewReader("png")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := <-puts
	if got.method != http.MethodPut || got.path != "/photos/uploads/photo_b1.png" {
		t.Errorf("request = %s %s", got.method, got.path)
	}
	if got.contentType != "image/png" {
		t.Errorf("content type = %q", got.contentType)
	}
	if !strings.Contains(got.body, "png") {
		t.Errorf("body = %q", got.body)
	}
}
