package imageservice

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/jo-hoe/gardengallery/internal/transport"
)

type recordingDoer struct {
	requests  []transport.Request
	responses []transport.Response
}

func (d *recordingDoer) Do(_ context.Context, request transport.Request) transport.Response {
	d.requests = append(d.requests, request)
	if len(d.responses) == 0 {
		return transport.Response{Status: http.StatusOK, Body: []byte(`{}`)}
	}
	response := d.responses[0]
	d.responses = d.responses[1:]
	return response
}

func ok(body string) transport.Response {
	return transport.Response{Status: http.StatusOK, Body: []byte(body)}
}

func memFile(name, contentType, content string) UploadFile {
	return UploadFile{
		Name:        name,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestListByOwner_WireFormat(t *testing.T) {
	doer := &recordingDoer{responses: []transport.Response{
		ok(`[{"id":1,"ownerId":5,"isMain":true,"imageUrl":"https://cdn/x.png"},{"id":2,"ownerId":5,"isMain":false}]`),
	}}
	service := NewService(doer, true)

	images, err := service.ListByOwner(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListByOwner returned error: %v", err)
	}
	if len(images) != 2 || images[0].ID != 1 || !images[0].IsMain {
		t.Fatalf("unexpected images: %+v", images)
	}

	request := doer.requests[0]
	if request.Method != http.MethodGet || request.Path != "/images/by-owner/5" {
		t.Errorf("unexpected request %s %s", request.Method, request.Path)
	}
	if got := request.Query.Get("includeImageData"); got != "true" {
		t.Errorf("expected includeImageData=true, got '%s'", got)
	}
}

func TestListByOwner_MalformedBody(t *testing.T) {
	doer := &recordingDoer{responses: []transport.Response{ok(`{not json`)}}
	_, err := NewService(doer, false).ListByOwner(context.Background(), 1)
	if transport.KindOf(err) != transport.KindMalformed {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestGetMain(t *testing.T) {
	doer := &recordingDoer{responses: []transport.Response{
		ok(`{"id":3,"ownerId":9,"isMain":true}`),
		{Status: http.StatusNotFound, Err: &transport.Error{Kind: transport.KindValidation, Status: http.StatusNotFound}},
	}}
	service := NewService(doer, false)

	main, err := service.GetMain(context.Background(), 9)
	if err != nil || main == nil || main.ID != 3 {
		t.Fatalf("expected main image 3, got %+v (err %v)", main, err)
	}
	if doer.requests[0].Path != "/images/by-owner/9/main" {
		t.Errorf("unexpected path %s", doer.requests[0].Path)
	}
	if got := doer.requests[0].Query.Get("includeImageData"); got != "false" {
		t.Errorf("expected includeImageData=false, got '%s'", got)
	}

	main, err = service.GetMain(context.Background(), 9)
	if err != nil {
		t.Fatalf("expected no error when owner has no main image, got %v", err)
	}
	if main != nil {
		t.Errorf("expected nil main image, got %+v", main)
	}
}

func TestDeleteAndSetAsMain_WireFormat(t *testing.T) {
	doer := &recordingDoer{responses: []transport.Response{
		{Status: http.StatusNoContent},
		ok(`{"id":4,"isMain":true}`),
	}}
	service := NewService(doer, false)

	if err := service.Delete(context.Background(), 4); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := service.SetAsMain(context.Background(), 4); err != nil {
		t.Fatalf("SetAsMain returned error: %v", err)
	}

	if r := doer.requests[0]; r.Method != http.MethodDelete || r.Path != "/images/4" || r.Body != nil {
		t.Errorf("unexpected delete request: %+v", r)
	}
	r := doer.requests[1]
	if r.Method != http.MethodPut || r.Path != "/images/4/set-as-main" {
		t.Errorf("unexpected set-as-main request %s %s", r.Method, r.Path)
	}
	if string(r.Body) != "{}" || r.ContentType != "application/json" {
		t.Errorf("expected empty JSON body, got '%s' (%s)", string(r.Body), r.ContentType)
	}
}

func TestDelete_PropagatesTaggedError(t *testing.T) {
	failure := &transport.Error{Kind: transport.KindServer, Status: 500, Message: "db down"}
	doer := &recordingDoer{responses: []transport.Response{{Status: 500, Err: failure}}}

	err := NewService(doer, false).Delete(context.Background(), 1)
	if transport.KindOf(err) != transport.KindServer {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestAddAndUpdate(t *testing.T) {
	doer := &recordingDoer{responses: []transport.Response{
		ok(`{"id":10,"ownerId":2,"isMain":false,"imageUrl":"https://cdn/a.jpg"}`),
		ok(`{"id":10,"ownerId":2,"isMain":false,"description":"leaf"}`),
	}}
	service := NewService(doer, false)

	added, err := service.Add(context.Background(), NewImage{OwnerID: 2, ImageURL: "https://cdn/a.jpg"})
	if err != nil || added.ID != 10 {
		t.Fatalf("Add: expected id 10, got %+v (err %v)", added, err)
	}
	updated, err := service.Update(context.Background(), 10, ImageUpdate{Description: StringPtr("leaf")})
	if err != nil || updated.Description == nil || *updated.Description != "leaf" {
		t.Fatalf("Update: unexpected %+v (err %v)", updated, err)
	}

	if r := doer.requests[0]; r.Method != http.MethodPost || r.Path != "/images" {
		t.Errorf("unexpected add request %s %s", r.Method, r.Path)
	}
	if r := doer.requests[1]; r.Method != http.MethodPut || r.Path != "/images/10" || string(r.Body) != `{"description":"leaf"}` {
		t.Errorf("unexpected update request %s %s %s", r.Method, r.Path, string(r.Body))
	}
}

func TestBatchUpload_MultipartParts(t *testing.T) {
	doer := &recordingDoer{responses: []transport.Response{
		ok(`{"successCount":2,"errorCount":0,"errorMessages":[],"createdIds":[11,12]}`),
	}}
	files := []UploadFile{
		memFile("a.png", "image/png", "AAA"),
		memFile(`we"ird.jpg`, "image/jpeg", "BBBB"),
	}

	result, err := NewService(doer, false).BatchUpload(context.Background(), 42, true, files, nil)
	if err != nil {
		t.Fatalf("BatchUpload returned error: %v", err)
	}
	if result.SuccessCount != 2 || len(result.CreatedIDs) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}

	request := doer.requests[0]
	if request.Method != http.MethodPost || request.Path != "/images/batch-upload" {
		t.Fatalf("unexpected request %s %s", request.Method, request.Path)
	}
	mediaType, params, err := mime.ParseMediaType(request.ContentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("expected multipart content type, got '%s' (%v)", request.ContentType, err)
	}

	reader := multipart.NewReader(bytes.NewReader(request.Body), params["boundary"])
	form, err := reader.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("failed to parse multipart body: %v", err)
	}
	if got := form.Value["ownerId"]; len(got) != 1 || got[0] != "42" {
		t.Errorf("expected ownerId '42', got %v", got)
	}
	if got := form.Value["isMain"]; len(got) != 1 || got[0] != "true" {
		t.Errorf("expected isMain 'true', got %v", got)
	}
	parts := form.File["files"]
	if len(parts) != 2 {
		t.Fatalf("expected 2 file parts, got %d", len(parts))
	}
	if parts[1].Filename != `we"ird.jpg` {
		t.Errorf("expected escaped filename to round trip, got '%s'", parts[1].Filename)
	}
	if parts[0].Header.Get("Content-Type") != "image/png" {
		t.Errorf("expected image/png part, got '%s'", parts[0].Header.Get("Content-Type"))
	}
}

func TestBatchUpload_UnreadableFile(t *testing.T) {
	doer := &recordingDoer{}
	files := []UploadFile{{Name: "missing.png"}}

	if _, err := NewService(doer, false).BatchUpload(context.Background(), 1, false, files, nil); err == nil {
		t.Fatal("expected error for file without content")
	}
	if len(doer.requests) != 0 {
		t.Errorf("expected no request to be sent, got %d", len(doer.requests))
	}
}

func TestImage_DisplayURI(t *testing.T) {
	tests := []struct {
		name  string
		image Image
		want  string
	}{
		{name: "url", image: Image{ImageURL: "https://cdn/a.png", ImageData: "AAAA"}, want: "https://cdn/a.png"},
		{name: "inline", image: Image{ImageData: "AAAA", ContentType: "image/png"}, want: "data:image/png;base64,AAAA"},
		{name: "inline without type", image: Image{ImageData: "AAAA"}, want: "data:application/octet-stream;base64,AAAA"},
		{name: "empty", image: Image{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.image.DisplayURI(); got != tt.want {
				t.Errorf("expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestBatchUploadResult_Summary(t *testing.T) {
	result := BatchUploadResult{SuccessCount: 2, ErrorCount: 1, ErrorMessages: []string{"b.png: not an image"}}
	if !result.Partial() {
		t.Error("expected partial result")
	}
	want := "1 of 3 images failed to upload: b.png: not an image"
	if got := result.Summary(); got != want {
		t.Errorf("expected '%s', got '%s'", want, got)
	}
	if got := (BatchUploadResult{SuccessCount: 1}).Summary(); got != "" {
		t.Errorf("expected empty summary, got '%s'", got)
	}
}
