package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"xolvetech/internal/exporter"
	"xolvetech/internal/importer"
	"xolvetech/internal/kits"
)

func newKitRouter(t *testing.T, seed []kits.Kit) (chi.Router, *kits.Service) {
	t.Helper()

	svc := kits.NewService(kits.NewInMemoryRepository(seed))
	handler := NewKitHandler(svc, importer.NewCSVImporter(svc), exporter.NewCSVExporter(), discardLogger())

	r := chi.NewRouter()
	r.Get("/api/kits", handler.List)
	r.Get("/api/kits/export", handler.ExportCSV)
	r.Get("/api/kits/{id}", handler.Get)
	r.Post("/api/kits", handler.Create)
	r.Post("/api/kits/import", handler.ImportCSV)
	r.Put("/api/kits/{id}", handler.Update)
	r.Delete("/api/kits/{id}", handler.Delete)

	return r, svc
}

func TestKitListFilters(t *testing.T) {
	electronics := demoKit("Circuit Starter", 499)
	robotics := demoKit("Line Follower", 1299)
	robotics.Category = kits.CategoryRobotics
	robotics.Difficulty = kits.DifficultyIntermediate
	router, _ := newKitRouter(t, []kits.Kit{electronics, robotics})

	req := httptest.NewRequest(http.MethodGet, "/api/kits?category=Robotics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed: %d %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Kits []kits.Kit `json:"kits"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Kits) != 1 || resp.Kits[0].Title != "Line Follower" {
		t.Fatalf("unexpected filtered result: %+v", resp.Kits)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/kits?category=Cooking", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid category filter, got %d", rec.Code)
	}
}

func TestKitCreateAndGet(t *testing.T) {
	router, _ := newKitRouter(t, nil)

	rec := postJSON(t, router, "/api/kits", `{
		"title": "Solar Car Challenge",
		"description": "Build a solar-powered car",
		"price": 999,
		"category": "Science",
		"difficulty": "Beginner",
		"inStock": true
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
	}

	var created kits.Kit
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.Currency != "INR" {
		t.Fatalf("expected default currency INR, got %q", created.Currency)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/kits/"+created.ID.String(), nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, req)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get failed: %d", getRec.Code)
	}
}

func TestKitCreateRejectsInvalidCategory(t *testing.T) {
	router, _ := newKitRouter(t, nil)

	rec := postJSON(t, router, "/api/kits", `{
		"title": "Mystery Kit",
		"price": 100,
		"category": "Cooking",
		"difficulty": "Beginner"
	}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "invalid category") {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
}

func TestKitGetUnknownReturns404(t *testing.T) {
	router, _ := newKitRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/kits/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestKitUpdatePartial(t *testing.T) {
	kit := demoKit("Circuit Starter", 499)
	router, _ := newKitRouter(t, []kits.Kit{kit})

	req := httptest.NewRequest(http.MethodPut, "/api/kits/"+kit.ID.String(), strings.NewReader(`{"price":549,"inStock":false}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
	}

	var updated kits.Kit
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.Price != 549 || updated.InStock {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Title != "Circuit Starter" {
		t.Fatalf("untouched field changed: %q", updated.Title)
	}
}

func TestKitDelete(t *testing.T) {
	kit := demoKit("Circuit Starter", 499)
	router, svc := newKitRouter(t, []kits.Kit{kit})

	req := httptest.NewRequest(http.MethodDelete, "/api/kits/"+kit.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	if _, err := svc.Get(context.Background(), kit.ID); err == nil {
		t.Fatal("kit should be gone after delete")
	}
}

func multipartCSV(t *testing.T, csv string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "kits.csv")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(csv)); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestKitImportCSV(t *testing.T) {
	router, svc := newKitRouter(t, nil)

	csv := "title,description,price,category,difficulty\n" +
		"Imported Kit,From a spreadsheet,750,Electronics,Beginner\n" +
		"Broken Kit,Bad price,not-a-number,Electronics,Beginner\n"
	body, contentType := multipartCSV(t, csv)

	req := httptest.NewRequest(http.MethodPost, "/api/kits/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("import failed: %d %s", rec.Code, rec.Body.String())
	}

	var summary importer.Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if summary.Imported != 1 || len(summary.Failed) != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	kitsList, err := svc.List(context.Background(), kits.ListOptions{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(kitsList) != 1 || kitsList[0].Title != "Imported Kit" {
		t.Fatalf("imported kit not stored: %+v", kitsList)
	}
}

func TestKitImportRejectsMissingColumns(t *testing.T) {
	router, _ := newKitRouter(t, nil)

	body, contentType := multipartCSV(t, "title\nLonely Kit\n")
	req := httptest.NewRequest(http.MethodPost, "/api/kits/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestKitExportImportRoundTrip(t *testing.T) {
	original := demoKit("Circuit Starter", 499)
	original.Components = []string{"Breadboard", "LEDs"}
	original.Tags = []string{"starter"}
	router, _ := newKitRouter(t, []kits.Kit{original})

	req := httptest.NewRequest(http.MethodGet, "/api/kits/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("export failed: %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("unexpected content type %q", got)
	}

	// Feed the export back into an empty catalog.
	freshRouter, freshSvc := newKitRouter(t, nil)
	body, contentType := multipartCSV(t, rec.Body.String())
	importReq := httptest.NewRequest(http.MethodPost, "/api/kits/import", body)
	importReq.Header.Set("Content-Type", contentType)
	importRec := httptest.NewRecorder()
	freshRouter.ServeHTTP(importRec, importReq)

	if importRec.Code != http.StatusOK {
		t.Fatalf("re-import failed: %d %s", importRec.Code, importRec.Body.String())
	}

	restored, err := freshSvc.List(context.Background(), kits.ListOptions{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(restored) != 1 {
		t.Fatalf("expected 1 restored kit, got %d", len(restored))
	}
	if restored[0].Title != original.Title || restored[0].Price != original.Price {
		t.Fatalf("round trip lost data: %+v", restored[0])
	}
	if len(restored[0].Components) != 2 {
		t.Fatalf("components not restored: %v", restored[0].Components)
	}
}
