package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/conflu/conflu-admin/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zerolog.Nop()), srv
}

func asErr[T error](err error, target *T) bool {
	return errors.As(err, target)
}

func TestListDecodesEntities(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/empresas/" {
			t.Errorf("path = %q, want /empresas/", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"nome":"Acme","email":"a@acme.example"}]`))
	}))

	companies, err := client.Companies().List(context.Background(), nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(companies) != 1 {
		t.Fatalf("len = %d, want 1", len(companies))
	}
	if companies[0].Name != "Acme" {
		t.Errorf("name = %q, want Acme", companies[0].Name)
	}
}

func TestListEmptyReturnsNonNilSlice(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	companies, err := client.Companies().List(context.Background(), nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if companies == nil {
		t.Fatal("List() returned nil slice, want empty")
	}
	if len(companies) != 0 {
		t.Fatalf("len = %d, want 0", len(companies))
	}
}

func TestListSerializesFilters(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))

	_, err := client.Students().List(context.Background(), model.StudentFilters{
		Search:    "maria",
		CompanyID: 7,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := "empresa_id=7&search=maria"
	if gotQuery != want {
		t.Errorf("query = %q, want %q", gotQuery, want)
	}
}

func TestGetMissingIDIsNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Not found."}`, http.StatusNotFound)
	}))

	_, err := client.Courses().Get(context.Background(), 99)
	if !IsNotFound(err) {
		t.Fatalf("Get() error = %v, want NotFoundError", err)
	}
}

func TestCreateValidationErrorCarriesFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"carga_horaria":["Ensure this value is greater than 0."]}`))
	}))

	_, err := client.Courses().Create(context.Background(), model.CreateCourseRequest{Name: "X"})
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("Create() error = %v, want ValidationError", err)
	}
	if _, ok := ve.Fields["carga_horaria"]; !ok {
		t.Errorf("fields = %v, want carga_horaria present", ve.Fields)
	}
}

func TestNonJSONBodyIsParseError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway timeout</html>`))
	}))

	_, err := client.Companies().List(context.Background(), nil)
	var pe *ParseError
	if !asErr(err, &pe) {
		t.Fatalf("List() error = %v, want ParseError", err)
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(srv.URL, time.Second, zerolog.Nop())
	srv.Close() // No response will ever arrive.

	_, err := client.Companies().List(context.Background(), nil)
	var ne *NetworkError
	if !asErr(err, &ne) {
		t.Fatalf("List() error = %v, want NetworkError", err)
	}
}

func TestDeleteAccepts204(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := client.Students().Delete(context.Background(), 3); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestRequestCarriesStandardHeaders(t *testing.T) {
	var gotReqID, gotAuth, gotAccept string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReqID = r.Header.Get("X-Request-ID")
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`[]`))
	}))

	client.SetToken("tok-123")
	if _, err := client.Companies().List(context.Background(), nil); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if gotReqID == "" {
		t.Error("X-Request-ID header missing")
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestHTTPErrorKeepsStatusAndMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"database exploded"}`))
	}))

	_, err := client.Companies().List(context.Background(), nil)
	var he *HTTPError
	if !asErr(err, &he) {
		t.Fatalf("List() error = %v, want HTTPError", err)
	}
	if he.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", he.Status)
	}
	if he.Message != "database exploded" {
		t.Errorf("message = %q", he.Message)
	}
}
