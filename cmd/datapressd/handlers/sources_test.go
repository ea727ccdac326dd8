package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	handlers "github.com/datapress/datapress/cmd/datapressd/handlers"
	httptestutil "github.com/datapress/datapress/internal/testutils/http"
	"github.com/datapress/datapress/pkg/api/types/misc/rfctime"
	apisource "github.com/datapress/datapress/pkg/api/types/sources"
	"github.com/datapress/datapress/pkg/auth"
	"github.com/datapress/datapress/pkg/blob/memory"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	mockdb "github.com/datapress/datapress/pkg/domain/source/db/mock"
	"github.com/datapress/datapress/pkg/utils/cmp"
	"github.com/datapress/datapress/pkg/utils/pointer"
	"github.com/datapress/datapress/pkg/utils/try"
)

func dummyApiSource(t *testing.T) domain.Source {
	timestamp := try.To(rfctime.ParseRFC3339DateTime(
		"2025-09-25T09:30:00+00:00",
	)).OrFatal(t).Time()
	return domain.Source{
		Id:        "source-1",
		ProjectId: "project-1",
		Name:      "desk tickets",
		Type:      domain.ApiSource,
		ApiConnectionConfig: domain.Config{
			"provider": "teamwork_desk", "siteName": "example",
		},
		ApiConnectionConfigVersion: pointer.Ref(1),
		Status:                     domain.Connected,
		CreatedAt:                  timestamp,
		UpdatedAt:                  timestamp,
	}
}

// multipartBody builds a multipart form with projectId, name and a file part.
func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("projectId", "project-1"); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("name", "ticket dump"); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return body, mw.FormDataContentType()
}

func TestCreateSourceHandler(t *testing.T) {

	t.Run("it registers an api source from a json body", func(t *testing.T) {
		mockSource := mockdb.NewSourceInterface()
		source := dummyApiSource(t)
		mockSource.Impl.Create = func(
			ctx context.Context, organisationId string, spec domain.NewSource,
		) (domain.Source, error) {
			return source, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/sources",
			strings.NewReader(`{
				"projectId": "project-1",
				"name": "desk tickets",
				"apiConnectionConfig": {"provider": "teamwork_desk", "siteName": "example"}
			}`),
			httptestutil.ContentType("application/json"),
		)
		auth.Inject(c, dummyIdentity())

		testee := handlers.CreateSourceHandler(mockSource, memory.New(), 1024)
		if err := testee(c); err != nil {
			t.Fatalf("it does not finish. error = %v", err)
		}

		if mockSource.Calls.Create.Times() != 1 {
			t.Fatalf("Create should be called once, but %d", mockSource.Calls.Create.Times())
		}
		{
			actual := mockSource.Calls.Create[0]
			if actual.OrganisationId != "org-1" {
				t.Errorf("unmatch organisationId: %s", actual.OrganisationId)
			}
			if actual.Spec.ProjectId != "project-1" || actual.Spec.Name != "desk tickets" ||
				actual.Spec.Type != domain.ApiSource {
				t.Errorf("unmatch: params for Create: %+v", actual.Spec)
			}
			if actual.Spec.File != nil {
				t.Errorf("an api source should have no file branch: %+v", actual.Spec.File)
			}
		}

		if respRec.Result().StatusCode != http.StatusCreated {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusCreated)
		}

		actual := apisource.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %v", err)
		}
		if expected := apisource.ComposeDetail(source); !actual.Equal(expected) {
			t.Errorf("data does not match. (actual, expected) = \n(%+v, \n%+v)", actual, expected)
		}
	})

	t.Run("it uploads the payload and registers a file source from a multipart body", func(t *testing.T) {
		store := memory.New()
		mockSource := mockdb.NewSourceInterface()
		mockSource.Impl.Create = func(
			ctx context.Context, organisationId string, spec domain.NewSource,
		) (domain.Source, error) {
			source := dummyApiSource(t)
			source.Type = domain.FileSource
			source.ApiConnectionConfig = nil
			source.ApiConnectionConfigVersion = nil
			source.File = spec.File
			return source, nil
		}

		content := []byte(`{"tickets": []}`)
		body, contentType := multipartBody(t, "tickets.json", content)

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/sources", body, httptestutil.ContentType(contentType),
		)
		auth.Inject(c, dummyIdentity())

		testee := handlers.CreateSourceHandler(mockSource, store, 1024)
		if err := testee(c); err != nil {
			t.Fatalf("it does not finish. error = %v", err)
		}

		if mockSource.Calls.Create.Times() != 1 {
			t.Fatalf("Create should be called once, but %d", mockSource.Calls.Create.Times())
		}
		spec := mockSource.Calls.Create[0].Spec
		if spec.Type != domain.FileSource || spec.File == nil {
			t.Fatalf("unmatch: params for Create: %+v", spec)
		}
		if spec.File.SizeBytes != int64(len(content)) {
			t.Errorf("unmatch size: %d", spec.File.SizeBytes)
		}
		if !strings.HasPrefix(spec.File.UploadPath, "sources/") ||
			!strings.HasSuffix(spec.File.UploadPath, "/tickets.json") {
			t.Errorf("unexpected upload path: %s", spec.File.UploadPath)
		}

		// the payload is retrievable under the registered path.
		_, r, err := store.Get(context.Background(), spec.File.UploadPath)
		if err != nil {
			t.Fatalf("uploaded blob is missing: %v", err)
		}
		defer r.Close()
		stored := try.To(io.ReadAll(r)).OrFatal(t)
		if !bytes.Equal(stored, content) {
			t.Errorf("unmatch stored payload: %s", stored)
		}

		if respRec.Result().StatusCode != http.StatusCreated {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusCreated)
		}
	})

	t.Run("it removes the upload when the source row is not created", func(t *testing.T) {
		store := memory.New()
		mockSource := mockdb.NewSourceInterface()
		mockSource.Impl.Create = func(
			ctx context.Context, organisationId string, spec domain.NewSource,
		) (domain.Source, error) {
			return domain.Source{}, domerr.ErrMissing
		}

		body, contentType := multipartBody(t, "tickets.json", []byte("{}"))

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/sources", body, httptestutil.ContentType(contentType),
		)
		auth.Inject(c, dummyIdentity())

		testee := handlers.CreateSourceHandler(mockSource, store, 1024)
		err := testee(c)
		if err == nil {
			t.Fatalf("no error but it is not expected result")
		}

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Fatalf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusNotFound)
		}

		uploadPath := mockSource.Calls.Create[0].Spec.File.UploadPath
		if _, _, err := store.Get(context.Background(), uploadPath); err == nil {
			t.Errorf("the orphaned upload should be removed: %s", uploadPath)
		}
	})

	t.Run("it rejects a file above the size limit", func(t *testing.T) {
		mockSource := mockdb.NewSourceInterface()

		body, contentType := multipartBody(t, "big.json", bytes.Repeat([]byte("x"), 32))

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/sources", body, httptestutil.ContentType(contentType),
		)
		auth.Inject(c, dummyIdentity())

		testee := handlers.CreateSourceHandler(mockSource, memory.New(), 16)
		err := testee(c)
		if err == nil {
			t.Fatalf("no error but it is not expected result")
		}

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusRequestEntityTooLarge)
		}
		if mockSource.Calls.Create.Times() != 0 {
			t.Errorf("Create should not be called, but %d", mockSource.Calls.Create.Times())
		}
	})

	t.Run("it returns error response for a json body", func(t *testing.T) {
		for name, testcase := range map[string]struct {
			body          string
			errorOnCreate error
			statusCode    int
		}{
			"(Bad Request) when projectId is missing": {
				body:       `{"name": "desk tickets", "apiConnectionConfig": {}}`,
				statusCode: http.StatusBadRequest,
			},
			"(Bad Request) when apiConnectionConfig is missing": {
				body:       `{"projectId": "project-1", "name": "desk tickets"}`,
				statusCode: http.StatusBadRequest,
			},
			"(Not Found) when the project is not in the organisation": {
				body:          `{"projectId": "project-x", "name": "n", "apiConnectionConfig": {}}`,
				errorOnCreate: domerr.ErrMissing,
				statusCode:    http.StatusNotFound,
			},
		} {
			t.Run(name, func(t *testing.T) {
				mockSource := mockdb.NewSourceInterface()
				mockSource.Impl.Create = func(
					ctx context.Context, organisationId string, spec domain.NewSource,
				) (domain.Source, error) {
					return domain.Source{}, testcase.errorOnCreate
				}

				e := echo.New()
				c, _ := httptestutil.Post(
					e, "/api/sources",
					strings.NewReader(testcase.body),
					httptestutil.ContentType("application/json"),
				)
				auth.Inject(c, dummyIdentity())

				testee := handlers.CreateSourceHandler(mockSource, memory.New(), 1024)
				err := testee(c)
				if err == nil {
					t.Fatalf("no error but it is not expected result")
				}

				var echoErr *echo.HTTPError
				if !errors.As(err, &echoErr) {
					t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
				}
				if echoErr.Code != testcase.statusCode {
					t.Fatalf("unmatch error code:%d, expected:%d", echoErr.Code, testcase.statusCode)
				}
			})
		}
	})
}

func TestFindSourceHandler(t *testing.T) {

	t.Run("it passes query params to SourceInterface.Find", func(t *testing.T) {
		for name, testcase := range map[string]struct {
			request string
			query   domain.SourceFindQuery
		}{
			"with no query": {
				request: "/api/sources", query: domain.SourceFindQuery{},
			},
			"with projectId and status": {
				request: "/api/sources?projectId=project-1&status=cached",
				query:   domain.SourceFindQuery{ProjectId: "project-1", Status: domain.Cached},
			},
		} {
			t.Run(name, func(t *testing.T) {
				mockSource := mockdb.NewSourceInterface()
				mockSource.Impl.Find = func(
					ctx context.Context, organisationId string, query domain.SourceFindQuery,
				) ([]domain.Source, error) {
					return []domain.Source{}, nil
				}

				e := echo.New()
				c, _ := httptestutil.Get(e, testcase.request)
				auth.Inject(c, dummyIdentity())

				testee := handlers.FindSourceHandler(mockSource)
				if err := testee(c); err != nil {
					t.Fatalf("it does not finish. error = %v", err)
				}

				actual := mockSource.Calls.Find[0]
				if actual.OrganisationId != "org-1" || actual.Query != testcase.query {
					t.Errorf("unmatch: params for Find: %+v", actual)
				}
			})
		}
	})

	t.Run("it returns Bad Request for an unknown status", func(t *testing.T) {
		mockSource := mockdb.NewSourceInterface()

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/sources?status=stale")
		auth.Inject(c, dummyIdentity())

		testee := handlers.FindSourceHandler(mockSource)
		err := testee(c)
		if err == nil {
			t.Fatalf("no error but it is not expected result")
		}

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusBadRequest {
			t.Fatalf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusBadRequest)
		}
	})
}

func TestGetSourceHandler(t *testing.T) {

	t.Run("it returns the source as json", func(t *testing.T) {
		mockSource := mockdb.NewSourceInterface()
		source := dummyApiSource(t)
		mockSource.Impl.Get = func(
			ctx context.Context, organisationId string, sourceId string,
		) (domain.Source, error) {
			return source, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/sources/source-1")
		c.SetPath("/api/sources/:sourceId")
		c.SetParamNames("sourceId")
		c.SetParamValues("source-1")
		auth.Inject(c, dummyIdentity())

		testee := handlers.GetSourceHandler(mockSource)
		if err := testee(c); err != nil {
			t.Fatalf("it does not finish. error = %v", err)
		}

		if !cmp.SliceEq(
			[]struct{ OrganisationId, SourceId string }(mockSource.Calls.Get),
			[]struct{ OrganisationId, SourceId string }{
				{OrganisationId: "org-1", SourceId: "source-1"},
			},
		) {
			t.Errorf("unmatch: params for Get: %+v", mockSource.Calls.Get)
		}

		actual := apisource.Detail{}
		if err := json.Unmarshal(respRec.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %v", err)
		}
		if expected := apisource.ComposeDetail(source); !actual.Equal(expected) {
			t.Errorf("data does not match. (actual, expected) = \n(%+v, \n%+v)", actual, expected)
		}
	})
}

func TestUpdateSourceHandler(t *testing.T) {

	t.Run("it passes the delta to SourceInterface.Update", func(t *testing.T) {
		type when struct {
			body string
		}
		type then struct {
			delta domain.SourceUpdate
		}

		for name, testcase := range map[string]struct {
			when
			then
		}{
			"renaming": {
				when{body: `{"name": "renamed"}`},
				then{delta: domain.SourceUpdate{Name: pointer.Ref("renamed")}},
			},
			"marking an error": {
				when{body: `{"status": "error", "errorMessage": "api unreachable"}`},
				then{delta: domain.SourceUpdate{
					Status:       pointer.Ref(domain.SourceInError),
					ErrorMessage: pointer.Ref("api unreachable"),
				}},
			},
			"replacing the connection config": {
				when{body: `{"apiConnectionConfig": {"siteName": "other"}}`},
				then{delta: domain.SourceUpdate{
					ReplaceApiConnectionConfig: true,
					ApiConnectionConfig:        domain.Config{"siteName": "other"},
				}},
			},
		} {
			t.Run(name, func(t *testing.T) {
				mockSource := mockdb.NewSourceInterface()
				mockSource.Impl.Update = func(
					ctx context.Context, organisationId string, sourceId string, delta domain.SourceUpdate,
				) (domain.Source, error) {
					return dummyApiSource(t), nil
				}

				e := echo.New()
				c, _ := httptestutil.Patch(
					e, "/api/sources/source-1",
					strings.NewReader(testcase.when.body),
					httptestutil.ContentType("application/json"),
				)
				c.SetPath("/api/sources/:sourceId")
				c.SetParamNames("sourceId")
				c.SetParamValues("source-1")
				auth.Inject(c, dummyIdentity())

				testee := handlers.UpdateSourceHandler(mockSource)
				if err := testee(c); err != nil {
					t.Fatalf("it does not finish. error = %v", err)
				}

				actual := mockSource.Calls.Update[0]
				if actual.OrganisationId != "org-1" || actual.SourceId != "source-1" {
					t.Errorf("unmatch: params for Update: %+v", actual)
				}
				expected := testcase.then.delta
				if !cmp.PEqEq(actual.Delta.Name, expected.Name) ||
					!cmp.PEqEq(actual.Delta.Status, expected.Status) ||
					!cmp.PEqEq(actual.Delta.ErrorMessage, expected.ErrorMessage) ||
					actual.Delta.ReplaceApiConnectionConfig != expected.ReplaceApiConnectionConfig {
					t.Errorf(
						"unmatch: delta:\n- actual:\n%+v\n- expected:\n%+v",
						actual.Delta, expected,
					)
				}
			})
		}
	})
}

func TestDeleteSourceHandler(t *testing.T) {

	t.Run("it deletes the source and returns No Content", func(t *testing.T) {
		mockSource := mockdb.NewSourceInterface()
		mockSource.Impl.Delete = func(ctx context.Context, organisationId string, sourceId string) error {
			return nil
		}

		e := echo.New()
		c, respRec := httptestutil.Delete(e, "/api/sources/source-1")
		c.SetPath("/api/sources/:sourceId")
		c.SetParamNames("sourceId")
		c.SetParamValues("source-1")
		auth.Inject(c, dummyIdentity())

		testee := handlers.DeleteSourceHandler(mockSource)
		if err := testee(c); err != nil {
			t.Fatalf("it does not finish. error = %v", err)
		}

		if respRec.Result().StatusCode != http.StatusNoContent {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusNoContent)
		}
	})

	t.Run("it returns Not Found for a missing source", func(t *testing.T) {
		mockSource := mockdb.NewSourceInterface()
		mockSource.Impl.Delete = func(ctx context.Context, organisationId string, sourceId string) error {
			return domerr.ErrMissing
		}

		e := echo.New()
		c, _ := httptestutil.Delete(e, "/api/sources/source-x")
		c.SetPath("/api/sources/:sourceId")
		c.SetParamNames("sourceId")
		c.SetParamValues("source-x")
		auth.Inject(c, dummyIdentity())

		testee := handlers.DeleteSourceHandler(mockSource)
		err := testee(c)
		if err == nil {
			t.Fatalf("no error but it is not expected result")
		}

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusNotFound {
			t.Fatalf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusNotFound)
		}
	})
}
