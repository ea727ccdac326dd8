package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	handlers "github.com/datapress/datapress/cmd/datapressd/handlers"
	httptestutil "github.com/datapress/datapress/internal/testutils/http"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {

	t.Run("it reports ok while the database answers", func(t *testing.T) {
		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/health")

		testee := handlers.HealthHandler(pingerFunc(func(context.Context) error {
			return nil
		}))
		if err := testee(c); err != nil {
			t.Fatalf("it does not finish. error = %v", err)
		}

		if respRec.Result().StatusCode != http.StatusOK {
			t.Errorf("status code %d != %d", respRec.Result().StatusCode, http.StatusOK)
		}
	})

	t.Run("it returns Internal Server Error when the database is gone", func(t *testing.T) {
		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/health")

		testee := handlers.HealthHandler(pingerFunc(func(context.Context) error {
			return errors.New("connection refused")
		}))
		err := testee(c)
		if err == nil {
			t.Fatalf("no error but it is not expected result")
		}

		var echoErr *echo.HTTPError
		if !errors.As(err, &echoErr) {
			t.Fatalf("error is not echo.HTTPError. actual = %#v", err)
		}
		if echoErr.Code != http.StatusInternalServerError {
			t.Fatalf("unmatch error code:%d, expected:%d", echoErr.Code, http.StatusInternalServerError)
		}
	})
}
