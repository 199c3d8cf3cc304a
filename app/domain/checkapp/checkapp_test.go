package checkapp_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/nssmahe/portal/app/domain/checkapp"
	"github.com/nssmahe/portal/app/sdk/apitest"
	"github.com/nssmahe/portal/app/sdk/mux"
	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Checks(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	db := sqlx.NewDb(sqlDB, "sqlmock")

	at := apitest.New(t, func(app *web.App, cfg mux.Config) {
		checkapp.Routes(app, checkapp.Config{
			Build: cfg.Build,
			Log:   cfg.Log,
			DB:    db,
		})
	})

	mock.ExpectPing()
	mock.ExpectQuery("SELECT TRUE").WillReturnRows(sqlmock.NewRows([]string{"bool"}).AddRow(true))

	at.Run(t, []apitest.Table{
		{
			Name:       "liveness",
			URL:        "/v1/liveness",
			Method:     http.MethodGet,
			StatusCode: http.StatusOK,
			Check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var got checkapp.Info
				apitest.Decode(t, w, &got)
				assert.Equal(t, "up", got.Status)
				assert.Equal(t, "test", got.Build)
			},
		},
		{Name: "readiness", URL: "/v1/readiness", Method: http.MethodGet, StatusCode: http.StatusOK},
	}, "checks")

	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	w := at.Do(t, http.MethodGet, "/v1/readiness", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
