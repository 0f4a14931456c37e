package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gavv/httpexpect/v2"
	"github.com/stretchr/testify/suite"

	"query-advisor/internal/events"
	"query-advisor/internal/observability"
	"query-advisor/internal/querylog"
)

type UploadTestSuite struct {
	suite.Suite
	e         *httpexpect.Expect
	server    *httptest.Server
	repo      *querylog.Repository
	suggester *failingSuggester
	recorder  *events.Recorder
}

func (suite *UploadTestSuite) SetupTest() {
	suite.repo = newRepo(suite.T())
	suite.suggester = &failingSuggester{}
	suite.recorder = &events.Recorder{}
	emitter := events.NewEmitter(suite.recorder, "", observability.Discard())

	h := NewUploadHandler(suite.repo, suite.suggester, emitter, observability.Discard(), 1024*1024)
	mux := http.NewServeMux()
	mux.Handle("POST /api/query-log/upload", h.Upload())
	suite.server = httptest.NewServer(mux)
	suite.e = httpexpect.Default(suite.T(), suite.server.URL)
}

func (suite *UploadTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *UploadTestSuite) TestUpload_Success() {
	content := strings.Join([]string{
		"# exported from staging",
		"exec_time=0.5;records=10;indexes=pk;columns=id;sql=SELECT * FROM users WHERE id = 1",
		"",
		"exec_time=3.2;records=50000;indexes=;columns=status,created_at;sql=SELECT * FROM orders WHERE status = 'x'; -- trailing",
		"this line is garbage",
		"exec_time=-1;records=1;indexes=;columns=;sql=SELECT 1",
	}, "\n")

	obj := suite.e.POST("/api/query-log/upload").
		WithMultipart().
		WithFile("file", "queries.log", strings.NewReader(content)).
		Expect().
		Status(http.StatusOK).
		JSON().Object()

	obj.HasValue("message", "upload processed")
	obj.HasValue("total_lines", 4)
	obj.HasValue("inserted", 2)
	obj.HasValue("skipped", 2)
	obj.HasValue("filename", "queries.log")
	obj.Value("errors").Array().Length().IsEqual(2)

	suite.EqualValues(2, countLogs(suite.T(), suite.repo))
	suite.Equal(2, suite.suggester.ingested)
	suite.Len(suite.recorder.Messages(), 2)

	rows, err := suite.repo.List(context.Background())
	suite.Require().NoError(err)
	suite.Equal("SELECT * FROM orders WHERE status = 'x'; -- trailing", rows[1].QueryText)
}

func (suite *UploadTestSuite) TestUpload_NothingValid() {
	suite.e.POST("/api/query-log/upload").
		WithMultipart().
		WithFile("file", "queries.txt", strings.NewReader("nope\nstill nope\n")).
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		HasValue("message", "no valid records found; nothing inserted").
		HasValue("inserted", 0)
	suite.Zero(countLogs(suite.T(), suite.repo))
}

func (suite *UploadTestSuite) TestUpload_RejectsExtension() {
	suite.e.POST("/api/query-log/upload").
		WithMultipart().
		WithFile("file", "queries.csv", strings.NewReader("x")).
		Expect().
		Status(http.StatusBadRequest).
		JSON().Object().Value("error").String().Contains("unsupported file extension")
}

func (suite *UploadTestSuite) TestUpload_MissingFile() {
	suite.e.POST("/api/query-log/upload").
		WithMultipart().
		WithFormField("other", "x").
		Expect().
		Status(http.StatusBadRequest).
		JSON().Object().HasValue("error", "missing file")
}

func (suite *UploadTestSuite) TestUpload_NotMultipart() {
	suite.e.POST("/api/query-log/upload").
		WithJSON(map[string]any{"file": "x"}).
		Expect().
		Status(http.StatusBadRequest).
		JSON().Object().HasValue("error", "invalid multipart form")
}

func TestUploadTestSuite(t *testing.T) {
	suite.Run(t, new(UploadTestSuite))
}
