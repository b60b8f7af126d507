package downstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/vetimport/internal/config"
	"github.com/JonMunkholm/vetimport/internal/core"
)

var labDef = core.TableDefinition{
	Type:          core.TableLab,
	RequiredField: "sampleCode",
	Endpoint:      "/api/import/lab-tests",
}

func newTestClient(url, token string, timeout time.Duration) *Client {
	return NewClient(config.DownstreamConfig{URL: url, Token: token, Timeout: timeout})
}

func TestClient_Submit(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody core.SubmitRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"insertedCount":2,"batchId":"srv-1"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL+"/", "tok", time.Second)
	resp, err := c.Submit(context.Background(), labDef, core.SubmitRequest{
		TableType:    core.TableLab,
		Rows:         []core.CleanedRecord{{"sampleCode": "A"}, {"sampleCode": "B"}},
		CallerSecret: "s3cret",
		BatchID:      "bulk_import_batch_1",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/import/lab-tests", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, core.TableLab, gotBody.TableType)
	assert.Equal(t, "s3cret", gotBody.CallerSecret)
	assert.Len(t, gotBody.Rows, 2)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.InsertedCount)
	assert.Equal(t, 2, *resp.InsertedCount)
	assert.Equal(t, "srv-1", resp.BatchID)
}

func TestClient_Submit_ReportedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"duplicate batch"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL, "", time.Second).Submit(context.Background(), labDef, core.SubmitRequest{})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "duplicate batch", resp.Message)
	assert.Nil(t, resp.InsertedCount)
}

func TestClient_Submit_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL, "", time.Second).Submit(context.Background(), labDef, core.SubmitRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestClient_Submit_MissingSuccessFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"insertedCount":2,"batchId":"srv-2"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL, "", time.Second).Submit(context.Background(), labDef, core.SubmitRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.InsertedCount)
	assert.Equal(t, 2, *resp.InsertedCount)
	assert.Equal(t, "srv-2", resp.BatchID)
}

func TestClient_Submit_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "", time.Second).Submit(context.Background(), labDef, core.SubmitRequest{})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "error = %v", err)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Equal(t, "database unavailable", statusErr.Body)
}

func TestClient_Submit_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestClient(srv.URL, "", 50*time.Millisecond).Submit(context.Background(), labDef, core.SubmitRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Submit_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "", time.Second).Submit(context.Background(), labDef, core.SubmitRequest{})
	assert.ErrorContains(t, err, "decode response")
}

func TestClient_FallbackURL(t *testing.T) {
	c := NewClient(config.DownstreamConfig{FallbackURL: "http://localhost:3000/"})
	assert.Equal(t, "http://localhost:3000", c.baseURL)
}
