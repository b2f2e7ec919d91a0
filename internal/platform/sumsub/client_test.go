package sumsub

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign_KnownVector(t *testing.T) {
	c := NewClient("https://api.example.com", "tok", "my-secret", time.Second)

	path := "/resources/applicants/a1/one?key=v"
	got := c.sign("get", path, 1700000000, nil)

	mac := hmac.New(sha256.New, []byte("my-secret"))
	mac.Write([]byte("1700000000GET" + path))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, got, "signature must cover ts + uppercased method + path")
}

func TestSign_IncludesBody(t *testing.T) {
	c := NewClient("https://api.example.com", "tok", "my-secret", time.Second)

	withBody := c.sign("POST", "/resources/applicants", 1700000000, []byte(`{"a":1}`))
	withoutBody := c.sign("POST", "/resources/applicants", 1700000000, nil)

	assert.NotEqual(t, withoutBody, withBody)
}

func TestGetApplicant_SignedRequest(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"a1","fixedInfo":{"firstName":"Jane","lastName":"Doe"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "app-token", "secret", time.Second)
	applicant, err := c.GetApplicant(context.Background(), "a1")
	require.NoError(t, err)
	require.NotNil(t, applicant)
	assert.Equal(t, "a1", applicant.ID)

	assert.Equal(t, "app-token", gotHeaders.Get("X-App-Token"))
	assert.NotEmpty(t, gotHeaders.Get("X-App-Access-Ts"))
	assert.NotEmpty(t, gotHeaders.Get("X-App-Access-Sig"))
}

func TestGetApplicant_FailuresReturnNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "secret", time.Second)

	applicant, err := c.GetApplicant(context.Background(), "a1")
	assert.NoError(t, err, "non-2xx must not surface as an error")
	assert.Nil(t, applicant)

	// Transport failure behaves the same.
	dead := NewClient("http://127.0.0.1:1", "tok", "secret", 100*time.Millisecond)
	applicant, err = dead.GetApplicant(context.Background(), "a1")
	assert.NoError(t, err)
	assert.Nil(t, applicant)

	assert.Empty(t, dead.FetchApplicantVerifiedName(context.Background(), "a1"))
	assert.Nil(t, dead.RejectionDetail(context.Background(), "a1"))
}

func TestVerifiedName_Precedence(t *testing.T) {
	tests := []struct {
		name      string
		applicant *Applicant
		want      string
	}{
		{
			name: "fixed info wins over self-reported",
			applicant: &Applicant{
				FixedInfo: &Info{FirstName: "Jane", LastName: "Doe"},
				Info:      &Info{FirstName: "Janet", LastName: "Smith"},
			},
			want: "Jane Doe",
		},
		{
			name: "english variant wins over localized",
			applicant: &Applicant{
				FixedInfo: &Info{FirstName: "Иван", LastName: "Петров", FirstNameEn: "Ivan", LastNameEn: "Petrov"},
			},
			want: "Ivan Petrov",
		},
		{
			name: "falls back to self-reported when fixed empty",
			applicant: &Applicant{
				FixedInfo: &Info{},
				Info:      &Info{FirstNameEn: "Jane", LastNameEn: "Doe"},
			},
			want: "Jane Doe",
		},
		{
			name: "single field trims cleanly",
			applicant: &Applicant{
				Info: &Info{LastName: "Doe"},
			},
			want: "Doe",
		},
		{
			name:      "no info at all",
			applicant: &Applicant{},
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifiedName(tt.applicant))
		})
	}
}

func TestRejectionDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "a1",
			"review": {
				"reviewStatus": "completed",
				"reviewResult": {
					"reviewAnswer": "RED",
					"reviewRejectType": "RETRY",
					"rejectLabels": ["BAD_SELFIE"],
					"moderationComment": "Retake the selfie"
				}
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "secret", time.Second)
	detail := c.RejectionDetail(context.Background(), "a1")
	require.NotNil(t, detail)
	assert.Equal(t, "RETRY", detail.RejectType)
	assert.Equal(t, []string{"BAD_SELFIE"}, detail.RejectLabels)
	assert.Equal(t, "Retake the selfie", detail.ModerationComment)
}
