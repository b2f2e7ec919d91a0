package sumsub

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sharematch-backend/internal/common/logger"
	"sharematch-backend/internal/features/compliance/models"
)

// Client issues signed requests to the identity-verification provider's
// REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appToken   string
	secret     string
}

// Applicant is the subset of the provider's applicant resource this
// service reads.
type Applicant struct {
	ID        string `json:"id"`
	FixedInfo *Info  `json:"fixedInfo"`
	Info      *Info  `json:"info"`
	Review    *struct {
		ReviewStatus string `json:"reviewStatus"`
		ReviewResult *struct {
			ReviewAnswer      string   `json:"reviewAnswer"`
			ReviewRejectType  string   `json:"reviewRejectType"`
			RejectLabels      []string `json:"rejectLabels"`
			ModerationComment string   `json:"moderationComment"`
		} `json:"reviewResult"`
	} `json:"review"`
}

// Info holds the provider's identity fields, in both localized and
// English transliterated variants.
type Info struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	FirstNameEn string `json:"firstNameEn"`
	LastNameEn  string `json:"lastNameEn"`
}

func NewClient(baseURL, appToken, secret string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		appToken:   appToken,
		secret:     secret,
	}
}

// sign computes the request signature: hex HMAC-SHA256 of the unix
// timestamp, uppercased method, URL path (with query) and body.
func (c *Client) sign(method, urlPath string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte(strings.ToUpper(method)))
	mac.Write([]byte(urlPath))
	if len(body) > 0 {
		mac.Write(body)
	}
	return hex.EncodeToString(mac.Sum(nil))
}

// do issues a signed request and decodes a 2xx JSON response into out.
// Any transport failure or non-2xx status is returned as an error.
func (c *Client) do(ctx context.Context, method, urlPath string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+urlPath, nil)
	if err != nil {
		return err
	}

	ts := time.Now().Unix()
	req.Header.Set("X-App-Token", c.appToken)
	req.Header.Set("X-App-Access-Ts", strconv.FormatInt(ts, 10))
	req.Header.Set("X-App-Access-Sig", c.sign(method, urlPath, ts, nil))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(b))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// GetApplicant fetches the applicant resource. It returns (nil, nil) on
// any failure: callers treat a missing applicant as "no update
// available", never as an error to retry.
func (c *Client) GetApplicant(ctx context.Context, applicantID string) (*Applicant, error) {
	if applicantID == "" {
		return nil, nil
	}

	var applicant Applicant
	path := fmt.Sprintf("/resources/applicants/%s/one", applicantID)
	if err := c.do(ctx, http.MethodGet, path, &applicant); err != nil {
		logger.Warn().Err(err).Str("applicant_id", applicantID).Msg("Applicant lookup failed")
		return nil, nil
	}
	return &applicant, nil
}

// FetchApplicantVerifiedName resolves the verified legal name of an
// applicant. Empty string means no name is available.
func (c *Client) FetchApplicantVerifiedName(ctx context.Context, applicantID string) string {
	applicant, _ := c.GetApplicant(ctx, applicantID)
	if applicant == nil {
		return ""
	}
	return VerifiedName(applicant)
}

// RejectionDetail fetches the current rejection context for an
// applicant. Nil means the lookup failed or no review result exists.
func (c *Client) RejectionDetail(ctx context.Context, applicantID string) *models.RejectionDetail {
	applicant, _ := c.GetApplicant(ctx, applicantID)
	if applicant == nil || applicant.Review == nil || applicant.Review.ReviewResult == nil {
		return nil
	}
	res := applicant.Review.ReviewResult
	return &models.RejectionDetail{
		RejectType:        res.ReviewRejectType,
		RejectLabels:      res.RejectLabels,
		ModerationComment: res.ModerationComment,
	}
}

// VerifiedName resolves the applicant's legal name. The provider's
// fixed (operator-verified) fields win over self-reported ones, and the
// English transliteration wins over the localized script.
func VerifiedName(applicant *Applicant) string {
	for _, info := range []*Info{applicant.FixedInfo, applicant.Info} {
		if info == nil {
			continue
		}
		first := info.FirstNameEn
		if first == "" {
			first = info.FirstName
		}
		last := info.LastNameEn
		if last == "" {
			last = info.LastName
		}
		if name := strings.TrimSpace(first + " " + last); name != "" {
			return name
		}
	}
	return ""
}
