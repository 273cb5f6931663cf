package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	apiVersion     = "202411"
	restliProtocol = "2.0.0"

	// Upload sources and payloads are bounded so a misbehaving asset host
	// cannot stall or blow up a publish run.
	maxAssetBytes = 100 << 20
)

// Client is a thin wrapper over LinkedIn's Posts API. It turns a decrypted
// token plus content into a published post and maps API failures into
// *PlatformError values.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PostInput describes a simple post with an optional image attachment.
type PostInput struct {
	AccessToken  string
	AuthorURN    string
	Text         string
	ImageURL     string
	ImageAltText string
}

// DocumentPostInput describes a carousel publish: a caption plus a
// pre-rendered document.
type DocumentPostInput struct {
	AccessToken string
	AuthorURN   string
	Text        string
	DocumentURL string
	Title       string
}

// PublishResult is the external identity of a successfully created post.
type PublishResult struct {
	PostURN string `json:"post_urn"`
	PostURL string `json:"post_url"`
}

// CreatePost publishes a text post, uploading and attaching the image first
// when one is provided.
func (c *Client) CreatePost(ctx context.Context, in PostInput) (PublishResult, error) {
	var content map[string]any
	if in.ImageURL != "" {
		assetURN, err := c.uploadAsset(ctx, in.AccessToken, in.AuthorURN, "images", "image", in.ImageURL)
		if err != nil {
			return PublishResult{}, err
		}
		media := map[string]any{"id": assetURN}
		if in.ImageAltText != "" {
			media["altText"] = in.ImageAltText
		}
		content = map[string]any{"media": media}
	}
	return c.createPost(ctx, in.AccessToken, in.AuthorURN, in.Text, content)
}

// CreateDocumentPost publishes a document (carousel) post.
func (c *Client) CreateDocumentPost(ctx context.Context, in DocumentPostInput) (PublishResult, error) {
	assetURN, err := c.uploadAsset(ctx, in.AccessToken, in.AuthorURN, "documents", "document", in.DocumentURL)
	if err != nil {
		return PublishResult{}, err
	}
	content := map[string]any{
		"media": map[string]any{
			"id":    assetURN,
			"title": in.Title,
		},
	}
	return c.createPost(ctx, in.AccessToken, in.AuthorURN, in.Text, content)
}

func (c *Client) createPost(ctx context.Context, token, author, text string, content map[string]any) (PublishResult, error) {
	body := map[string]any{
		"author":     author,
		"commentary": text,
		"visibility": "PUBLIC",
		"distribution": map[string]any{
			"feedDistribution":               "MAIN_FEED",
			"targetEntities":                 []any{},
			"thirdPartyDistributionChannels": []any{},
		},
		"lifecycleState":            "PUBLISHED",
		"isReshareDisabledByAuthor": false,
	}
	if content != nil {
		body["content"] = content
	}

	resp, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/rest/posts", token, body)
	if err != nil {
		return PublishResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return PublishResult{}, c.asPlatformError(resp)
	}

	postURN := resp.Header.Get("x-restli-id")
	if postURN == "" {
		return PublishResult{}, &PlatformError{
			StatusCode:  resp.StatusCode,
			Message:     "post created but no id returned",
			UserMessage: userMessageFor(resp.StatusCode),
		}
	}

	return PublishResult{PostURN: postURN, PostURL: PostURL(postURN)}, nil
}

// uploadAsset runs LinkedIn's two-step asset flow: initialize an upload for
// the author, then stream the bytes from the generated asset URL into the
// returned upload endpoint.
func (c *Client) uploadAsset(ctx context.Context, token, owner, endpoint, urnField, sourceURL string) (string, error) {
	initBody := map[string]any{
		"initializeUploadRequest": map[string]any{"owner": owner},
	}

	resp, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/rest/%s?action=initializeUpload", c.baseURL, endpoint), token, initBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.asPlatformError(resp)
	}

	var initResp struct {
		Value map[string]string `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&initResp); err != nil {
		return "", fmt.Errorf("decode initializeUpload response: %w", err)
	}
	uploadURL := initResp.Value["uploadUrl"]
	assetURN := initResp.Value[urnField]
	if uploadURL == "" || assetURN == "" {
		return "", &PlatformError{
			StatusCode:  resp.StatusCode,
			Message:     "initializeUpload returned no upload target",
			UserMessage: userMessageFor(http.StatusInternalServerError),
		}
	}

	data, err := c.fetchSource(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	putReq.Header.Set("Authorization", "Bearer "+token)

	putResp, err := c.httpClient.Do(putReq)
	if err != nil {
		return "", fmt.Errorf("asset upload failed: %w", err)
	}
	defer putResp.Body.Close()
	io.Copy(io.Discard, putResp.Body)

	if putResp.StatusCode < 200 || putResp.StatusCode >= 300 {
		return "", &PlatformError{
			StatusCode:  putResp.StatusCode,
			Message:     fmt.Sprintf("asset upload returned %d", putResp.StatusCode),
			UserMessage: userMessageFor(putResp.StatusCode),
		}
	}

	return assetURN, nil
}

// fetchSource downloads the generated asset from its storage URL. No auth:
// generated assets live behind signed URLs.
func (c *Client) fetchSource(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch asset source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset source returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAssetBytes {
		return nil, fmt.Errorf("asset source exceeds %d bytes", maxAssetBytes)
	}
	return data, nil
}

func (c *Client) doJSON(ctx context.Context, method, url, token string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("LinkedIn-Version", apiVersion)
	req.Header.Set("X-Restli-Protocol-Version", restliProtocol)

	return c.httpClient.Do(req)
}

// asPlatformError converts a non-success API response into a *PlatformError,
// preserving LinkedIn's own message for logs.
func (c *Client) asPlatformError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var apiErr struct {
		Message          string `json:"message"`
		ServiceErrorCode int    `json:"serviceErrorCode"`
		Status           int    `json:"status"`
	}
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = string(raw)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	logrus.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"service": apiErr.ServiceErrorCode,
	}).Debugf("[LINKEDIN] API error: %s", apiErr.Message)

	return &PlatformError{
		StatusCode:  resp.StatusCode,
		ServiceCode: apiErr.ServiceErrorCode,
		Message:     apiErr.Message,
		UserMessage: userMessageFor(resp.StatusCode),
	}
}
