package api

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"mime/multipart"
	"net/url"
	"strconv"
	"sync/atomic"

	"blitz-tracker/internal/config"
	"blitz-tracker/internal/constants"
	"blitz-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
	"golang.org/x/net/html"
)

// wotinspector.com endpoints. Info lookup, download and listing share the
// throttled request budget; the upload endpoint is unthrottled.
const (
	BaseURL         = "https://replays.wotinspector.com"
	ListingURLBase  = BaseURL + "/en/sort/ut/page/"
	DownloadURLBase = domain.ReplayDownloadURLBase
	ViewURLBase     = domain.ReplayViewURLBase

	UploadURL         = "https://api.wotinspector.com/replay/upload?"
	ReplayInfoURLBase = "https://api.wotinspector.com/replay/upload?details=full&key="
)

// Client synchronizes replays with wotinspector.com over a shared
// rate-limited transport. The endpoint bases default to the production
// service and are only overridden in tests.
type Client struct {
	http      *ThrottledClient
	logger    zerolog.Logger
	uploadSeq atomic.Uint64

	infoURL     string
	uploadURL   string
	listingURL  string
	downloadURL string
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	filters := []string{ReplayInfoURLBase, DownloadURLBase, ListingURLBase}
	return &Client{
		http:        NewThrottledClient(cfg.RateLimit, filters, cfg.WIAuthToken),
		logger:      logger,
		infoURL:     ReplayInfoURLBase,
		uploadURL:   UploadURL,
		listingURL:  ListingURLBase,
		downloadURL: DownloadURLBase,
	}
}

// ReplayInfoURL returns the info-lookup URL for a replay id.
func (c *Client) ReplayInfoURL(id string) string {
	return c.infoURL + id
}

// ListingURL returns the listing-page URL for a zero-based page index.
func (c *Client) ListingURL(page int) string {
	return fmt.Sprintf("%s%d?vt=#filters", c.listingURL, page)
}

// GetReplay fetches a replay record by id. Any transport error or parse
// failure is logged and reported as an absent record, never raised: a nil
// result doubles as the existence check used for upload deduplication.
func (c *Client) GetReplay(ctx context.Context, replayID string) *domain.Replay {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.ReplayInfoURL(replayID))
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := c.http.Do(ctx, req, resp); err != nil {
		c.logger.Debug().Err(err).Str("replay_id", replayID).Msg("replay fetch failed")
		return nil
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Debug().Int("status", resp.StatusCode()).Str("replay_id", replayID).Msg("replay not found")
		return nil
	}

	replay, err := domain.ParseReplay(resp.Body())
	if err != nil {
		c.logger.Error().Err(err).Str("replay_id", replayID).Msg("invalid replay response")
		return nil
	}
	return replay
}

// PostOptions carries the upload metadata for PostReplay.
type PostOptions struct {
	Filename  string
	Title     string
	AccountID int64
	Private   bool
}

// PostReplay uploads raw replay bytes. The md5 digest of the bytes is the
// candidate replay id: if the hosting service already has a record for it the
// existing record is returned and no upload happens, making byte-identical
// resubmission idempotent. Otherwise the payload is posted as a base64
// multipart form, retried up to the fixed attempt bound with a constant pause
// between attempts. Exhausting retries yields nil, logged, never a panic.
//
// Concurrent callers posting the same bytes may both miss the existence check
// and both upload; the result is a duplicate but equivalent remote record,
// which is accepted.
func (c *Client) PostReplay(ctx context.Context, data []byte, opts PostOptions) *domain.Replay {
	seq := c.uploadSeq.Add(1)
	if opts.Filename == "" {
		opts.Filename = "Replay"
	}
	if opts.Title == "" {
		opts.Title = "Replay"
	}

	digest := md5.Sum(data)
	replayID := hex.EncodeToString(digest[:])

	if existing := c.GetReplay(ctx, replayID); existing != nil {
		c.logger.Debug().Uint64("upload", seq).Str("title", opts.Title).Msg("already uploaded")
		return existing
	}

	postURL := c.buildUploadURL(replayID, opts)
	body, contentType, err := multipartBody(opts.Filename, data)
	if err != nil {
		c.logger.Error().Err(err).Uint64("upload", seq).Msg("could not encode replay payload")
		return nil
	}

	var replay *domain.Replay
	attempt := 0
	backoff := retry.WithMaxRetries(constants.MaxPostRetries-1, retry.NewConstant(constants.PostRetryPause))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		c.logger.Debug().
			Uint64("upload", seq).
			Str("title", opts.Title).
			Int("attempt", attempt).
			Int("max_attempts", constants.MaxPostRetries).
			Msg("posting replay")

		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(postURL)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType(contentType)
		req.SetBody(body)

		if err := c.http.Do(ctx, req, resp); err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode() != fasthttp.StatusOK {
			return retry.RetryableError(fmt.Errorf("HTTP %d", resp.StatusCode()))
		}
		parsed, err := domain.ParseReplay(resp.Body())
		if err != nil {
			return retry.RetryableError(err)
		}
		replay = parsed
		return nil
	})
	if err != nil {
		c.logger.Error().Err(err).Uint64("upload", seq).Str("title", opts.Title).Msg("could not post replay")
		return nil
	}
	return replay
}

// buildUploadURL builds the upload endpoint URL. Parameter order is fixed so
// the URL never collides with the throttled info-lookup prefix.
func (c *Client) buildUploadURL(replayID string, opts PostOptions) string {
	private := "0"
	if opts.Private {
		private = "1"
	}
	return c.uploadURL +
		"title=" + url.QueryEscape(opts.Title) +
		"&private=" + private +
		"&uploaded_by=" + strconv.FormatInt(opts.AccountID, 10) +
		"&details=full" +
		"&key=" + url.QueryEscape(replayID)
}

func multipartBody(filename string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write([]byte(base64.StdEncoding.EncodeToString(data))); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// GetReplayListing fetches one page of the paginated replay listing and
// returns the raw HTML body. Pagination is the caller's loop.
func (c *Client) GetReplayListing(ctx context.Context, page int) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.ListingURL(page))
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := c.http.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("replay listing page %d: %w", page, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("replay listing page %d: HTTP %d", page, resp.StatusCode())
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

// ParseReplayIDs scans a listing page for anchors pointing at the replay
// download URL and returns the distinct trailing path segments as candidate
// replay ids. The page markup is outside our control: malformed anchors are
// skipped individually and a page that fails to parse at all yields an empty
// set, never an error.
func (c *Client) ParseReplayIDs(doc []byte) map[string]struct{} {
	ids := make(map[string]struct{})

	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to parse replay listing")
		return ids
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if id, ok := c.ReplayIDFromURL(attr.Val); ok {
					ids[id] = struct{}{}
					c.logger.Debug().Str("href", attr.Val).Msg("adding replay link")
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return ids
}

// ReplayIDFromURL extracts the replay id from a download URL.
func (c *Client) ReplayIDFromURL(u string) (string, bool) {
	if len(u) <= len(c.downloadURL) || u[:len(c.downloadURL)] != c.downloadURL {
		return "", false
	}
	id := u[len(c.downloadURL):]
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '/' {
			id = id[i+1:]
			break
		}
	}
	if id == "" {
		return "", false
	}
	return id, true
}
