package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/north-cloud/webunpack/internal/domain"
)

// DiscoverPages enumerates the sub-pages of siteURL for a multi-page export.
func (c *Client) DiscoverPages(ctx context.Context, siteURL, siteType string) ([]domain.DiscoveredPage, error) {
	resp, err := doJSON[domain.DiscoverResponse](ctx, c, call{
		op:     opDiscoverPages,
		method: http.MethodPost,
		path:   "/discover-pages",
		body:   domain.DiscoverRequest{URL: siteURL, SiteType: siteType},
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, backendMessageError(opDiscoverPages, resp.Message, MsgDiscoverFailed)
	}
	if resp.Pages == nil {
		return []domain.DiscoveredPage{}, nil
	}
	return resp.Pages, nil
}

// Scrape submits an export job. Selected pages are dropped unless the mode
// is multi-page.
func (c *Client) Scrape(ctx context.Context, req domain.ExportRequest) (*domain.ScrapeResponse, error) {
	resp, err := doJSON[domain.ScrapeResponse](ctx, c, call{
		op:     opScrape,
		method: http.MethodPost,
		path:   "/scrape",
		body:   req.Normalized(),
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, backendMessageError(opScrape, resp.Message, MsgScrapeFailed)
	}
	if strings.TrimSpace(resp.JobID) == "" {
		return nil, &APIError{Kind: KindExtraction, Op: opScrape, Message: "backend returned no job id"}
	}
	return resp, nil
}

// JobStatus fetches the current state of one export job. It is not retried:
// the polling loop already calls it on a fixed cadence.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*domain.ExportJob, error) {
	if err := CheckJobID(jobID); err != nil {
		return nil, err
	}
	job, err := doJSON[domain.ExportJob](ctx, c, call{
		op:     opJobStatus,
		method: http.MethodGet,
		path:   pathID("/job-status/", jobID),
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	job.Status = domain.ParseJobStatus(string(job.Status))
	return job, nil
}

// MyJobs lists the caller's past jobs.
func (c *Client) MyJobs(ctx context.Context) ([]domain.ExportJob, error) {
	resp, err := doJSON[domain.JobsResponse](ctx, c, call{
		op:      opMyJobs,
		method:  http.MethodGet,
		path:    "/my-jobs",
		auth:    true,
		retried: true,
	})
	if err != nil {
		return nil, err
	}
	for i := range resp.Jobs {
		resp.Jobs[i].Status = domain.ParseJobStatus(string(resp.Jobs[i].Status))
	}
	if resp.Jobs == nil {
		return []domain.ExportJob{}, nil
	}
	return resp.Jobs, nil
}

// Download streams a completed export into w and returns the byte count.
func (c *Client) Download(ctx context.Context, jobID string, w io.Writer) (int64, error) {
	if err := CheckJobID(jobID); err != nil {
		return 0, err
	}
	return c.download(ctx, opDownload, pathID("/download/", jobID), w)
}

func (c *Client) download(ctx context.Context, op, path string, w io.Writer) (int64, error) {
	var n int64
	err := c.do(ctx, call{
		op:      op,
		method:  http.MethodGet,
		path:    path,
		auth:    true,
		timeout: c.downloadTimeout,
	}, func(resp *http.Response) error {
		var copyErr error
		n, copyErr = io.Copy(w, resp.Body)
		if copyErr != nil {
			return &APIError{Kind: KindDownload, Op: op, StatusCode: resp.StatusCode, Message: MsgDownloadFailed, Cause: copyErr}
		}
		return nil
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
			apiErr.Message = MsgDownloadFailed
		}
		return n, err
	}
	return n, nil
}

// CheckJobID rejects identifiers that cannot name a job.
func CheckJobID(jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return &domain.FormError{Field: "job_id", Message: "Job ID is required"}
	}
	return nil
}
