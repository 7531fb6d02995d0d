package client

import (
	"context"
	"io"
	"net/http"

	"github.com/north-cloud/webunpack/internal/domain"
)

// ReactifyDiscover lists the pages of siteURL that can be converted.
func (c *Client) ReactifyDiscover(ctx context.Context, siteURL string) ([]domain.DiscoveredPage, error) {
	resp, err := doJSON[domain.DiscoverResponse](ctx, c, call{
		op:     opReactifyDiscover,
		method: http.MethodPost,
		path:   "/reactify/discover",
		body:   domain.DiscoverRequest{URL: siteURL},
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, backendMessageError(opReactifyDiscover, resp.Message, MsgDiscoverFailed)
	}
	if resp.Pages == nil {
		return []domain.DiscoveredPage{}, nil
	}
	return resp.Pages, nil
}

// ReactifyConvert starts converting one page into a React project.
func (c *Client) ReactifyConvert(ctx context.Context, pageURL string, opts domain.ConversionOptions) (*domain.ReactifyResponse, error) {
	resp, err := doJSON[domain.ReactifyResponse](ctx, c, call{
		op:     opReactifyConvert,
		method: http.MethodPost,
		path:   "/reactify/convert",
		body:   domain.ReactifyConvertRequest{PageURL: pageURL, ConversionOptions: opts},
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, backendMessageError(opReactifyConvert, resp.Message, MsgConvertFailed)
	}
	return resp, nil
}

// ReactifyStatus fetches one conversion job.
func (c *Client) ReactifyStatus(ctx context.Context, jobID string) (*domain.ReactifyJob, error) {
	if err := CheckJobID(jobID); err != nil {
		return nil, err
	}
	job, err := doJSON[domain.ReactifyJob](ctx, c, call{
		op:      opReactifyStatus,
		method:  http.MethodGet,
		path:    pathID("/reactify/status/", jobID),
		auth:    true,
		retried: true,
	})
	if err != nil {
		return nil, err
	}
	job.Status = domain.ParseJobStatus(string(job.Status))
	return job, nil
}

// ReactifyDownload streams a finished React project into w.
func (c *Client) ReactifyDownload(ctx context.Context, jobID string, w io.Writer) (int64, error) {
	if err := CheckJobID(jobID); err != nil {
		return 0, err
	}
	return c.download(ctx, opReactifyDownload, pathID("/reactify/download/", jobID), w)
}
