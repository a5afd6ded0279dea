// Package fetcher renders the OData documents once and writes them out,
// for use outside the HTTP server.
package fetcher

import (
	"context"
	"github.com/andesco/odata-valet/internal/api_service/odata"
	"github.com/andesco/odata-valet/internal/api_service/service"
	"github.com/andesco/odata-valet/internal/entities"
	"github.com/pkg/errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

type Fetcher struct {
	service Service
	out     io.Writer
	baseURL string
}

func NewFetcher(svc Service, out io.Writer, baseURL string) *Fetcher {
	return &Fetcher{
		service: svc,
		out:     out,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Feed writes the ExchangeRates feed for the given query parameters.
// An empty range still writes the feed and returns entities.ErrNotFound.
func (f *Fetcher) Feed(ctx context.Context, params url.Values) error {
	const op = "fetcher.Feed"

	q, err := service.ParseQuery(params)
	if err != nil {
		return errors.Wrap(err, op)
	}

	records, err := f.service.ExchangeRates(ctx, q)
	if err != nil {
		return errors.Wrap(err, op)
	}

	doc, err := odata.Feed(f.baseURL, odata.Columns(q.Codes), records, f.service.Now())
	if err != nil {
		return errors.Wrap(err, op)
	}

	if _, err := f.out.Write(doc); err != nil {
		return errors.Wrap(err, op)
	}

	slog.Debug("feed written", "op", op, "entries", len(records), "currencies", q.Codes)

	if len(records) == 0 {
		return errors.Wrap(entities.ErrNotFound, op)
	}

	return nil
}

// Metadata writes the $metadata document for a comma separated currency list.
func (f *Fetcher) Metadata(currencies string) error {
	const op = "fetcher.Metadata"

	codes, err := service.ParseCodes(currencies)
	if err != nil {
		return errors.Wrap(err, op)
	}

	doc, err := odata.Metadata(codes)
	if err != nil {
		return errors.Wrap(err, op)
	}

	if _, err := f.out.Write(doc); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}
