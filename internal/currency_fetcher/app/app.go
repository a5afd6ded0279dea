package fetcherApp

import (
	"github.com/andesco/odata-valet/deploy/config"
	"github.com/andesco/odata-valet/internal/api_service/adapter/api_client/valet"
	"github.com/andesco/odata-valet/internal/api_service/service"
	"github.com/andesco/odata-valet/internal/currency_fetcher/fetcher"
	"github.com/andesco/odata-valet/internal/logger"
	"io"
	"log/slog"
	"os"
)

type FetcherApp struct {
	cfg *config.Config
}

func NewFetcherApp(cfg *config.Config) *FetcherApp {
	return &FetcherApp{cfg: cfg}
}

// Fetcher wires the Valet client and service to a writer. Logs go to stderr
// so the documents can be piped from stdout.
func (f *FetcherApp) Fetcher(out io.Writer, baseURL string) *fetcher.Fetcher {
	f.initLogger()

	if baseURL == "" {
		baseURL = f.cfg.HTTPServer.PublicBaseURL
	}

	client := valet.NewHTTPClient(f.cfg.Upstream.URL, valet.NewTransportClient())
	svc := service.NewService(client, service.WithTimeout(f.cfg.Upstream.Timeout))

	slog.Debug("fetcher initialized", "upstream", f.cfg.Upstream.URL, "base_url", baseURL)

	return fetcher.NewFetcher(svc, out, baseURL)
}

func (f *FetcherApp) initLogger() {
	slog.SetDefault(logger.New(os.Stderr, f.cfg.Log.Level, f.cfg.Log.Format))
}
