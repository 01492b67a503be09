package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"carcat/internal/catalog"
	"carcat/internal/config"
	catalogerrors "carcat/internal/errors"
	"carcat/internal/observability"
	"carcat/internal/validation"
)

// Outcome summarizes one import batch. Success and Failed count only
// records that reached the store; Rejected counts records dropped during
// parsing or validation.
type Outcome struct {
	Success  int      `json:"success"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
	Rejected int      `json:"rejected"`
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
}

// Importer reconciles external car records into a catalog store
type Importer struct {
	store   catalog.Store
	logger  *slog.Logger
	client  *http.Client
	timeout time.Duration
	now     func() time.Time
	suffix  func() string
}

// Option configures an Importer
type Option func(*Importer)

// WithLogger sets the logger for rejection and failure reports
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) {
		im.logger = logger
	}
}

// WithClock replaces time.Now for year bounds and synthesized keys
func WithClock(now func() time.Time) Option {
	return func(im *Importer) {
		im.now = now
	}
}

// WithHTTPClient sets the client used by ImportRemote
func WithHTTPClient(client *http.Client) Option {
	return func(im *Importer) {
		im.client = client
	}
}

// WithTimeout bounds a single remote fetch
func WithTimeout(timeout time.Duration) Option {
	return func(im *Importer) {
		im.timeout = timeout
	}
}

// New creates an Importer writing to store
func New(store catalog.Store, opts ...Option) *Importer {
	im := &Importer{
		store:   store,
		logger:  observability.Discard(),
		client:  http.DefaultClient,
		timeout: config.RemoteImportTimeout,
		now:     time.Now,
		suffix:  randomSuffix,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportFile imports a CSV file. A file that cannot be opened or read is
// fatal and produces no Outcome.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Outcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, catalogerrors.WrapSourceError(err, path)
	}
	defer f.Close()

	payload, err := DecodeDelimited(f)
	if err != nil {
		return nil, catalogerrors.WrapSourceError(err, path)
	}

	im.logger.Info("import source resolved", "source", path, "kind", payload.Kind.String(), "records", len(payload.Records))
	return im.ImportPayload(ctx, payload), nil
}

// ImportReader imports a CSV stream
func (im *Importer) ImportReader(ctx context.Context, r io.Reader) (*Outcome, error) {
	payload, err := DecodeDelimited(r)
	if err != nil {
		return nil, catalogerrors.WrapSourceError(err, "stream")
	}
	return im.ImportPayload(ctx, payload), nil
}

// ImportJSON imports a JSON document shaped as an array of cars or an
// object wrapping one under "cars" or "data"
func (im *Importer) ImportJSON(ctx context.Context, r io.Reader) (*Outcome, error) {
	payload, err := DecodeJSON(r)
	if err != nil {
		return nil, catalogerrors.WrapSourceError(err, "json")
	}
	return im.ImportPayload(ctx, payload), nil
}

// ImportRemote fetches a JSON document from url and imports it. Transport
// failures, non-2xx responses and undecodable bodies are fatal.
func (im *Importer) ImportRemote(ctx context.Context, url, token string) (*Outcome, error) {
	if err := validation.ValidateSourceURL(url); err != nil {
		return nil, catalogerrors.WrapValidationError(err, url)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, im.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, catalogerrors.WrapSourceError(err, url)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := im.client.Do(req)
	if err != nil {
		return nil, catalogerrors.WrapNetworkError(err, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, catalogerrors.WrapHTTPStatus(resp.StatusCode, url)
	}

	payload, err := DecodeJSON(resp.Body)
	if err != nil {
		return nil, catalogerrors.WrapSourceError(err, url)
	}

	im.logger.Info("import source resolved", "source", url, "kind", payload.Kind.String(), "records", len(payload.Records))
	return im.ImportPayload(ctx, payload), nil
}

// ImportPayload runs normalization, validation and upsert over every record
// in order. Per-record problems never abort the batch.
func (im *Importer) ImportPayload(ctx context.Context, payload SourcePayload) *Outcome {
	outcome := &Outcome{Errors: []string{}}
	env := normalizeEnv{now: im.now(), suffix: im.suffix}

	for _, raw := range payload.Records {
		record, err := normalize(raw, env)
		if err != nil {
			outcome.Rejected++
			im.logger.Warn("skipping unparseable record", "line", raw.Line, "error", err)
			continue
		}

		if err := validation.ValidateRecord(record, env.now); err != nil {
			outcome.Rejected++
			im.logger.Warn("skipping invalid record",
				"line", raw.Line,
				"natural_key", record.NaturalKey,
				"error", catalogerrors.WrapValidationError(err, record.NaturalKey))
			continue
		}

		created, err := catalog.Upsert(ctx, im.store, record)
		if err != nil {
			outcome.Failed++
			outcome.Errors = append(outcome.Errors,
				fmt.Sprintf("Failed to import %s %s (%s): %v", record.Make, record.Model, record.NaturalKey, err))
			im.logger.Error("failed to store record",
				"line", raw.Line,
				"error", catalogerrors.WrapStoreError(err, "upsert", record.NaturalKey))
			continue
		}

		outcome.Success++
		if created {
			outcome.Created++
		} else {
			outcome.Updated++
		}
	}

	im.logger.Info("import finished",
		"success", outcome.Success,
		"failed", outcome.Failed,
		"rejected", outcome.Rejected,
		"created", outcome.Created,
		"updated", outcome.Updated)

	return outcome
}
