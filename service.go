// Copyright 2025 Palletic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package warevec

import (
	"context"
	"errors"
	"log/slog"

	"github.com/palletic/warevec/ai"
	"github.com/palletic/warevec/ai/openai"
	"github.com/palletic/warevec/catalog"
	"github.com/palletic/warevec/ingestion"
	"github.com/palletic/warevec/jobs"
	"github.com/palletic/warevec/search"
	"github.com/palletic/warevec/storage"
	"github.com/palletic/warevec/storage/badger"
	"github.com/palletic/warevec/storage/qdrant"
)

// Config wires a Service from external addresses.
type Config struct {
	// CatalogURL is the material catalog endpoint.
	CatalogURL string

	// QdrantURL is the vector store base URL.
	QdrantURL string

	// Collection overrides the vector collection name. Empty keeps the
	// default.
	Collection string

	// QdrantAPIKey authenticates against managed Qdrant deployments.
	// Empty for local instances.
	QdrantAPIKey string

	// AI configures the embedding client. Nil uses ai.DefaultConfig.
	AI *ai.Config

	// ArchivePath is the directory for the durable job archive. Empty
	// keeps job history in memory only.
	ArchivePath string
}

// Service owns the collaborators of one warevec instance: the catalog
// client, the embedder, the vector index, the job registry and the
// optional job archive. Create it once at startup and Close it on the
// way out.
type Service struct {
	source   ingestion.CatalogSource
	embedder ai.Embedder
	index    storage.VectorIndex
	archive  storage.JobArchive
	registry *jobs.Registry
	logger   *slog.Logger
}

// ServiceOption overrides how a Service builds its collaborators.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	source   ingestion.CatalogSource
	embedder ai.Embedder
	index    storage.VectorIndex
	archive  storage.JobArchive
}

// WithCatalogSource injects a pre-built catalog source instead of the
// HTTP client built from Config.CatalogURL.
func WithCatalogSource(source ingestion.CatalogSource) ServiceOption {
	return func(o *serviceOptions) {
		o.source = source
	}
}

// WithEmbedder injects a pre-built embedder instead of the one built
// from Config.AI.
func WithEmbedder(embedder ai.Embedder) ServiceOption {
	return func(o *serviceOptions) {
		o.embedder = embedder
	}
}

// WithIndex injects a pre-built vector index instead of the Qdrant
// client built from Config.QdrantURL.
func WithIndex(index storage.VectorIndex) ServiceOption {
	return func(o *serviceOptions) {
		o.index = index
	}
}

// WithArchive injects a pre-built job archive instead of the Badger
// archive built from Config.ArchivePath.
func WithArchive(archive storage.JobArchive) ServiceOption {
	return func(o *serviceOptions) {
		o.archive = archive
	}
}

// NewService builds every collaborator and the job registry. The
// embedder construction probes the embedding service once to learn the
// vector dimension, so a Service only comes up against a reachable
// model unless one is injected.
func NewService(ctx context.Context, cfg Config, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	source := options.source
	if source == nil {
		if cfg.CatalogURL == "" {
			return nil, errors.New("catalog URL is required")
		}
		source = catalog.NewClient(cfg.CatalogURL)
	}

	embedder := options.embedder
	if embedder == nil {
		aiCfg := cfg.AI
		if aiCfg == nil {
			aiCfg = ai.DefaultConfig()
		}
		var err error
		embedder, err = openai.NewEmbedder(ctx, aiCfg)
		if err != nil {
			return nil, err
		}
	}

	index := options.index
	if index == nil {
		var indexOpts []qdrant.Option
		if cfg.Collection != "" {
			indexOpts = append(indexOpts, qdrant.WithCollection(cfg.Collection))
		}
		if cfg.QdrantAPIKey != "" {
			indexOpts = append(indexOpts, qdrant.WithAPIKey(cfg.QdrantAPIKey))
		}
		var err error
		index, err = qdrant.NewIndex(cfg.QdrantURL, indexOpts...)
		if err != nil {
			return nil, err
		}
	}

	archive := options.archive
	if archive == nil && cfg.ArchivePath != "" {
		var err error
		archive, err = badger.NewArchive(cfg.ArchivePath)
		if err != nil {
			return nil, err
		}
	}

	var registryOpts []jobs.Option
	if archive != nil {
		registryOpts = append(registryOpts, jobs.WithArchive(archive))
	}

	return &Service{
		source:   source,
		embedder: embedder,
		index:    index,
		archive:  archive,
		registry: jobs.NewRegistry(registryOpts...),
		logger:   slog.Default(),
	}, nil
}

// Close releases the service's resources. Only the job archive holds
// any; the HTTP collaborators are connectionless between calls.
func (s *Service) Close() error {
	if s.archive == nil {
		return nil
	}
	if err := s.archive.Close(); err != nil {
		s.logger.Error("error closing job archive", "err", err)
		return err
	}
	return nil
}

// Registry returns the job registry owned by this service.
func (s *Service) Registry() *jobs.Registry {
	return s.registry
}

// Embedder returns the embedding client.
func (s *Service) Embedder() ai.Embedder {
	return s.embedder
}

// Index returns the vector index.
func (s *Service) Index() storage.VectorIndex {
	return s.index
}

// Archive returns the job archive, or nil when persistence is disabled.
func (s *Service) Archive() storage.JobArchive {
	return s.archive
}

// NewPipeline creates an ingestion pipeline over the service's catalog,
// embedder and index.
func (s *Service) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(s.source, s.embedder, s.index, opts...)
}

// NewSearcher creates a searcher over the service's embedder and index.
func (s *Service) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(s.embedder, s.index, opts...)
}
