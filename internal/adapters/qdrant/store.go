// Package qdrant implements the semantic half of domain.Retriever over
// Qdrant's gRPC API, grounded on manifold's
// internal/persistence/databases.qdrantVector: the same Host/Port/UseTLS/
// APIKey Config construction, ensureCollection-on-construct, and
// deterministic-UUID point-ID derivation (Qdrant only accepts UUIDs/uints as
// point IDs, so a non-UUID passage ID is rehashed via uuid.NewSHA1 and the
// original kept in the payload). Embed and SearchLexical are intentionally
// not implemented here; internal/adapters/hybrid composes this store's
// SearchSemantic with internal/lexical and an embedding client to satisfy
// the full domain.Retriever interface.
package qdrant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/wealthlens/ragpipe/internal/domain"
)

const payloadIDField = "_original_id"
const payloadTextField = "_text"
const payloadDocTypeField = "_doc_type"
const payloadPriorityField = "_priority"

// Store wraps a Qdrant collection for nearest-neighbour passage search.
type Store struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// Config parameterizes collection creation.
type Config struct {
	Host       string
	Port       int
	UseTLS     bool
	APIKey     string
	Collection string
	Dimensions int
	Metric     string // cosine|l2|euclidean|ip|dot|manhattan, default cosine
}

// New connects to Qdrant and ensures the configured collection exists,
// creating it with the requested vector size/distance metric if absent.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection name is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("qdrant: dimensions must be positive")
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: create client: %w", err)
	}
	s := &Store{client: client, collection: cfg.Collection, dimension: cfg.Dimensions}
	if err := s.ensureCollection(ctx, cfg.Metric); err != nil {
		client.Close()
		return nil, fmt.Errorf("qdrant: ensure collection: %w", err)
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context, metric string) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}
	if exists {
		return nil
	}
	var distance qdrant.Distance
	switch strings.ToLower(strings.TrimSpace(metric)) {
	case "l2", "euclidean":
		distance = qdrant.Distance_Euclid
	case "ip", "dot":
		distance = qdrant.Distance_Dot
	case "manhattan":
		distance = qdrant.Distance_Manhattan
	default:
		distance = qdrant.Distance_Cosine
	}
	return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: distance,
		}),
	})
}

func pointID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

// Upsert indexes a passage's embedding plus the text/metadata needed to
// reconstruct a domain.SemanticHit on search.
func (s *Store) Upsert(ctx context.Context, p domain.Passage, vector []float32) error {
	uuidStr := pointID(p.ID)
	payload := map[string]any{
		payloadTextField:     p.Text,
		payloadDocTypeField:  p.Metadata.DocumentType,
		payloadPriorityField: string(p.Metadata.Priority),
	}
	for k, v := range p.Metadata.Fields {
		payload[k] = v
	}
	if uuidStr != p.ID {
		payload[payloadIDField] = p.ID
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(uuidStr),
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert: %w", err)
	}
	return nil
}

// SearchSemantic implements the vector half of domain.Retriever.
func (s *Store) SearchSemantic(ctx context.Context, collection string, vector []float32, k int) ([]domain.SemanticHit, error) {
	if k <= 0 {
		k = 10
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	limit := uint64(k)
	target := s.collection
	if collection != "" {
		target = collection
	}
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: target,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query: %w", err)
	}
	out := make([]domain.SemanticHit, 0, len(hits))
	for _, hit := range hits {
		uuidStr := hit.Id.GetUuid()
		if uuidStr == "" {
			uuidStr = hit.Id.String()
		}
		meta := domain.PassageMetadata{Fields: map[string]string{}}
		var text, originalID string
		for key, v := range hit.Payload {
			switch key {
			case payloadIDField:
				originalID = v.GetStringValue()
			case payloadTextField:
				text = v.GetStringValue()
			case payloadDocTypeField:
				meta.DocumentType = v.GetStringValue()
			case payloadPriorityField:
				meta.Priority = domain.Priority(v.GetStringValue())
			default:
				meta.Fields[key] = v.GetStringValue()
			}
		}
		id := originalID
		if id == "" {
			id = uuidStr
		}
		out = append(out, domain.SemanticHit{
			ID: id, Text: text, Metadata: meta, Score: float64(hit.Score),
		})
	}
	return out, nil
}

// CollectionInfo reports the configured collection's point count and vector
// dimension, used by internal/pipeline.Warmup to check the embedding
// dimension invariant.
func (s *Store) CollectionInfo(ctx context.Context, collection string) (domain.CollectionStats, error) {
	target := s.collection
	if collection != "" {
		target = collection
	}
	info, err := s.client.GetCollectionInfo(ctx, target)
	if err != nil {
		return domain.CollectionStats{}, fmt.Errorf("qdrant: collection info: %w", err)
	}
	return domain.CollectionStats{
		DocCount:     int(info.GetPointsCount()),
		EmbeddingDim: s.dimension,
	}, nil
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}
