package retrieval

import (
	"context"
	"fmt"
	"regexp"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/lostlondon/vicd/internal/fusion"
)

// collectionNamePattern validates collection names:
// lowercase letters, numbers, underscores, 1-64 characters.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// QdrantConfig holds configuration for the Qdrant gRPC searcher.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	Host string

	// Port is the Qdrant gRPC port (6334 by default, not the 6333
	// HTTP port).
	Port int

	// Collection is the article collection searched per query.
	Collection string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// MaxMessageSize is the maximum gRPC message size in bytes.
	MaxMessageSize int
}

// Validate validates the configuration.
func (c QdrantConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host required", ErrSearchFailed)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrSearchFailed, c.Port)
	}
	if !collectionNamePattern.MatchString(c.Collection) {
		return fmt.Errorf("%w: invalid collection name: %q", ErrSearchFailed, c.Collection)
	}
	return nil
}

// QdrantSearcher is a VectorSearcher backed by Qdrant's native gRPC
// client. Binary protobuf transport avoids the HTTP payload limits of
// the REST layer.
type QdrantSearcher struct {
	client *qdrant.Client
	config QdrantConfig
}

// NewQdrantSearcher connects to Qdrant and returns a vector searcher.
func NewQdrantSearcher(config QdrantConfig) (*QdrantSearcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	maxMsg := config.MaxMessageSize
	if maxMsg == 0 {
		maxMsg = 50 * 1024 * 1024
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		UseTLS: config.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(maxMsg),
				grpc.MaxCallSendMsgSize(maxMsg),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", ErrSearchFailed, err)
	}

	return &QdrantSearcher{client: client, config: config}, nil
}

// EnsureCollection creates the configured collection if it does not
// exist yet, with cosine distance at the given dimensionality.
func (s *QdrantSearcher) EnsureCollection(ctx context.Context, vectorSize int) error {
	exists, err := s.client.CollectionExists(ctx, s.config.Collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %s: %v", ErrSearchFailed, s.config.Collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.config.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %s: %v", ErrSearchFailed, s.config.Collection, err)
	}
	return nil
}

// SearchVector queries the collection by embedding, best-first.
func (s *QdrantSearcher) SearchVector(ctx context.Context, vector []float32, limit int) ([]fusion.Candidate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrSearchFailed, limit)
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.config.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying collection %s: %v", ErrSearchFailed, s.config.Collection, err)
	}

	candidates := make([]fusion.Candidate, 0, len(points))
	for _, point := range points {
		c := fusion.Candidate{
			SemanticScore: point.Score,
			HasSemantic:   true,
		}
		if id := point.GetId(); id != nil {
			c.ID = id.GetUuid()
		}
		for key, value := range point.GetPayload() {
			sv, ok := value.GetKind().(*qdrant.Value_StringValue)
			if !ok {
				continue
			}
			switch key {
			case "id":
				c.ID = sv.StringValue
			case "title":
				c.Title = sv.StringValue
			case "content":
				c.Content = sv.StringValue
			}
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// Close closes the gRPC connection.
func (s *QdrantSearcher) Close() error {
	return s.client.Close()
}
