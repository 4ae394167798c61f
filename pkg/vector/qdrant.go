package vector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantStore is a Store backed by a Qdrant server over gRPC. Point IDs are
// UUIDs derived from the item ID; the item ID itself travels in the payload.
type QdrantStore struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
	dimension   int
}

// NewQdrantStore connects to Qdrant at addr (host:port of the gRPC
// endpoint).
func NewQdrantStore(addr, collection string, dimension int) (*QdrantStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vector: failed to connect to Qdrant at %s: %w", addr, err)
	}
	return &QdrantStore{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		collection:  collection,
		dimension:   dimension,
	}, nil
}

// EnsureCollection creates the collection if it does not exist, optionally
// recreating it first.
func (s *QdrantStore) EnsureCollection(ctx context.Context, recreate bool) error {
	list, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vector: failed to list collections: %w", err)
	}

	exists := false
	for _, col := range list.GetCollections() {
		if col.GetName() == s.collection {
			exists = true
			break
		}
	}

	if exists && recreate {
		_, err := s.collections.Delete(ctx, &qdrantclient.DeleteCollection{
			CollectionName: s.collection,
		})
		if err != nil {
			return fmt.Errorf("vector: failed to delete collection: %w", err)
		}
		exists = false
	}

	if !exists {
		_, err = s.collections.Create(ctx, &qdrantclient.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: &qdrantclient.VectorsConfig{
				Config: &qdrantclient.VectorsConfig_Params{
					Params: &qdrantclient.VectorParams{
						Size:     uint64(s.dimension),
						Distance: qdrantclient.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("vector: failed to create collection: %w", err)
		}
	}
	return nil
}

// Upsert writes a single point. The item ID is stored in the payload under
// "item_id" so Search can return it.
func (s *QdrantStore) Upsert(ctx context.Context, id string, vector []float32, payload map[string]string) error {
	values := make(map[string]*qdrantclient.Value, len(payload)+1)
	for k, v := range payload {
		values[k] = &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: v}}
	}
	values["item_id"] = &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: id}}

	point := &qdrantclient.PointStruct{
		Id: &qdrantclient.PointId{
			PointIdOptions: &qdrantclient.PointId_Uuid{
				Uuid: uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String(),
			},
		},
		Vectors: &qdrantclient.Vectors{
			VectorsOptions: &qdrantclient.Vectors_Vector{
				Vector: &qdrantclient.Vector{Data: vector},
			},
		},
		Payload: values,
	}

	_, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qdrantclient.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("vector: failed to upsert point: %w", err)
	}
	return nil
}

// Search runs a similarity search and maps hits back to item IDs.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int) ([]Match, error) {
	resp, err := s.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vector: search failed: %w", err)
	}

	matches := make([]Match, 0, len(resp.GetResult()))
	for _, hit := range resp.GetResult() {
		payload := make(map[string]string, len(hit.GetPayload()))
		for k, v := range hit.GetPayload() {
			payload[k] = v.GetStringValue()
		}
		matches = append(matches, Match{
			ID:      payload["item_id"],
			Score:   hit.GetScore(),
			Payload: payload,
		})
	}
	return matches, nil
}

// Close tears down the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.conn.Close()
}
