// Package qdrant is the production vectorindex.Adapter, backed by
// Qdrant's gRPC client.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vkp/internal/vectorindex"
	"vkp/internal/vkp"
)

// Adapter is a vectorindex.Adapter over a Qdrant collection per triple.
type Adapter struct {
	points     pb.PointsClient
	collection pb.CollectionsClient
	vectorSize uint64
}

var _ vectorindex.Adapter = (*Adapter)(nil)

// New builds an Adapter over an already-dialed gRPC connection.
// vectorSize is the embedding dimensionality used when a collection
// must be created on first upsert.
func New(conn grpc.ClientConnInterface, vectorSize uint64) *Adapter {
	return &Adapter{
		points:     pb.NewPointsClient(conn),
		collection: pb.NewCollectionsClient(conn),
		vectorSize: vectorSize,
	}
}

// pointID derives a deterministic UUID from a chunk ID: Qdrant point
// IDs must be either an unsigned integer or a UUID, and chunk IDs are
// arbitrary strings (§3), so a stable content hash is used instead of
// asking the producer to mint UUIDs.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.Nil, []byte(chunkID)).String()
}

func (a *Adapter) ensureCollection(ctx context.Context, name string) error {
	_, err := a.collection.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     a.vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("qdrant: create collection %q: %w", name, err)
	}
	return nil
}

func (a *Adapter) UpsertCollection(ctx context.Context, name string, chunks []vkp.Chunk) error {
	if err := a.ensureCollection(ctx, name); err != nil {
		return &vectorindex.ErrIngestFailed{Collection: name, Err: err}
	}

	points := make([]*pb.PointStruct, len(chunks))
	for i, c := range chunks {
		vec := make([]float32, len(c.Vector))
		for j, v := range c.Vector {
			vec[j] = float32(v)
		}
		payload := map[string]*pb.Value{
			"chunk_id": {Kind: &pb.Value_StringValue{StringValue: c.ID}},
			"text":     {Kind: &pb.Value_StringValue{StringValue: c.Text}},
		}
		for k, v := range c.Metadata {
			payload["metadata_"+k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
		}
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(c.ID)}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vec}}},
			Payload: payload,
		}
	}

	_, err := a.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: name,
		Points:         points,
	})
	if err != nil {
		return &vectorindex.ErrIngestFailed{Collection: name, Err: err}
	}
	return nil
}

func (a *Adapter) Remove(ctx context.Context, name string, ids []string) error {
	pointIDs := make([]*pb.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(id)}}
	}
	_, err := a.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: name,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: pointIDs},
			},
		},
	})
	if err != nil {
		return &vectorindex.ErrIngestFailed{Collection: name, Err: err}
	}
	return nil
}
