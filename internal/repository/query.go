package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

func decodeAll[D any, T any](ctx context.Context, cursor *mongo.Cursor, convert func(*D) *T) ([]*T, error) {
	defer cursor.Close(ctx)

	var docs []D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(docs))
	for i := range docs {
		out = append(out, convert(&docs[i]))
	}
	return out, nil
}

// inIDOrder arranges items to follow ids and drops ids that matched nothing.
func inIDOrder[T any](ids []string, items []*T, idOf func(*T) string) []*T {
	byID := make(map[string]*T, len(items))
	for _, it := range items {
		byID[idOf(it)] = it
	}
	out := make([]*T, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, it)
	}
	return out
}
