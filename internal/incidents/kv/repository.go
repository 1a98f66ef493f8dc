// Package kv provides a kvstore-backed implementation of the incidents
// repository. The whole collection lives under one key as a JSON array.
package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opspulse/incident-desk/internal/domain"
	"github.com/opspulse/incident-desk/internal/incidents"
	"github.com/opspulse/incident-desk/internal/kvstore"
)

// collectionKey is the single key holding the incident collection.
const collectionKey = "incidents"

// Repository implements incidents.Repository over a kvstore.Store.
type Repository struct {
	store kvstore.Store
}

// NewRepository creates a new kvstore-backed repository.
func NewRepository(store kvstore.Store) *Repository {
	return &Repository{store: store}
}

// GetAll returns the full incident collection in insertion order. An absent
// key is an empty collection, not an error.
func (r *Repository) GetAll(ctx context.Context) ([]domain.Incident, error) {
	raw, ok, err := r.store.Get(ctx, collectionKey)
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}
	if !ok {
		return []domain.Incident{}, nil
	}

	var collection []domain.Incident
	if err := json.Unmarshal(raw, &collection); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	return collection, nil
}

// FindByID returns the incident with the given id.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Incident, error) {
	collection, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range collection {
		if collection[i].ID == id {
			return &collection[i], nil
		}
	}
	return nil, incidents.ErrNotFound
}

// Append adds an incident to the end of the collection.
func (r *Repository) Append(ctx context.Context, incident domain.Incident) error {
	collection, err := r.GetAll(ctx)
	if err != nil {
		return err
	}
	return r.ReplaceAll(ctx, append(collection, incident))
}

// ReplaceAll persists the given sequence as the new collection.
func (r *Repository) ReplaceAll(ctx context.Context, collection []domain.Incident) error {
	if collection == nil {
		collection = []domain.Incident{}
	}

	raw, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}

	if err := r.store.Put(ctx, collectionKey, raw); err != nil {
		return fmt.Errorf("store collection: %w", err)
	}
	return nil
}
