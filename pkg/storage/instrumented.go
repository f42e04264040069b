// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"

	"go.uber.org/zap"
)

// Instrument decorates a store with debug logging on every operation.
func Instrument(logger *zap.Logger, store Store) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &instrumentedStore{
		store: store,
		l:     logger.With(zap.String("store", store.String())),
	}
}

type instrumentedStore struct {
	store Store
	l     *zap.Logger
}

func (i *instrumentedStore) String() string {
	return i.store.String()
}

func (i *instrumentedStore) Has(ctx context.Context, key string) (bool, error) {
	has, err := i.store.Has(ctx, key)
	i.l.Debug("storage has", zap.String("key", key), zap.Bool("has", has), zap.Error(err))
	return has, err
}

func (i *instrumentedStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rdr, err := i.store.Get(ctx, key)
	i.l.Debug("storage get", zap.String("key", key), zap.Error(err))
	return rdr, err
}

func (i *instrumentedStore) Put(ctx context.Context, key string, source io.Reader, doesNotExist bool) error {
	err := i.store.Put(ctx, key, source, doesNotExist)
	i.l.Debug("storage put", zap.String("key", key), zap.Bool("noOverwrite", doesNotExist), zap.Error(err))
	return err
}

func (i *instrumentedStore) Delete(ctx context.Context, key string) error {
	err := i.store.Delete(ctx, key)
	i.l.Debug("storage delete", zap.String("key", key), zap.Error(err))
	return err
}

func (i *instrumentedStore) Glob(ctx context.Context, pattern string) ([]string, error) {
	matches, err := i.store.Glob(ctx, pattern)
	i.l.Debug("storage glob", zap.String("pattern", pattern), zap.Int("matches", len(matches)), zap.Error(err))
	return matches, err
}

func (i *instrumentedStore) Invalidate(ctx context.Context, prefix string) {
	i.store.Invalidate(ctx, prefix)
	i.l.Debug("storage invalidate", zap.String("prefix", prefix))
}
