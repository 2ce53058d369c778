package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
)

type fakeSettings struct {
	values map[string]string
	err    error
	reads  int
}

func (f *fakeSettings) GetValue(_ context.Context, key string) (string, error) {
	f.reads++
	if f.err != nil {
		return "", f.err
	}
	value, ok := f.values[key]
	if !ok {
		return "", sql.ErrNoRows
	}
	return value, nil
}

func (f *fakeSettings) SetValue(_ context.Context, key, value string) error {
	if f.err != nil {
		return f.err
	}
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

type fakeCache struct {
	store map[string]string
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	value, ok := f.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*string) = value
	return nil
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if f.store == nil {
		f.store = map[string]string{}
	}
	f.store[key] = value.(string)
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	delete(f.store, key)
	return nil
}

func TestResolveCachesStoredValue(t *testing.T) {
	settings := &fakeSettings{values: map[string]string{"app_url": "https://docs.example.com/"}}
	cache := &fakeCache{}
	svc := NewAppConfigService(settings, cache, nil, "https://fallback.example.com", time.Minute)

	url, hit := svc.ResolveSource(context.Background())
	assert.Equal(t, "https://docs.example.com", url)
	assert.False(t, hit)

	url, hit = svc.ResolveSource(context.Background())
	assert.Equal(t, "https://docs.example.com", url)
	assert.True(t, hit)
	assert.Equal(t, 1, settings.reads, "second read served from cache")
}

func TestResolveFallsBackWhenUnset(t *testing.T) {
	svc := NewAppConfigService(&fakeSettings{}, &fakeCache{}, nil, "https://fallback.example.com/", time.Minute)

	assert.Equal(t, "https://fallback.example.com", svc.Resolve(context.Background()))
}

func TestUpdateInvalidatesCache(t *testing.T) {
	settings := &fakeSettings{values: map[string]string{"app_url": "https://old.example.com"}}
	cache := &fakeCache{}
	svc := NewAppConfigService(settings, cache, nil, "https://fallback.example.com", time.Minute)

	require.Equal(t, "https://old.example.com", svc.Resolve(context.Background()))

	require.NoError(t, svc.Update(context.Background(), "https://new.example.com/"))

	assert.Equal(t, "https://new.example.com", svc.Resolve(context.Background()), "next read sees the new value")
}

func TestUpdateRejectsEmptyURL(t *testing.T) {
	svc := NewAppConfigService(&fakeSettings{}, &fakeCache{}, nil, "https://fallback.example.com", time.Minute)

	err := svc.Update(context.Background(), "  ")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
