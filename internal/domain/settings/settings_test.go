package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type memRepo struct {
	values map[string]string
	err    error
}

func (m *memRepo) All(context.Context) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memRepo) Set(_ context.Context, values map[string]string) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func TestBoolDefaultsAndStored(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)

	enabled, err := svc.Bool(context.Background(), KeyBlueExpressEnabled)
	require.NoError(t, err)
	require.False(t, enabled)

	repo.values = map[string]string{KeyBlueExpressEnabled: "true"}
	enabled, err = svc.Bool(context.Background(), KeyBlueExpressEnabled)
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestUnknownKey(t *testing.T) {
	svc := NewService(&memRepo{})
	_, err := svc.Bool(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUnknownKey)

	_, err = svc.Update(context.Background(), map[string]any{"nope": "x"})
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestUpdateNormalizes(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)

	all, err := svc.Update(context.Background(), map[string]any{
		KeyBlueExpressEnabled:  true,
		KeyFreeShippingDefault: float64(60000),
		KeyStoreName:           "  Tienda  ",
	})
	require.NoError(t, err)
	require.Equal(t, "true", all[KeyBlueExpressEnabled])
	require.Equal(t, "60000", all[KeyFreeShippingDefault])
	require.Equal(t, "Tienda", all[KeyStoreName])
	require.Equal(t, "contacto@conectados420.cl", all[KeyContactEmail])

	threshold, err := svc.Int(context.Background(), KeyFreeShippingDefault)
	require.NoError(t, err)
	require.Equal(t, int64(60000), threshold)
}

func TestUpdateRejectsBadTypes(t *testing.T) {
	svc := NewService(&memRepo{})
	_, err := svc.Update(context.Background(), map[string]any{KeyBlueExpressEnabled: "maybe"})
	require.ErrorIs(t, err, ErrInvalidValue)
	_, err = svc.Update(context.Background(), map[string]any{KeyFreeShippingDefault: -5.0})
	require.ErrorIs(t, err, ErrInvalidValue)
	_, err = svc.Update(context.Background(), map[string]any{KeyStoreName: 42.0})
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestRepoErrorPropagates(t *testing.T) {
	svc := NewService(&memRepo{err: errors.New("down")})
	_, err := svc.All(context.Background())
	require.Error(t, err)
}
