package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/wizard"
)

func savedState(t *testing.T) wizard.State {
	e := wizard.New()
	name := "Maria Silva"
	_, err := e.UpdateSection(wizard.ApplicantPatch{FullName: &name}, wizard.TriggerChange)
	require.NoError(t, err)
	return e.State()
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisSessionStore(client, 48*time.Hour)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Save(ctx, id, savedState(t)))
	assert.Equal(t, 48*time.Hour, mr.TTL("session:"+id.String()))

	st, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepApplicant, st.Step)
	assert.Equal(t, "Maria Silva", st.Record.Applicant.FullName)
	assert.IsType(t, &wizard.IndividualHolder{}, st.Record.Holder)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStoreExpires(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisSessionStore(client, time.Minute)
	id := uuid.New()

	require.NoError(t, store.Save(context.Background(), id, savedState(t)))
	mr.FastForward(2 * time.Minute)

	_, err := store.Load(context.Background(), id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStoreExpiresAndEvicts(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	old := uuid.New()
	require.NoError(t, store.Save(ctx, old, savedState(t)))

	st, err := store.Load(ctx, old)
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", st.Record.Applicant.FullName)

	now = now.Add(2 * time.Hour)
	_, err = store.Load(ctx, old)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, uuid.New(), savedState(t)))
	assert.Len(t, store.sessions, 1)
}

func TestMemorySessionStoreDetachesState(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()
	id := uuid.New()
	st := savedState(t)
	require.NoError(t, store.Save(ctx, id, st))

	st.Record.Applicant.FullName = "changed"
	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", loaded.Record.Applicant.FullName)
}
