package identityservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
)

func TestClient_GetActor_Cached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/internal/users/42/actor", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42,"role":"staff","station_assignments":[1,3]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, time.Minute, logger.NewNop())

	actor, err := c.GetActor(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, actor.Role)
	assert.Equal(t, []int64{1, 3}, actor.StationAssignments)

	_, err = c.GetActor(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	c.InvalidateActor(42)
	_, err = c.GetActor(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_GetActor_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/internal/users/1/actor":
			w.WriteHeader(http.StatusNotFound)
		case "/internal/users/2/actor":
			_, _ = w.Write([]byte(`{"id":2,"role":"superuser"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, 0, logger.NewNop())

	_, err := c.GetActor(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = c.GetActor(context.Background(), 2)
	assert.ErrorIs(t, err, ErrUnknownRole)

	_, err = c.GetActor(context.Background(), 3)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_GetRenter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/users/5" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":5,"name":"Anna","email":"anna@example.com","phone":"+100"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, 0, logger.NewNop())

	renter, err := c.GetRenter(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", renter.Email)

	_, err = c.GetRenter(context.Background(), 6)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
