package novaposhta

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"dieselhub/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCaller struct {
	data  string
	err   error
	calls int
	last  map[string]string
}

func (s *stubCaller) Call(_ context.Context, _, _ string, props map[string]string) (json.RawMessage, error) {
	s.calls++
	s.last = props
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.data), nil
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, ClampLimit(""))
	assert.Equal(t, 20, ClampLimit("abc"))
	assert.Equal(t, 20, ClampLimit("0"))
	assert.Equal(t, 1, ClampLimit("-5"))
	assert.Equal(t, 50, ClampLimit("500"))
	assert.Equal(t, 7, ClampLimit("7"))
}

func TestSettlements(t *testing.T) {
	api := &stubCaller{data: `[{"Addresses":[
		{"Ref":"r1","DeliveryCity":"city-1","Present":"м. Київ, Київська обл.","Area":"Київська","Region":""},
		{"Ref":"r2","MainDescription":"Київець"}
	]}]`}
	svc := NewService(api, cache.NewMemoryStore(), time.Hour, nil)
	ctx := context.Background()

	list := svc.Settlements(ctx, " Київ ", 20)
	require.Len(t, list, 2)
	assert.Equal(t, "city-1", list[0].Ref)
	assert.Equal(t, "r2", list[1].Ref)
	assert.Equal(t, "Київець", list[1].Present)
	assert.Equal(t, "20", api.last["Limit"])

	svc.Settlements(ctx, "київ", 20)
	assert.Equal(t, 1, api.calls, "second lookup is served from cache")
}

func TestSettlements_ShortQueryAndErrors(t *testing.T) {
	api := &stubCaller{err: errors.New("boom")}
	svc := NewService(api, cache.NewMemoryStore(), time.Hour, nil)

	assert.Empty(t, svc.Settlements(context.Background(), "К", 20))
	assert.Zero(t, api.calls)

	list := svc.Settlements(context.Background(), "Київ", 20)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestWarehouses_SplitsPostomats(t *testing.T) {
	api := &stubCaller{data: `[
		{"Ref":"w1","Number":"1","Description":"Відділення №1","ShortAddress":"Київ, вул. Хрещатик 1","TypeOfWarehouse":"branch"},
		{"Ref":"w2","Number":2,"Description":"Поштомат №2","CategoryOfWarehouse":"Postomat"},
		{"Ref":"w3","Number":"3","Description":"Parcel Locker 3"}
	]`}
	svc := NewService(api, cache.NewMemoryStore(), time.Hour, nil)
	ctx := context.Background()

	branches := svc.Warehouses(ctx, "city-1", "")
	require.Len(t, branches, 1)
	assert.Equal(t, "Київ, вул. Хрещатик 1", branches[0].Description)

	lockers := svc.Warehouses(ctx, "city-1", "POSTOMAT")
	require.Len(t, lockers, 2)
	assert.Equal(t, "2", lockers[0].Number)

	assert.Empty(t, svc.Warehouses(ctx, " ", "warehouse"))
}

func TestClient_Call(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		var req apiRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "key", req.APIKey)
		if req.CalledMethod == "fail" {
			_, _ = w.Write([]byte(`{"success":false,"errors":["API key expired"]}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[1,2]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	data, err := client.Call(context.Background(), "Address", "searchSettlements", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(data))

	_, err = client.Call(context.Background(), "Address", "fail", nil)
	assert.EqualError(t, err, "API key expired")

	_, err = NewClient(server.URL, "").Call(context.Background(), "Address", "x", nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
