package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
	"github.com/imrishuroy/go-storefront-checkout/internal/checkout"
	"github.com/imrishuroy/go-storefront-checkout/internal/idempotency"
)

// --- mock implementations ---

type stubProvider struct {
	mu           sync.Mutex
	sessionCalls int
	sessionErr   error
}

func (s *stubProvider) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	return "cus_1", nil
}

func (s *stubProvider) CreateCustomer(ctx context.Context, c checkout.Customer) (string, error) {
	return "cus_new", nil
}

func (s *stubProvider) CreateCheckoutSession(ctx context.Context, p checkout.SessionParams) (*checkout.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionCalls++
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	return &checkout.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil
}

func (s *stubProvider) CreateDraftInvoice(ctx context.Context, p checkout.DraftInvoice) (string, error) {
	return "in_1", nil
}

func (s *stubProvider) AddInvoiceLine(ctx context.Context, line checkout.InvoiceLine) error {
	return nil
}

func (s *stubProvider) FinalizeInvoice(ctx context.Context, id string) (*checkout.Invoice, error) {
	return &checkout.Invoice{ID: id, HostedURL: "https://pay.example/" + id}, nil
}

// idempDynamo is a single-table mock keyed by idempotency_key.
type idempDynamo struct {
	mu    sync.Mutex
	table map[string]map[string]types.AttributeValue
}

func newIdempDynamo() *idempDynamo {
	return &idempDynamo{table: map[string]map[string]types.AttributeValue{}}
}

func keyOf(m map[string]types.AttributeValue) string {
	return m["idempotency_key"].(*types.AttributeValueMemberS).Value
}

func (m *idempDynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyOf(in.Item)
	if _, exists := m.table[k]; exists && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{}
	}
	m.table[k] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *idempDynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &dyn.GetItemOutput{Item: m.table[keyOf(in.Key)]}, nil
}

func (m *idempDynamo) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.table[keyOf(in.Key)]
	if !ok {
		return nil, errors.New("item not found")
	}
	if in.ConditionExpression != nil {
		curr := item["status"].(*types.AttributeValueMemberS).Value
		if curr != in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS).Value {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	for placeholder, attr := range map[string]string{":done": "status", ":failed": "status", ":new": "status", ":rb": "response_body", ":rs": "response_status"} {
		if v, ok := in.ExpressionAttributeValues[placeholder]; ok {
			item[attr] = v
		}
	}
	return &dyn.UpdateItemOutput{}, nil
}

func (m *idempDynamo) DeleteItem(ctx context.Context, in *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	return &dyn.DeleteItemOutput{}, nil
}

type memSlot struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memSlot) Load(ctx context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[id]
	if !ok {
		return nil, cart.ErrSlotEmpty
	}
	return d, nil
}

func (m *memSlot) Save(ctx context.Context, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = data
	return nil
}

func (m *memSlot) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

// --- helpers ---

const drillBody = `{"cartItems":[{"name":"Drill","price":100,"quantity":2}],"successUrl":"https://x/ok","cancelUrl":"https://x/cancel"}`

func newRouter(p checkout.Provider, store *idempotency.Store, slot cart.Slot) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterCheckoutRoutes(r, CheckoutConfig{Builder: checkout.NewBuilder(p, nil), Idempotency: store})
	RegisterCartRoutes(r, CartConfig{Slot: slot})
	return r
}

func do(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- checkout ---

func TestCheckout_CardSession(t *testing.T) {
	r := newRouter(&stubProvider{}, nil, &memSlot{data: map[string][]byte{}})

	w := do(r, http.MethodPost, "/checkout", drillBody, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["sessionId"] != "cs_1" || got["url"] != "https://pay.example/cs_1" {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestCheckout_ErrorKinds(t *testing.T) {
	cases := []struct {
		name     string
		provider checkout.Provider
		body     string
		status   int
		kind     string
	}{
		{"empty cart", &stubProvider{}, `{"cartItems":[],"successUrl":"a","cancelUrl":"b"}`, http.StatusBadRequest, "invalid-argument"},
		{"malformed json", &stubProvider{}, `{"cartItems":`, http.StatusBadRequest, "invalid-argument"},
		{"unconfigured", nil, drillBody, http.StatusPreconditionFailed, "failed-precondition"},
		{"provider failure", &stubProvider{sessionErr: errors.New("stripe is down")}, drillBody, http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(tc.provider, nil, &memSlot{data: map[string][]byte{}})
			w := do(r, http.MethodPost, "/checkout", tc.body, nil)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			var eb errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &eb); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if eb.Error.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, eb.Error.Kind)
			}
		})
	}
}

func TestCheckout_IdempotencyReplay(t *testing.T) {
	p := &stubProvider{}
	store := idempotency.NewStore(newIdempDynamo(), "idempotency", time.Hour)
	r := newRouter(p, store, &memSlot{data: map[string][]byte{}})
	headers := map[string]string{"Idempotency-Key": "key-1"}

	first := do(r, http.MethodPost, "/checkout", drillBody, headers)
	if first.Code != http.StatusOK {
		t.Fatalf("first: %d %s", first.Code, first.Body.String())
	}
	second := do(r, http.MethodPost, "/checkout", drillBody, headers)
	if second.Code != http.StatusOK {
		t.Fatalf("second: %d %s", second.Code, second.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatal("expected replayed response")
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replayed body differs: %s vs %s", second.Body.String(), first.Body.String())
	}
	if p.sessionCalls != 1 {
		t.Fatalf("expected one provider call, got %d", p.sessionCalls)
	}
}

func TestCheckout_FailedKeyCanBeRetried(t *testing.T) {
	p := &stubProvider{sessionErr: errors.New("timeout")}
	store := idempotency.NewStore(newIdempDynamo(), "idempotency", time.Hour)
	r := newRouter(p, store, &memSlot{data: map[string][]byte{}})
	headers := map[string]string{"Idempotency-Key": "key-2"}

	if w := do(r, http.MethodPost, "/checkout", drillBody, headers); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	p.sessionErr = nil
	if w := do(r, http.MethodPost, "/checkout", drillBody, headers); w.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d: %s", w.Code, w.Body.String())
	}
	if p.sessionCalls != 2 {
		t.Fatalf("expected two provider calls, got %d", p.sessionCalls)
	}
}

func TestCheckout_InProgressKeyConflicts(t *testing.T) {
	store := idempotency.NewStore(newIdempDynamo(), "idempotency", time.Hour)
	if _, err := store.CreateIfNotExists(context.Background(), "key-3"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := newRouter(&stubProvider{}, store, &memSlot{data: map[string][]byte{}})

	w := do(r, http.MethodPost, "/checkout", drillBody, map[string]string{"Idempotency-Key": "key-3"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

// --- cart ---

type cartBody struct {
	Items []struct {
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
	ItemCount int    `json:"itemCount"`
	Subtotal  string `json:"subtotal"`
	Shipping  string `json:"shipping"`
	Tax       string `json:"tax"`
	Total     string `json:"total"`
}

func decodeCart(t *testing.T, w *httptest.ResponseRecorder) cartBody {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var cb cartBody
	if err := json.Unmarshal(w.Body.Bytes(), &cb); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return cb
}

func TestCartRoutes_Lifecycle(t *testing.T) {
	slot := &memSlot{data: map[string][]byte{}}
	r := newRouter(&stubProvider{}, nil, slot)

	cb := decodeCart(t, do(r, http.MethodGet, "/carts/c1", "", nil))
	if cb.ItemCount != 0 || cb.Total != "0.00" {
		t.Fatalf("expected empty cart, got %+v", cb)
	}

	decodeCart(t, do(r, http.MethodPost, "/carts/c1/items", `{"product":{"id":"p1","name":"Drill","price":100},"quantity":2}`, nil))
	cb = decodeCart(t, do(r, http.MethodPost, "/carts/c1/items", `{"product":{"itemNumber":"SKU-2","name":"Bit","price":"5"}}`, nil))
	if cb.ItemCount != 3 || cb.Subtotal != "205.00" || cb.Shipping != "15.00" || cb.Tax != "20.50" || cb.Total != "240.50" {
		t.Fatalf("unexpected cart: %+v", cb)
	}

	cb = decodeCart(t, do(r, http.MethodPatch, "/carts/c1/items/SKU-2", `{"quantity":4}`, nil))
	if cb.ItemCount != 6 {
		t.Fatalf("expected 6 items, got %d", cb.ItemCount)
	}

	cb = decodeCart(t, do(r, http.MethodPatch, "/carts/c1/items/p1", `{"quantity":0}`, nil))
	if len(cb.Items) != 1 || cb.Items[0].ID != "SKU-2" {
		t.Fatalf("expected only SKU-2 left, got %+v", cb.Items)
	}

	cb = decodeCart(t, do(r, http.MethodDelete, "/carts/c1/items/SKU-2", "", nil))
	if cb.ItemCount != 0 {
		t.Fatalf("expected empty cart, got %+v", cb)
	}

	decodeCart(t, do(r, http.MethodPost, "/carts/c1/items", `{"product":{"id":"p9","name":"Saw","price":1}}`, nil))
	decodeCart(t, do(r, http.MethodDelete, "/carts/c1", "", nil))
	if _, ok := slot.data["c1"]; ok {
		t.Fatal("expected slot to be erased")
	}
}

func TestCartRoutes_UpdateRequiresQuantity(t *testing.T) {
	r := newRouter(&stubProvider{}, nil, &memSlot{data: map[string][]byte{}})

	w := do(r, http.MethodPatch, "/carts/c1/items/p1", `{}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
