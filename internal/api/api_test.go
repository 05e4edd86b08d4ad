package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"meddrop/m/domain"
	"meddrop/m/internal/database"
)

const testSecret = "test-secret"

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := database.NewTestDB(t)
	handler := New(db, testSecret)
	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)
	return server
}

// signupUser registers a user and returns their bearer token.
func signupUser(t *testing.T, server *httptest.Server, name, email string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"name": name, "email": email, "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/signup", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("signup request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup failed: %d", resp.StatusCode)
	}

	var signupResp struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&signupResp)
	if signupResp.Token == "" {
		t.Fatal("empty token from signup")
	}
	return signupResp.Token
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var payload map[string]json.RawMessage
	json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func createMedicine(t *testing.T, server *httptest.Server, token string, quantity int64) int64 {
	t.Helper()
	resp, payload := doJSON(t, "POST", server.URL+"/api/medicines", token, map[string]any{
		"name":       "Amoxicillin",
		"expiryDate": "2027-01-15",
		"quantity":   quantity,
		"notes":      "sealed",
		"location":   map[string]float64{"lat": 46.05, "lng": 14.51},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create medicine: expected 201, got %d", resp.StatusCode)
	}
	var med domain.Medicine
	json.Unmarshal(payload["medicine"], &med)
	if med.ID == 0 {
		t.Fatal("medicine id missing from response")
	}
	return med.ID
}

func errorCode(t *testing.T, payload map[string]json.RawMessage) string {
	t.Helper()
	var code string
	json.Unmarshal(payload["code"], &code)
	return code
}

func TestAuthFlow(t *testing.T) {
	server := setupTestServer(t)

	signupUser(t, server, "Ana", "ana@example.com")

	// Duplicate signup.
	body, _ := json.Marshal(map[string]string{"name": "Ana", "email": "ana@example.com", "password": "password"})
	resp, _ := http.Post(server.URL+"/api/auth/signup", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for duplicate signup, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Login with wrong password.
	body, _ = json.Marshal(map[string]string{"email": "ana@example.com", "password": "wrong"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Login with the right one.
	body, _ = json.Marshal(map[string]string{"email": "ana@example.com", "password": "password"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for login, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Protected route without a token.
	resp2, _ := doJSON(t, "GET", server.URL+"/api/medicines", "", nil)
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp2.StatusCode)
	}
}

func TestRequestLifecycleFlow(t *testing.T) {
	server := setupTestServer(t)

	ownerToken := signupUser(t, server, "Ana", "ana@example.com")
	requesterToken := signupUser(t, server, "Bor", "bor@example.com")

	medID := createMedicine(t, server, ownerToken, 10)

	// Requester sees the listing in the browse view, the owner does not.
	resp, payload := doJSON(t, "GET", server.URL+"/api/medicines/available", requesterToken, nil)
	var meds []domain.Medicine
	json.Unmarshal(payload["medicines"], &meds)
	if resp.StatusCode != http.StatusOK || len(meds) != 1 {
		t.Fatalf("expected 1 available medicine for requester, got %d (status %d)", len(meds), resp.StatusCode)
	}
	_, payload = doJSON(t, "GET", server.URL+"/api/medicines/available", ownerToken, nil)
	json.Unmarshal(payload["medicines"], &meds)
	if len(meds) != 0 {
		t.Errorf("owner must not see their own listing in browse, got %d", len(meds))
	}

	// Create a request for 4.
	resp, payload = doJSON(t, "POST", server.URL+"/api/requests", requesterToken,
		map[string]any{"medicineId": medID, "quantity": 4})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create request: expected 201, got %d", resp.StatusCode)
	}
	var req domain.Request
	json.Unmarshal(payload["request"], &req)
	if req.Status != domain.StatusPending {
		t.Fatalf("expected pending request, got %s", req.Status)
	}

	// A second request from the same user for the same medicine conflicts.
	resp, payload = doJSON(t, "POST", server.URL+"/api/requests", requesterToken,
		map[string]any{"medicineId": medID, "quantity": 1})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate pending request, got %d", resp.StatusCode)
	}
	if code := errorCode(t, payload); code != "duplicate_pending_request" {
		t.Errorf("expected duplicate_pending_request code, got %q", code)
	}

	// Owner sees it under received, requester under made.
	_, payload = doJSON(t, "GET", server.URL+"/api/requests/received", ownerToken, nil)
	var reqs []domain.Request
	json.Unmarshal(payload["requests"], &reqs)
	if len(reqs) != 1 || reqs[0].RequesterEmail != "bor@example.com" {
		t.Fatalf("expected 1 enriched received request, got %+v", reqs)
	}
	_, payload = doJSON(t, "GET", server.URL+"/api/requests/made", requesterToken, nil)
	json.Unmarshal(payload["requests"], &reqs)
	if len(reqs) != 1 || reqs[0].OwnerEmail != "ana@example.com" {
		t.Fatalf("expected 1 enriched made request, got %+v", reqs)
	}

	// Only the owner may respond.
	respondURL := fmt.Sprintf("%s/api/requests/%d/respond", server.URL, req.ID)
	resp, _ = doJSON(t, "PATCH", respondURL, requesterToken, map[string]string{"status": "accepted"})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-owner respond, got %d", resp.StatusCode)
	}

	// Owner accepts; stock drops to 6 and the response is enriched.
	resp, payload = doJSON(t, "PATCH", respondURL, ownerToken, map[string]string{"status": "accepted"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d", resp.StatusCode)
	}
	json.Unmarshal(payload["request"], &req)
	if req.Status != domain.StatusAccepted || req.MedicineQuantity != 6 {
		t.Fatalf("expected accepted request with quantity 6 in summary, got %+v", req)
	}

	// Responding again fails.
	resp, payload = doJSON(t, "PATCH", respondURL, ownerToken, map[string]string{"status": "rejected"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for already processed, got %d", resp.StatusCode)
	}
	if code := errorCode(t, payload); code != "already_processed" {
		t.Errorf("expected already_processed code, got %q", code)
	}

	// After the first resolved, a new request is permitted.
	resp, _ = doJSON(t, "POST", server.URL+"/api/requests", requesterToken,
		map[string]any{"medicineId": medID, "quantity": 2})
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201 after previous request resolved, got %d", resp.StatusCode)
	}
}

func TestRequestCreationErrors(t *testing.T) {
	server := setupTestServer(t)

	ownerToken := signupUser(t, server, "Ana", "ana@example.com")
	requesterToken := signupUser(t, server, "Bor", "bor@example.com")
	medID := createMedicine(t, server, ownerToken, 5)

	resp, payload := doJSON(t, "POST", server.URL+"/api/requests", requesterToken,
		map[string]any{"medicineId": int64(9999), "quantity": 1})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing medicine, got %d", resp.StatusCode)
	}
	if code := errorCode(t, payload); code != "medicine_not_found" {
		t.Errorf("expected medicine_not_found code, got %q", code)
	}

	resp, payload = doJSON(t, "POST", server.URL+"/api/requests", ownerToken,
		map[string]any{"medicineId": medID, "quantity": 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for self-request, got %d", resp.StatusCode)
	}
	if code := errorCode(t, payload); code != "self_request" {
		t.Errorf("expected self_request code, got %q", code)
	}

	resp, payload = doJSON(t, "POST", server.URL+"/api/requests", requesterToken,
		map[string]any{"medicineId": medID, "quantity": 6})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for insufficient stock, got %d", resp.StatusCode)
	}
	if code := errorCode(t, payload); code != "insufficient_stock" {
		t.Errorf("expected insufficient_stock code, got %q", code)
	}
}

func TestRejectLeavesStock(t *testing.T) {
	server := setupTestServer(t)

	ownerToken := signupUser(t, server, "Ana", "ana@example.com")
	requesterToken := signupUser(t, server, "Bor", "bor@example.com")
	medID := createMedicine(t, server, ownerToken, 2)

	_, payload := doJSON(t, "POST", server.URL+"/api/requests", requesterToken,
		map[string]any{"medicineId": medID, "quantity": 2})
	var req domain.Request
	json.Unmarshal(payload["request"], &req)

	respondURL := fmt.Sprintf("%s/api/requests/%d/respond", server.URL, req.ID)
	resp, payload := doJSON(t, "PATCH", respondURL, ownerToken, map[string]string{"status": "rejected"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d", resp.StatusCode)
	}
	json.Unmarshal(payload["request"], &req)
	if req.Status != domain.StatusRejected {
		t.Errorf("expected rejected status, got %s", req.Status)
	}
	if req.MedicineQuantity != 2 {
		t.Errorf("rejection must not touch stock, summary quantity %d", req.MedicineQuantity)
	}
}

func TestCancelFlow(t *testing.T) {
	server := setupTestServer(t)

	ownerToken := signupUser(t, server, "Ana", "ana@example.com")
	requesterToken := signupUser(t, server, "Bor", "bor@example.com")
	medID := createMedicine(t, server, ownerToken, 10)

	_, payload := doJSON(t, "POST", server.URL+"/api/requests", requesterToken,
		map[string]any{"medicineId": medID, "quantity": 4})
	var req domain.Request
	json.Unmarshal(payload["request"], &req)

	cancelURL := fmt.Sprintf("%s/api/requests/%d/cancel", server.URL, req.ID)

	// Only the requester may cancel.
	resp, _ := doJSON(t, "PATCH", cancelURL, ownerToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for owner cancel, got %d", resp.StatusCode)
	}

	resp, payload = doJSON(t, "PATCH", cancelURL, requesterToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", resp.StatusCode)
	}
	json.Unmarshal(payload["request"], &req)
	if req.Status != domain.StatusRejected || !req.CancelledByUser {
		t.Fatalf("expected cancelled request (rejected + flag), got %+v", req)
	}

	// Cancelling again is a state machine violation.
	resp, payload = doJSON(t, "PATCH", cancelURL, requesterToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for double cancel, got %d", resp.StatusCode)
	}
	if code := errorCode(t, payload); code != "not_pending" {
		t.Errorf("expected not_pending code, got %q", code)
	}
}

func TestMedicineOwnershipOverHTTP(t *testing.T) {
	server := setupTestServer(t)

	ownerToken := signupUser(t, server, "Ana", "ana@example.com")
	otherToken := signupUser(t, server, "Bor", "bor@example.com")
	medID := createMedicine(t, server, ownerToken, 5)

	medURL := fmt.Sprintf("%s/api/medicines/%d", server.URL, medID)

	resp, _ := doJSON(t, "PATCH", medURL, otherToken, map[string]any{"notes": "mine now"})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-owner update, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "DELETE", medURL, otherToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-owner delete, got %d", resp.StatusCode)
	}

	restockURL := medURL + "/restock"
	resp, payload := doJSON(t, "POST", restockURL, ownerToken, map[string]any{"quantity": 5})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("restock: expected 200, got %d", resp.StatusCode)
	}
	var med domain.Medicine
	json.Unmarshal(payload["medicine"], &med)
	if med.Quantity != 10 {
		t.Errorf("expected quantity 10 after restock, got %d", med.Quantity)
	}
}
