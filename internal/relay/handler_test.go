package relay

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gofiber/fiber/v2"
)

func setupHandlerApp(t *testing.T) (*fiber.App, *serviceHarness) {
	t.Helper()
	h := newServiceHarness(t)
	handler := NewHandler(h.svc, h.registry)

	app := fiber.New()
	app.Post("/relay/votes", handler.Vote)
	return app, h
}

func postVote(t *testing.T, app *fiber.App, body string) (map[string]any, int) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/relay/votes", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return decoded, resp.StatusCode
}

func TestVoteHandlerReportsSuccess(t *testing.T) {
	app, h := setupHandlerApp(t)

	body, status := postVote(t, app,
		`{"email":"voter1@example.org","election_id":1,"candidate_email":"candidate@example.org"}`)

	if status != fiber.StatusCreated {
		t.Fatalf("expected %d got %d: %v", fiber.StatusCreated, status, body)
	}
	if body["success"] != true {
		t.Fatalf("expected success true, got %v", body)
	}
	if body["email"] != "voter1@example.org" {
		t.Fatalf("unexpected email %v", body["email"])
	}
	addr, _ := body["accountAddress"].(string)
	if !strings.EqualFold(addr, h.accountAddr.Hex()) {
		t.Fatalf("unexpected account %v", body["accountAddress"])
	}
}

func TestVoteHandlerMapsRevertedBundle(t *testing.T) {
	app, h := setupHandlerApp(t)

	payload := failedOpPayload(t, 0, "AA25 invalid account nonce")
	h.bundleErr = dataError{msg: "execution reverted", data: hexutil.Encode(payload)}

	body, status := postVote(t, app,
		`{"email":"voter1@example.org","election_id":1,"candidate_email":"candidate@example.org"}`)

	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected %d got %d: %v", fiber.StatusUnprocessableEntity, status, body)
	}
	if body["success"] != false {
		t.Fatalf("expected success false, got %v", body)
	}
	if body["code"] != string(KindReverted) {
		t.Fatalf("unexpected code %v", body["code"])
	}
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "AA25 invalid account nonce") {
		t.Fatalf("expected decoded revert reason, got %q", msg)
	}
	if body["data"] != hexutil.Encode(payload) {
		t.Fatalf("expected raw revert payload, got %v", body["data"])
	}
}
