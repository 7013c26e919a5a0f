package httpapi

import (
	"net/http"
	"testing"
)

func createProgram(t *testing.T, api *apiClient, headers map[string]string) map[string]any {
	t.Helper()
	resp := api.post("/api/programs", map[string]any{
		"name":        "Web Bounty",
		"description": "Find bugs in our web stack",
		"scope":       "*.example.com",
		"reward_min":  100,
		"reward_max":  1000,
	}, headers)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create program: unexpected status %d", resp.StatusCode)
	}
	return decode[map[string]any](t, resp)
}

func TestCreateProgramRequiresCompanyRole(t *testing.T) {
	api := newTestAPI(t, testConfig())
	researcher, _ := api.register("Rey", "rey@example.com", "RESEARCHER")

	resp := api.post("/api/programs", map[string]any{
		"name":        "Nope",
		"description": "d",
		"scope":       "s",
		"reward_min":  1,
		"reward_max":  2,
	}, researcher)
	wantError(t, resp, http.StatusForbidden, "You do not have permission to perform this action")
}

func TestCreateProgramOwnerComesFromToken(t *testing.T) {
	api := newTestAPI(t, testConfig())
	company, companyID := api.register("Acme", "acme@example.com", "COMPANY")

	program := createProgram(t, api, company)
	if program["company_id"] != companyID {
		t.Fatalf("owner should be the authenticated actor, got %v", program["company_id"])
	}
}

func TestProgramsArePublicToRead(t *testing.T) {
	api := newTestAPI(t, testConfig())
	company, _ := api.register("Acme", "acme@example.com", "COMPANY")
	program := createProgram(t, api, company)
	id := program["id"].(string)

	resp := api.get("/api/programs", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: unexpected status %d", resp.StatusCode)
	}
	programs := decode[[]map[string]any](t, resp)
	if len(programs) != 1 {
		t.Fatalf("expected one program, got %d", len(programs))
	}

	single := api.get("/api/programs/"+id, nil)
	if single.StatusCode != http.StatusOK {
		t.Fatalf("get: unexpected status %d", single.StatusCode)
	}
	got := decode[map[string]any](t, single)
	if got["id"] != id {
		t.Fatalf("unexpected program: %v", got)
	}
}

func TestGetMissingProgram(t *testing.T) {
	api := newTestAPI(t, testConfig())
	resp := api.get("/api/programs/prg_missing", nil)
	wantError(t, resp, http.StatusNotFound, "Program not found")
}

func TestUpdateProgramOwnership(t *testing.T) {
	api := newTestAPI(t, testConfig())
	owner, _ := api.register("Acme", "acme@example.com", "COMPANY")
	rival, _ := api.register("Rival", "rival@example.com", "COMPANY")
	program := createProgram(t, api, owner)
	id := program["id"].(string)

	resp := api.put("/api/programs/"+id, map[string]any{"name": "Renamed"}, rival)
	wantError(t, resp, http.StatusForbidden, "You are not authorized to update this program")

	resp = api.put("/api/programs/"+id, map[string]any{"name": "Renamed", "reward_max": 5000}, owner)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner update: unexpected status %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	if updated["name"] != "Renamed" || updated["reward_max"].(float64) != 5000 {
		t.Fatalf("partial update not applied: %v", updated)
	}
	if updated["scope"] != "*.example.com" {
		t.Fatalf("omitted field should keep its value: %v", updated["scope"])
	}
}

func TestUpdateMissingProgramTakesPrecedenceOverOwnership(t *testing.T) {
	api := newTestAPI(t, testConfig())
	company, _ := api.register("Acme", "acme@example.com", "COMPANY")

	resp := api.put("/api/programs/prg_missing", map[string]any{"name": "x"}, company)
	wantError(t, resp, http.StatusNotFound, "Program not found")
}

func TestDeleteProgramOwnership(t *testing.T) {
	api := newTestAPI(t, testConfig())
	owner, _ := api.register("Acme", "acme@example.com", "COMPANY")
	rival, _ := api.register("Rival", "rival@example.com", "COMPANY")
	program := createProgram(t, api, owner)
	id := program["id"].(string)

	resp := api.delete("/api/programs/"+id, rival)
	wantError(t, resp, http.StatusForbidden, "You are not authorized to delete this program")

	resp = api.delete("/api/programs/"+id, owner)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("owner delete: unexpected status %d", resp.StatusCode)
	}
	resp.Body.Close()

	gone := api.get("/api/programs/"+id, nil)
	wantError(t, gone, http.StatusNotFound, "Program not found")
}

func TestCreateProgramRejectsZeroRewards(t *testing.T) {
	api := newTestAPI(t, testConfig())
	company, _ := api.register("Acme", "acme@example.com", "COMPANY")

	resp := api.post("/api/programs", map[string]any{
		"name":        "No rewards",
		"description": "d",
		"scope":       "s",
	}, company)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
