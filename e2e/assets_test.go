package e2e

import (
	"net/http"
	"testing"
)

func TestUpload_Success(t *testing.T) {
	ta := setupApp(t)

	resp := uploadImages(t, ta, "photo1.png", "photo2.png")
	assertStatus(t, resp, http.StatusCreated)

	result := parseJSON(t, resp)
	if result["added"] != float64(2) {
		t.Errorf("expected 2 added, got %v", result["added"])
	}
	items, _ := result["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0].(map[string]interface{})
	if first["status"] != "idle" {
		t.Errorf("expected idle status, got %v", first["status"])
	}
	if first["mediaKind"] != "image" {
		t.Errorf("expected image kind, got %v", first["mediaKind"])
	}
	if result["selectedId"] != first["id"] {
		t.Errorf("expected first item selected, got %v", result["selectedId"])
	}
}

func TestUpload_NoAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/assets/", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestUpload_OverBatchLimit(t *testing.T) {
	ta := setupApp(t) // cap is 5 in the test harness

	resp := uploadImages(t, ta, "a.png", "b.png", "c.png", "d.png", "e.png", "f.png")
	assertStatus(t, resp, http.StatusRequestEntityTooLarge)

	result := parseJSON(t, resp)
	errDetail, _ := result["error"].(map[string]interface{})
	if errDetail["code"] != "BATCH_LIMIT" {
		t.Errorf("expected BATCH_LIMIT code, got %v", errDetail["code"])
	}

	// Nothing may have been enqueued.
	listResp, _ := doAuthRequest(t, ta.app, http.MethodGet, "/api/assets/", "")
	listResult := parseJSON(t, listResp)
	items, _ := listResult["items"].([]interface{})
	if len(items) != 0 {
		t.Errorf("over-limit upload must enqueue nothing, got %d items", len(items))
	}
}

func TestPreview_ServesJPEG(t *testing.T) {
	ta := setupApp(t)
	id := firstItemID(t, uploadImages(t, ta, "photo.png"))

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/assets/"+id+"/preview", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", ct)
	}
	if body := readBody(t, resp); len(body) == 0 {
		t.Error("expected preview bytes")
	}
}

func TestRemove_ThenNotFound(t *testing.T) {
	ta := setupApp(t)
	id := firstItemID(t, uploadImages(t, ta, "photo.png"))

	resp, _ := doAuthRequest(t, ta.app, http.MethodDelete, "/api/assets/"+id, "")
	assertStatus(t, resp, http.StatusNoContent)

	resp, _ = doAuthRequest(t, ta.app, http.MethodDelete, "/api/assets/"+id, "")
	assertStatus(t, resp, http.StatusNotFound)
}

func TestClear_RequiresConfirm(t *testing.T) {
	ta := setupApp(t)
	uploadImages(t, ta, "photo.png")

	resp, _ := doAuthRequest(t, ta.app, http.MethodDelete, "/api/assets/", "")
	assertStatus(t, resp, http.StatusBadRequest)

	resp, _ = doAuthRequest(t, ta.app, http.MethodDelete, "/api/assets/?confirm=true", "")
	assertStatus(t, resp, http.StatusNoContent)

	listResp, _ := doAuthRequest(t, ta.app, http.MethodGet, "/api/assets/", "")
	items, _ := parseJSON(t, listResp)["items"].([]interface{})
	if len(items) != 0 {
		t.Errorf("expected empty store after clear, got %d items", len(items))
	}
}

func TestSelect_MovesFocus(t *testing.T) {
	ta := setupApp(t)
	resp := uploadImages(t, ta, "a.png", "b.png")
	result := parseJSON(t, resp)
	items, _ := result["items"].([]interface{})
	second := items[1].(map[string]interface{})["id"].(string)

	selResp, _ := doAuthRequest(t, ta.app, http.MethodPut, "/api/assets/"+second+"/select", "")
	assertStatus(t, selResp, http.StatusOK)
	if parseJSON(t, selResp)["selectedId"] != second {
		t.Error("expected selection moved to the second item")
	}
}
