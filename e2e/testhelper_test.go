package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/stockmeta/api/internal/credit"
	"github.com/stockmeta/api/internal/gateway"
	"github.com/stockmeta/api/internal/handler"
	"github.com/stockmeta/api/internal/ingest"
	"github.com/stockmeta/api/internal/middleware"
	"github.com/stockmeta/api/internal/model"
	"github.com/stockmeta/api/internal/service"
)

const testJWTSecret = "test-secret-for-e2e"

// stubGateway answers every generation with canned metadata and accepts
// every key, so handler tests never reach a real provider.
type stubGateway struct{}

func (stubGateway) Generate(_ context.Context, _ model.Provider, _ []string, payload gateway.Payload, _ []string, _ model.CustomizationConfig, _ model.MediaKind) (model.Metadata, error) {
	return model.Metadata{
		Title:       "Generated title for " + payload.FileName,
		Description: "Generated description",
		Keywords:    []string{"stock", "test"},
		Category:    "19: Technology",
	}, nil
}

func (stubGateway) VerifyKey(context.Context, model.Provider, string) bool { return true }

// testApp holds all components needed for testing
type testApp struct {
	app      *fiber.App
	settings *service.SettingsService
	ledger   *credit.MemoryLedger
}

// setupApp creates a Fiber app wired like main.go but entirely in-memory:
// MemoryKV instead of redis, MemoryLedger, a stub gateway, and a synchronous
// dispatcher so queue runs finish before the start request returns.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	validate := validator.New()
	gw := stubGateway{}
	ledger := credit.NewMemoryLedger(50)
	kv := service.NewMemoryKV()

	ingestor := ingest.New(ingest.Options{
		MaxBatchSize: 5, // small cap so limit tests stay cheap
		MaxDimension: 100,
	})

	settingsService := service.NewSettingsService(kv, gw)
	profileService := service.NewProfileService(kv, ledger)
	sessionService := service.NewSessionService(gw, ledger, nil, settingsService, profileService,
		func(sess *service.Session) error {
			sess.Runner.Run(context.Background())
			return nil
		})

	assetHandler := handler.NewAssetHandler(sessionService, ingestor)
	metadataHandler := handler.NewMetadataHandler(sessionService, validate)
	queueHandler := handler.NewQueueHandler(sessionService)
	exportHandler := handler.NewExportHandler(sessionService, settingsService)
	settingsHandler := handler.NewSettingsHandler(settingsService, validate)
	profileHandler := handler.NewProfileHandler(profileService)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", authMiddleware.Authenticate())

	assets := api.Group("/assets")
	assets.Post("/", assetHandler.Upload)
	assets.Get("/", assetHandler.List)
	assets.Delete("/", assetHandler.Clear)
	assets.Get("/:id/preview", assetHandler.Preview)
	assets.Put("/:id/select", assetHandler.Select)
	assets.Delete("/:id", assetHandler.Remove)

	assets.Patch("/:id/metadata", metadataHandler.UpdateField)
	assets.Post("/:id/snapshot", metadataHandler.Snapshot)
	assets.Post("/:id/undo", metadataHandler.Undo)
	assets.Post("/:id/redo", metadataHandler.Redo)

	queue := api.Group("/queue")
	queue.Post("/start", queueHandler.Start)
	queue.Post("/stop", queueHandler.Stop)
	queue.Post("/regenerate/:id", queueHandler.Regenerate)
	queue.Get("/status", queueHandler.Status)

	export := api.Group("/export")
	export.Get("/standard", exportHandler.Standard)
	export.Get("/adobe", exportHandler.Adobe)
	export.Get("/xlsx", exportHandler.XLSX)

	api.Get("/settings", settingsHandler.Get)
	api.Put("/settings", settingsHandler.Put)
	api.Post("/settings/keys/verify", settingsHandler.VerifyKey)
	api.Get("/profile", profileHandler.Get)

	return &testApp{app: app, settings: settingsService, ledger: ledger}
}

// saveTestKey stores a credential for the default provider so queue runs
// pass the missing-key precondition.
func saveTestKey(t *testing.T, ta *testApp) {
	t.Helper()
	settings := model.DefaultSettings()
	settings.Keys[model.ProviderGemini] = []string{"AIza-test-key"}
	settings.AutoKeySwitch[model.ProviderGemini] = true
	if err := ta.settings.Save(context.Background(), "test-user-123", settings); err != nil {
		t.Fatalf("failed to save test settings: %v", err)
	}
}

// generateToken creates an HMAC JWT for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	claims := middleware.UserClaims{
		UserID: "test-user-123",
		Email:  "test@example.com",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// uploadImages posts count generated PNGs to the assets endpoint.
func uploadImages(t *testing.T, ta *testApp, names ...string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(testPNG(t)); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, "/api/assets/", &body)
	if err != nil {
		t.Fatalf("failed to build upload request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+generateToken(t))

	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("upload request failed: %v", err)
	}
	return resp
}

// testPNG returns a small valid PNG.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

// firstItemID extracts the first item id from an upload or list response.
func firstItemID(t *testing.T, resp *http.Response) string {
	t.Helper()
	result := parseJSON(t, resp)
	items, ok := result["items"].([]interface{})
	if !ok || len(items) == 0 {
		t.Fatalf("expected items in response, got %v", result)
	}
	first, ok := items[0].(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected item shape %v", items[0])
	}
	id, _ := first["id"].(string)
	if id == "" {
		t.Fatal("expected item id")
	}
	return id
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
