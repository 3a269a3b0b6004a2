package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bonmwang/Ajali-Incident-App/internal/models"
	"github.com/bonmwang/Ajali-Incident-App/internal/service/mocks"
	"github.com/bonmwang/Ajali-Incident-App/internal/storage"
)

const testToken = "test-session-token"

// handlerMocks объединяет мокированные зависимости Handler
type handlerMocks struct {
	incidents *mocks.MockIncidentService
	auth      *mocks.MockAuthService
	tokens    *mocks.MockTokenManager
	images    *mocks.MockImageStore
}

// newTestHandler создает новый экземпляр Handler с мокированными сервисами
func newTestHandler(t *testing.T) (handlerMocks, *gin.Engine) {
	ctrl := gomock.NewController(t)
	m := handlerMocks{
		incidents: mocks.NewMockIncidentService(ctrl),
		auth:      mocks.NewMockAuthService(ctrl),
		tokens:    mocks.NewMockTokenManager(ctrl),
		images:    mocks.NewMockImageStore(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	handler := NewHandler(m.incidents, m.auth, m.tokens, m.images, logger)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router.Group("/"))

	return m, router
}

// expectAuth настраивает успешную проверку токена для защищенных маршрутов
func expectAuth(m handlerMocks, userID uuid.UUID) {
	m.tokens.EXPECT().
		Verify(gomock.Any(), testToken).
		Return(&models.Claims{UserID: userID, Username: "alice"}, nil).
		Times(1)
}

func authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testToken}
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// multipartBody собирает multipart-форму с текстовыми полями и необязательным файлом
func multipartBody(t *testing.T, fields map[string]string, fileName string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestRegister_Success(t *testing.T) {
	m, router := newTestHandler(t)
	userID := uuid.New()

	m.auth.EXPECT().
		Register(gomock.Any(), "alice", "secret123").
		Return(&models.User{ID: userID, Username: "alice"}, nil).
		Times(1)

	w := makeRequest(router, "POST", "/register", bytes.NewBufferString(`{"username":"alice","password":"secret123"}`))

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp RegisterResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "User created successfully.", resp.Message)
	assert.Equal(t, userID, resp.UserID)
}

func TestRegister_MissingFields(t *testing.T) {
	m, router := newTestHandler(t)

	m.auth.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/register", bytes.NewBufferString(`{"username":"alice"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Username and password are required.")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	m, router := newTestHandler(t)
	serviceError := fmt.Errorf("service: could not create user: %w", models.ErrUserExists)

	m.auth.EXPECT().
		Register(gomock.Any(), "alice", "secret123").
		Return(nil, serviceError).
		Times(1)

	w := makeRequest(router, "POST", "/register", bytes.NewBufferString(`{"username":"alice","password":"secret123"}`))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "User already exists.")
}

func TestRegister_ServiceError(t *testing.T) {
	m, router := newTestHandler(t)
	serviceError := errors.New("database unavailable")

	m.auth.EXPECT().
		Register(gomock.Any(), "alice", "secret123").
		Return(nil, serviceError).
		Times(1)

	w := makeRequest(router, "POST", "/register", bytes.NewBufferString(`{"username":"alice","password":"secret123"}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "An error occurred during registration.")
}

func TestLogin_Success(t *testing.T) {
	m, router := newTestHandler(t)
	userID := uuid.New()

	m.auth.EXPECT().
		Login(gomock.Any(), "alice", "secret123").
		Return(&models.User{ID: userID, Username: "alice"}, testToken, nil).
		Times(1)

	w := makeRequest(router, "POST", "/login", bytes.NewBufferString(`{"username":"alice","password":"secret123"}`))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "Login successful.", resp.Message)
	assert.Equal(t, testToken, resp.Token)
	assert.Equal(t, userID, resp.UserID)
	assert.Equal(t, "alice", resp.Username)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	m, router := newTestHandler(t)
	serviceError := fmt.Errorf("service: %w", models.ErrInvalidCredentials)

	m.auth.EXPECT().
		Login(gomock.Any(), "alice", "wrong-password").
		Return(nil, "", serviceError).
		Times(1)

	w := makeRequest(router, "POST", "/login", bytes.NewBufferString(`{"username":"alice","password":"wrong-password"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password.")
}

func TestLogin_MissingFields(t *testing.T) {
	m, router := newTestHandler(t)

	m.auth.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/login", bytes.NewBufferString(`{"password":"secret123"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Username and password are required.")
}

func TestLogout_Success(t *testing.T) {
	m, router := newTestHandler(t)
	expectAuth(m, uuid.New())

	m.auth.EXPECT().Logout(gomock.Any(), testToken).Return(nil).Times(1)

	w := makeRequest(router, "POST", "/logout", nil, authHeaders())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logout successful.")
}

func TestLogout_MissingToken(t *testing.T) {
	m, router := newTestHandler(t)

	m.auth.EXPECT().Logout(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/logout", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token is missing!")
}

func TestLogout_RevokedToken(t *testing.T) {
	m, router := newTestHandler(t)
	expectAuth(m, uuid.New())

	// Токен прошел middleware, но к моменту отзыва уже недействителен
	serviceError := fmt.Errorf("service: could not revoke token: %w", models.ErrInvalidToken)
	m.auth.EXPECT().Logout(gomock.Any(), testToken).Return(serviceError).Times(1)

	w := makeRequest(router, "POST", "/logout", nil, authHeaders())

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token is invalid or expired!")
}

func TestCreateIncident_Success(t *testing.T) {
	m, router := newTestHandler(t)
	userID := uuid.New()
	incidentID := uuid.New()
	expectAuth(m, userID)

	m.incidents.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), gomock.Nil()).
		DoAndReturn(func(_ context.Context, inc *models.Incident, _ *models.ImageUpload) error {
			assert.Equal(t, "Pothole", inc.Title)
			assert.Equal(t, "Large pothole", inc.Description)
			assert.Equal(t, 1.234, inc.Lat)
			assert.Equal(t, 36.789, inc.Long)
			assert.Equal(t, userID, inc.OwnerID)
			inc.ID = incidentID
			inc.CreatedAt = time.Now().UTC()
			return nil
		}).Times(1)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Pothole",
		"description": "Large pothole",
		"lat":         "1.234",
		"long":        "36.789",
	}, "", nil)
	w := makeRequest(router, "POST", "/incidents", body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, incidentID, resp.IncidentID)
	assert.Equal(t, "Pothole", resp.Title)
	assert.Equal(t, userID, resp.OwnerID)
	assert.Nil(t, resp.ImageURL)
}

func TestCreateIncident_WithImage(t *testing.T) {
	m, router := newTestHandler(t)
	userID := uuid.New()
	imageContent := []byte("fake png bytes")
	imageURL := "/uploads/stored.png"
	expectAuth(m, userID)

	m.incidents.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Incident, image *models.ImageUpload) error {
			require.NotNil(t, image)
			assert.Equal(t, "photo.png", image.Filename)
			data, err := io.ReadAll(image.Reader)
			require.NoError(t, err)
			assert.Equal(t, imageContent, data)

			inc.ID = uuid.New()
			inc.ImageURL = &imageURL
			return nil
		}).Times(1)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Flood",
		"description": "Flooded road",
		"lat":         "-1.2921",
		"long":        "36.8219",
	}, "photo.png", imageContent)
	w := makeRequest(router, "POST", "/incidents", body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	require.NotNil(t, resp.ImageURL)
	assert.Equal(t, imageURL, *resp.ImageURL)
}

func TestCreateIncident_MissingFields(t *testing.T) {
	m, router := newTestHandler(t)
	expectAuth(m, uuid.New())

	m.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	body, contentType := multipartBody(t, map[string]string{"title": "Pothole"}, "", nil)
	w := makeRequest(router, "POST", "/incidents", body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error:Field validation for 'Description' failed on the 'required' tag")
}

func TestCreateIncident_InvalidCoordinates(t *testing.T) {
	m, router := newTestHandler(t)
	expectAuth(m, uuid.New())

	m.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Pothole",
		"description": "Large pothole",
		"lat":         "not-a-number",
		"long":        "36.789",
	}, "", nil)
	w := makeRequest(router, "POST", "/incidents", body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error:Field validation for 'Lat' failed on the 'latitude' tag")
}

func TestCreateIncident_NoToken(t *testing.T) {
	m, router := newTestHandler(t)

	// Запрос без токена не должен доходить до сервиса
	m.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Pothole",
		"description": "Large pothole",
		"lat":         "1.234",
		"long":        "36.789",
	}, "", nil)
	w := makeRequest(router, "POST", "/incidents", body, map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token is missing!")
}

func TestCreateIncident_UnsupportedImageType(t *testing.T) {
	m, router := newTestHandler(t)
	expectAuth(m, uuid.New())
	serviceError := fmt.Errorf("service: could not store image: %w", storage.ErrUnsupportedType)

	m.incidents.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(serviceError).
		Times(1)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Pothole",
		"description": "Large pothole",
		"lat":         "1.234",
		"long":        "36.789",
	}, "malware.exe", []byte("MZ"))
	w := makeRequest(router, "POST", "/incidents", body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid file type.")
}

func TestCreateIncident_ImageTooLarge(t *testing.T) {
	m, router := newTestHandler(t)
	expectAuth(m, uuid.New())
	serviceError := fmt.Errorf("service: could not store image: %w", storage.ErrTooLarge)

	m.incidents.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(serviceError).
		Times(1)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Pothole",
		"description": "Large pothole",
		"lat":         "1.234",
		"long":        "36.789",
	}, "huge.png", []byte("oversized"))
	w := makeRequest(router, "POST", "/incidents", body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "Image file is too large.")
}

func TestCreateIncident_ServiceError(t *testing.T) {
	m, router := newTestHandler(t)
	expectAuth(m, uuid.New())
	serviceError := errors.New("database unavailable")

	m.incidents.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(serviceError).
		Times(1)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Pothole",
		"description": "Large pothole",
		"lat":         "1.234",
		"long":        "36.789",
	}, "", nil)
	w := makeRequest(router, "POST", "/incidents", body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "An error occurred while creating the incident.")
}

func TestListIncidents_Success(t *testing.T) {
	m, router := newTestHandler(t)
	expectAuth(m, uuid.New())
	expectedIncidents := []*models.Incident{
		{ID: uuid.New(), Title: "Incident 1", OwnerID: uuid.New()},
		{ID: uuid.New(), Title: "Incident 2", OwnerID: uuid.New()},
	}

	m.incidents.EXPECT().ListIncidents(gomock.Any()).Return(expectedIncidents, nil).Times(1)

	w := makeRequest(router, "GET", "/incidents", nil, authHeaders())

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Len(t, resp, 2)
	assert.Equal(t, expectedIncidents[0].Title, resp[0].Title)
}

func TestListIncidents_NoToken(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().ListIncidents(gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "GET", "/incidents", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token is missing!")
}

func TestListIncidents_InvalidToken(t *testing.T) {
	m, router := newTestHandler(t)

	m.tokens.EXPECT().
		Verify(gomock.Any(), testToken).
		Return(nil, fmt.Errorf("%w: signature mismatch", models.ErrInvalidToken)).
		Times(1)
	m.incidents.EXPECT().ListIncidents(gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/incidents", nil, authHeaders())

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token is invalid or expired!")
}

func TestListIncidents_ServiceError(t *testing.T) {
	m, router := newTestHandler(t)
	expectAuth(m, uuid.New())
	serviceError := errors.New("failed to list incidents")

	m.incidents.EXPECT().ListIncidents(gomock.Any()).Return(nil, serviceError).Times(1)

	w := makeRequest(router, "GET", "/incidents", nil, authHeaders())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "An error occurred while fetching incidents.")
}

func TestGetIncident_Success(t *testing.T) {
	m, router := newTestHandler(t)
	incidentID := uuid.New()
	expectAuth(m, uuid.New())
	expectedIncident := &models.Incident{
		ID:          incidentID,
		Title:       "Retrieved Incident",
		Description: "Details",
		Lat:         30.0,
		Long:        40.0,
		OwnerID:     uuid.New(),
	}

	m.incidents.EXPECT().GetIncident(gomock.Any(), incidentID).Return(expectedIncident, nil).Times(1)

	w := makeRequest(router, "GET", fmt.Sprintf("/incidents/%s", incidentID.String()), nil, authHeaders())

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, incidentID, resp.IncidentID)
	assert.Equal(t, expectedIncident.Title, resp.Title)
}

func TestGetIncident_InvalidID(t *testing.T) {
	m, router := newTestHandler(t)
	expectAuth(m, uuid.New())

	m.incidents.EXPECT().GetIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "GET", "/incidents/invalid-uuid", nil, authHeaders())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestGetIncident_NotFound(t *testing.T) {
	m, router := newTestHandler(t)
	incidentID := uuid.New()
	expectAuth(m, uuid.New())
	serviceError := fmt.Errorf("service: could not get incident: %w", models.ErrIncidentNotFound)

	m.incidents.EXPECT().GetIncident(gomock.Any(), incidentID).Return(nil, serviceError).Times(1)

	w := makeRequest(router, "GET", fmt.Sprintf("/incidents/%s", incidentID.String()), nil, authHeaders())

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Incident not found.")
}

func TestUpdateIncident_Success(t *testing.T) {
	m, router := newTestHandler(t)
	userID := uuid.New()
	incidentID := uuid.New()
	expectAuth(m, userID)
	updatedIncident := &models.Incident{
		ID:          incidentID,
		Title:       "Pothole (fixed)",
		Description: "Large pothole",
		Lat:         1.234,
		Long:        36.789,
		OwnerID:     userID,
	}

	m.incidents.EXPECT().
		UpdateIncident(gomock.Any(), userID, incidentID, gomock.Any(), gomock.Nil()).
		DoAndReturn(func(_ context.Context, _, _ uuid.UUID, upd *models.IncidentUpdate, _ *models.ImageUpload) (*models.Incident, error) {
			require.NotNil(t, upd.Title)
			assert.Equal(t, "Pothole (fixed)", *upd.Title)
			assert.Nil(t, upd.Lat) // Остальные поля не заданы
			return updatedIncident, nil
		}).Times(1)

	body, contentType := multipartBody(t, map[string]string{"title": "Pothole (fixed)"}, "", nil)
	w := makeRequest(router, "PUT", fmt.Sprintf("/incidents/%s", incidentID.String()), body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "Pothole (fixed)", resp.Title)
	assert.Equal(t, 1.234, resp.Lat)
}

func TestUpdateIncident_NoFields(t *testing.T) {
	m, router := newTestHandler(t)
	userID := uuid.New()
	incidentID := uuid.New()
	expectAuth(m, userID)

	// Пустая форма доходит до сервиса: решение принимается после проверок существования и прав
	m.incidents.EXPECT().
		UpdateIncident(gomock.Any(), userID, incidentID, gomock.Any(), gomock.Nil()).
		DoAndReturn(func(_ context.Context, _, _ uuid.UUID, upd *models.IncidentUpdate, _ *models.ImageUpload) (*models.Incident, error) {
			assert.False(t, upd.HasChanges())
			return nil, models.ErrNoUpdateFields
		}).Times(1)

	body, contentType := multipartBody(t, map[string]string{}, "", nil)
	w := makeRequest(router, "PUT", fmt.Sprintf("/incidents/%s", incidentID.String()), body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No fields provided for update.")
}

func TestUpdateIncident_EmptyFormMissingIncident(t *testing.T) {
	m, router := newTestHandler(t)
	userID := uuid.New()
	incidentID := uuid.New()
	expectAuth(m, userID)
	serviceError := fmt.Errorf("service: %w", models.ErrIncidentNotFound)

	// Несуществующий инцидент дает 404 даже при пустой форме
	m.incidents.EXPECT().
		UpdateIncident(gomock.Any(), userID, incidentID, gomock.Any(), gomock.Nil()).
		Return(nil, serviceError).
		Times(1)

	body, contentType := multipartBody(t, map[string]string{}, "", nil)
	w := makeRequest(router, "PUT", fmt.Sprintf("/incidents/%s", incidentID.String()), body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Incident not found.")
}

func TestUpdateIncident_InvalidCoordinates(t *testing.T) {
	m, router := newTestHandler(t)
	incidentID := uuid.New()
	expectAuth(m, uuid.New())

	m.incidents.EXPECT().UpdateIncident(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	body, contentType := multipartBody(t, map[string]string{"lat": "not-a-number"}, "", nil)
	w := makeRequest(router, "PUT", fmt.Sprintf("/incidents/%s", incidentID.String()), body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid lat value")
}

func TestUpdateIncident_InvalidID(t *testing.T) {
	m, router := newTestHandler(t)
	expectAuth(m, uuid.New())

	m.incidents.EXPECT().UpdateIncident(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	body, contentType := multipartBody(t, map[string]string{"title": "Updated"}, "", nil)
	w := makeRequest(router, "PUT", "/incidents/invalid-uuid", body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestUpdateIncident_NotOwner(t *testing.T) {
	m, router := newTestHandler(t)
	userID := uuid.New()
	incidentID := uuid.New()
	expectAuth(m, userID)
	serviceError := fmt.Errorf("service: %w", models.ErrNotOwner)

	m.incidents.EXPECT().
		UpdateIncident(gomock.Any(), userID, incidentID, gomock.Any(), gomock.Any()).
		Return(nil, serviceError).
		Times(1)

	body, contentType := multipartBody(t, map[string]string{"title": "Hijacked"}, "", nil)
	w := makeRequest(router, "PUT", fmt.Sprintf("/incidents/%s", incidentID.String()), body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "You do not have permission to update this incident.")
}

func TestUpdateIncident_NotFound(t *testing.T) {
	m, router := newTestHandler(t)
	userID := uuid.New()
	incidentID := uuid.New()
	expectAuth(m, userID)
	serviceError := fmt.Errorf("service: %w", models.ErrIncidentNotFound)

	m.incidents.EXPECT().
		UpdateIncident(gomock.Any(), userID, incidentID, gomock.Any(), gomock.Any()).
		Return(nil, serviceError).
		Times(1)

	body, contentType := multipartBody(t, map[string]string{"title": "Updated"}, "", nil)
	w := makeRequest(router, "PUT", fmt.Sprintf("/incidents/%s", incidentID.String()), body, authHeaders(), map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Incident not found.")
}

func TestDeleteIncident_Success(t *testing.T) {
	m, router := newTestHandler(t)
	userID := uuid.New()
	incidentID := uuid.New()
	expectAuth(m, userID)

	m.incidents.EXPECT().DeleteIncident(gomock.Any(), userID, incidentID).Return(nil).Times(1)

	w := makeRequest(router, "DELETE", fmt.Sprintf("/incidents/%s", incidentID.String()), nil, authHeaders())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Incident deleted successfully.")
}

func TestDeleteIncident_InvalidID(t *testing.T) {
	m, router := newTestHandler(t)
	expectAuth(m, uuid.New())

	m.incidents.EXPECT().DeleteIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "DELETE", "/incidents/invalid-uuid", nil, authHeaders())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestDeleteIncident_NotOwner(t *testing.T) {
	m, router := newTestHandler(t)
	userID := uuid.New()
	incidentID := uuid.New()
	expectAuth(m, userID)
	serviceError := fmt.Errorf("service: %w", models.ErrNotOwner)

	m.incidents.EXPECT().DeleteIncident(gomock.Any(), userID, incidentID).Return(serviceError).Times(1)

	w := makeRequest(router, "DELETE", fmt.Sprintf("/incidents/%s", incidentID.String()), nil, authHeaders())

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "You do not have permission to delete this incident.")
}

func TestDeleteIncident_NotFound(t *testing.T) {
	m, router := newTestHandler(t)
	userID := uuid.New()
	incidentID := uuid.New()
	expectAuth(m, userID)
	serviceError := fmt.Errorf("service: %w", models.ErrIncidentNotFound)

	m.incidents.EXPECT().DeleteIncident(gomock.Any(), userID, incidentID).Return(serviceError).Times(1)

	w := makeRequest(router, "DELETE", fmt.Sprintf("/incidents/%s", incidentID.String()), nil, authHeaders())

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Incident not found.")
}

func TestServeImage_Success(t *testing.T) {
	m, router := newTestHandler(t)

	// Раздаем настоящий файл из временного каталога
	dir := t.TempDir()
	path := filepath.Join(dir, "stored.png")
	content := []byte("png payload")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	m.images.EXPECT().Resolve("stored.png").Return(path, nil).Times(1)

	w := makeRequest(router, "GET", "/uploads/stored.png", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
}

func TestServeImage_NotFound(t *testing.T) {
	m, router := newTestHandler(t)

	m.images.EXPECT().Resolve("missing.png").Return("", storage.ErrNotFound).Times(1)

	w := makeRequest(router, "GET", "/uploads/missing.png", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Image not found.")
}

func TestHealthCheck_Success(t *testing.T) {
	_, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestAuthMiddleware_Success(t *testing.T) {
	// Создаем Gin-роутер и добавляем middleware
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	ctrl := gomock.NewController(t)
	mockTokens := mocks.NewMockTokenManager(ctrl)
	userID := uuid.New()

	mockTokens.EXPECT().
		Verify(gomock.Any(), "valid-token").
		Return(&models.Claims{UserID: userID, Username: "alice"}, nil).
		Times(1)

	router.Use(AuthMiddleware(mockTokens, logger))
	router.GET("/test", func(c *gin.Context) {
		id, ok := userIDFromContext(c)
		require.True(t, ok)
		assert.Equal(t, userID, id)

		token, ok := tokenFromContext(c)
		require.True(t, ok)
		assert.Equal(t, "valid-token", token)

		c.Status(http.StatusOK)
	})

	w := makeRequest(router, "GET", "/test", nil, map[string]string{"Authorization": "Bearer valid-token"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	ctrl := gomock.NewController(t)
	mockTokens := mocks.NewMockTokenManager(ctrl)
	mockTokens.EXPECT().Verify(gomock.Any(), gomock.Any()).Times(0)

	router.Use(AuthMiddleware(mockTokens, logger))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := makeRequest(router, "GET", "/test", nil) // Нет заголовка Authorization
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token is missing!")
}

func TestAuthMiddleware_WrongScheme(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	ctrl := gomock.NewController(t)
	mockTokens := mocks.NewMockTokenManager(ctrl)
	mockTokens.EXPECT().Verify(gomock.Any(), gomock.Any()).Times(0)

	router.Use(AuthMiddleware(mockTokens, logger))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := makeRequest(router, "GET", "/test", nil, map[string]string{"Authorization": "Basic dXNlcjpwYXNz"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token is missing!")
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	ctrl := gomock.NewController(t)
	mockTokens := mocks.NewMockTokenManager(ctrl)
	mockTokens.EXPECT().
		Verify(gomock.Any(), "expired-token").
		Return(nil, fmt.Errorf("%w: token is expired", models.ErrInvalidToken)).
		Times(1)

	router.Use(AuthMiddleware(mockTokens, logger))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := makeRequest(router, "GET", "/test", nil, map[string]string{"Authorization": "Bearer expired-token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token is invalid or expired!")
}
