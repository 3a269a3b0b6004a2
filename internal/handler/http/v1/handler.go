package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bonmwang/Ajali-Incident-App/internal/models"
	"github.com/bonmwang/Ajali-Incident-App/internal/service"
	"github.com/bonmwang/Ajali-Incident-App/internal/storage"
)

type Handler struct {
	incidentService service.IncidentService
	authService     service.AuthService
	tokens          service.TokenManager
	images          service.ImageStore
	logger          *logrus.Logger
	validate        *validator.Validate
}

func NewHandler(incidentService service.IncidentService, authService service.AuthService, tokens service.TokenManager, images service.ImageStore, logger *logrus.Logger) *Handler {
	return &Handler{
		incidentService: incidentService,
		authService:     authService,
		tokens:          tokens,
		images:          images,
		logger:          logger,
		validate:        validator.New(),
	}
}

// @Summary Register a new user
// @Description Create a new user account with a unique username.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body RegisterRequest true "Registration request"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} MessageResponse "Missing username or password"
// @Failure 409 {object} MessageResponse "Username already taken"
// @Failure 500 {object} MessageResponse "Internal server error"
// @Router /register [post]
func (h *Handler) register(c *gin.Context) {
	var input RegisterRequest
	log := h.logger.WithField("method", "register")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "Username and password are required."})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "Username and password are required."})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, models.ErrUserExists) {
			c.JSON(http.StatusConflict, MessageResponse{Message: "User already exists."})
			return
		}
		log.WithError(err).Error("Failed to register user in service")
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: "An error occurred during registration."})
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{Message: "User created successfully.", UserID: user.ID})
}

// @Summary Log in a user
// @Description Verify credentials and issue a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} MessageResponse "Missing username or password"
// @Failure 401 {object} MessageResponse "Invalid username or password"
// @Failure 500 {object} MessageResponse "Internal server error"
// @Router /login [post]
func (h *Handler) login(c *gin.Context) {
	var input LoginRequest
	log := h.logger.WithField("method", "login")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "Username and password are required."})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "Username and password are required."})
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, MessageResponse{Message: "Invalid username or password."})
			return
		}
		log.WithError(err).Error("Failed to log in user in service")
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: "An error occurred during login."})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Message:  "Login successful.",
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
	})
}

// @Summary Log out the current user
// @Description Revoke the session token carried by the request.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} MessageResponse "Missing or invalid token"
// @Failure 500 {object} MessageResponse "Internal server error"
// @Router /logout [post]
func (h *Handler) logout(c *gin.Context) {
	log := h.logger.WithField("method", "logout")

	token, ok := tokenFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: "Token is missing!"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		if errors.Is(err, models.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, MessageResponse{Message: "Token is invalid or expired!"})
			return
		}
		log.WithError(err).Error("Failed to log out in service")
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: "An error occurred during logout."})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Logout successful."})
}

// @Summary Create a new incident
// @Description Create a new incident report with an optional image attachment. Requires a session token.
// @Tags Incidents
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Incident title"
// @Param description formData string true "Incident description"
// @Param lat formData string true "Latitude"
// @Param long formData string true "Longitude"
// @Param created_at formData string false "Creation timestamp, RFC3339"
// @Param image formData file false "Image attachment"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} MessageResponse "Invalid form data"
// @Failure 401 {object} MessageResponse "Unauthorized"
// @Failure 413 {object} MessageResponse "Image too large"
// @Failure 415 {object} MessageResponse "Unsupported image type"
// @Failure 500 {object} MessageResponse "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	log := h.logger.WithField("method", "createIncident")

	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: "Token is missing!"})
		return
	}

	var input CreateIncidentForm
	if err := c.ShouldBind(&input); err != nil {
		log.WithError(err).Warn("Failed to bind form")
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "Missing required fields"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, MessageResponse{Message: err.Error()})
		return
	}

	model, err := FormToIncidentModel(userID, input)
	if err != nil {
		log.WithError(err).Warn("Failed to map form to model")
		c.JSON(http.StatusBadRequest, MessageResponse{Message: err.Error()})
		return
	}

	image, err := formImage(c)
	if err != nil {
		log.WithError(err).Warn("Failed to read image from form")
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "Invalid image upload."})
		return
	}
	if image != nil {
		defer image.Close()
	}

	if err := h.incidentService.CreateIncident(c.Request.Context(), model, image); err != nil {
		h.writeIncidentError(c, log, err, "An error occurred while creating the incident")
		return
	}

	c.JSON(http.StatusCreated, ModelToIncidentResponse(model))
}

// @Summary Get a list of incidents
// @Description Get all incidents, most recent first. Requires a session token.
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Success 200 {array} IncidentResponse
// @Failure 401 {object} MessageResponse "Unauthorized"
// @Failure 500 {object} MessageResponse "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")

	incidents, err := h.incidentService.ListIncidents(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from service")
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: "An error occurred while fetching incidents."})
		return
	}

	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get incident by ID
// @Description Get a single incident by its ID. Requires a session token.
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} MessageResponse "Invalid incident ID"
// @Failure 401 {object} MessageResponse "Unauthorized"
// @Failure 404 {object} MessageResponse "Incident not found"
// @Failure 500 {object} MessageResponse "Internal server error"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrIncidentNotFound) {
			c.JSON(http.StatusNotFound, MessageResponse{Message: "Incident not found."})
			return
		}
		log.WithError(err).Error("Failed to get incident from service")
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: "An error occurred while fetching the incident."})
		return
	}

	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Update an existing incident
// @Description Update any subset of incident fields and optionally replace the image. Only the owner may update. Requires a session token.
// @Tags Incidents
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Param title formData string false "Incident title"
// @Param description formData string false "Incident description"
// @Param lat formData string false "Latitude"
// @Param long formData string false "Longitude"
// @Param image formData file false "Replacement image"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} MessageResponse "Invalid incident ID or form data"
// @Failure 401 {object} MessageResponse "Unauthorized"
// @Failure 403 {object} MessageResponse "Not the incident owner"
// @Failure 404 {object} MessageResponse "Incident not found"
// @Failure 413 {object} MessageResponse "Image too large"
// @Failure 415 {object} MessageResponse "Unsupported image type"
// @Failure 500 {object} MessageResponse "Internal server error"
// @Router /incidents/{id} [put]
func (h *Handler) updateIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "updateIncident").WithField("id", id)

	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: "Token is missing!"})
		return
	}

	upd, err := formToIncidentUpdate(c, h.validate)
	if err != nil {
		log.WithError(err).Warn("Failed to map form to update")
		c.JSON(http.StatusBadRequest, MessageResponse{Message: err.Error()})
		return
	}

	image, err := formImage(c)
	if err != nil {
		log.WithError(err).Warn("Failed to read image from form")
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "Invalid image upload."})
		return
	}
	if image != nil {
		defer image.Close()
	}

	incident, err := h.incidentService.UpdateIncident(c.Request.Context(), userID, id, upd, image)
	if err != nil {
		if errors.Is(err, models.ErrNotOwner) {
			c.JSON(http.StatusForbidden, MessageResponse{Message: "You do not have permission to update this incident."})
			return
		}
		// Пустая форма проверяется в сервисе, после проверок существования и прав
		if errors.Is(err, models.ErrNoUpdateFields) {
			c.JSON(http.StatusBadRequest, MessageResponse{Message: "No fields provided for update."})
			return
		}
		h.writeIncidentError(c, log, err, "An error occurred while updating the incident")
		return
	}

	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Delete an incident
// @Description Permanently delete an incident and its image. Only the owner may delete. Requires a session token.
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} MessageResponse "Invalid incident ID"
// @Failure 401 {object} MessageResponse "Unauthorized"
// @Failure 403 {object} MessageResponse "Not the incident owner"
// @Failure 404 {object} MessageResponse "Incident not found"
// @Failure 500 {object} MessageResponse "Internal server error"
// @Router /incidents/{id} [delete]
func (h *Handler) deleteIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "deleteIncident").WithField("id", id)

	userID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: "Token is missing!"})
		return
	}

	if err := h.incidentService.DeleteIncident(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, models.ErrNotOwner) {
			c.JSON(http.StatusForbidden, MessageResponse{Message: "You do not have permission to delete this incident."})
			return
		}
		if errors.Is(err, models.ErrIncidentNotFound) {
			c.JSON(http.StatusNotFound, MessageResponse{Message: "Incident not found."})
			return
		}
		log.WithError(err).Error("Failed to delete incident in service")
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: "An error occurred while deleting the incident."})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Incident deleted successfully."})
}

// @Summary Serve an uploaded image
// @Description Serve an incident image file by its name.
// @Tags Uploads
// @Produce png
// @Param filename path string true "Image file name"
// @Success 200 {file} file
// @Failure 404 {object} MessageResponse "Image not found"
// @Router /uploads/{filename} [get]
func (h *Handler) serveImage(c *gin.Context) {
	path, err := h.images.Resolve(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, MessageResponse{Message: "Image not found."})
		return
	}
	c.File(path)
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /healthz [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeIncidentError переводит ошибки сервиса инцидентов в HTTP-статусы
func (h *Handler) writeIncidentError(c *gin.Context, log *logrus.Entry, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrIncidentNotFound):
		c.JSON(http.StatusNotFound, MessageResponse{Message: "Incident not found."})
	case errors.Is(err, storage.ErrUnsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, MessageResponse{Message: "Invalid file type."})
	case errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, MessageResponse{Message: "Image file is too large."})
	default:
		log.WithError(err).Error("Incident service call failed")
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: fallback + "."})
	}
}
