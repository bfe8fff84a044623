package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"warroom-server/internal/domain"
	"warroom-server/internal/service"
	"warroom-server/internal/storage"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	accounts   service.AccountService
	content    service.ContentService
	uploader   storage.Service
	jwtSecret  string
	tokenTTL   time.Duration
	paymentURL string
	log        *logrus.Logger
}

func NewHandler(accounts service.AccountService, content service.ContentService, uploader storage.Service, jwtSecret string, tokenTTL time.Duration, paymentURL string, log *logrus.Logger) *Handler {
	return &Handler{
		accounts:   accounts,
		content:    content,
		uploader:   uploader,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		paymentURL: paymentURL,
		log:        log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(h.requestLogger())

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		member := api.Group("", h.authMiddleware())
		{
			member.GET("/subscription", h.subscription)
			member.GET("/posts", h.listPosts)
			member.GET("/live", h.liveTable)
		}

		admin := api.Group("/admin", h.authMiddleware(), h.adminMiddleware())
		{
			admin.GET("/members", h.listMembers)
			admin.POST("/members/:username/extend", h.extendMember)
			admin.POST("/posts", h.publishPost)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		h.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Info("request")
	}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.accounts.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrDuplicateUsername):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		// Registration is the one path that carries the transport
		// failure text to the user.
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, gin.H{"message": "registered, please log in"})
	}
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	token, err := h.mintToken(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	membership := h.accounts.CheckSubscription(c.Request.Context(), id.Username)
	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"username": id.Username,
		"admin":    id.Admin,
		"active":   membership.Active,
		"label":    membership.Label,
	})
}

func (h *Handler) subscription(c *gin.Context) {
	id := identityFrom(c)
	membership := h.accounts.CheckSubscription(c.Request.Context(), id.Username)

	resp := gin.H{
		"username": id.Username,
		"active":   membership.Active,
		"label":    membership.Label,
	}
	if !membership.Active {
		resp["payment_url"] = h.paymentURL
	}
	c.JSON(http.StatusOK, resp)
}

// listPosts serves the full feed to active members and the locked
// preview list (date and title only) plus the payment link to everyone
// else.
func (h *Handler) listPosts(c *gin.Context) {
	id := identityFrom(c)
	membership := h.accounts.CheckSubscription(c.Request.Context(), id.Username)

	if !membership.Active {
		previews := h.content.ListPostPreviews(c.Request.Context())
		resp := make([]PreviewResponse, len(previews))
		for i, p := range previews {
			resp[i] = PreviewResponse{Date: p.Date, Title: p.Title}
		}
		c.JSON(http.StatusOK, gin.H{
			"locked":      true,
			"previews":    resp,
			"payment_url": h.paymentURL,
		})
		return
	}

	posts := h.content.ListPosts(c.Request.Context())
	resp := make([]PostResponse, len(posts))
	for i, p := range posts {
		resp[i] = postToResponse(p)
	}
	c.JSON(http.StatusOK, gin.H{"posts": resp})
}

func (h *Handler) liveTable(c *gin.Context) {
	id := identityFrom(c)
	if membership := h.accounts.CheckSubscription(c.Request.Context(), id.Username); !membership.Active {
		c.JSON(http.StatusForbidden, gin.H{"error": "subscription required", "payment_url": h.paymentURL})
		return
	}

	table := h.content.LiveTable(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"headers":    table.Headers,
		"rows":       table.Rows,
		"fetched_at": table.FetchedAt,
		"empty":      table.Empty(),
	})
}

func (h *Handler) listMembers(c *gin.Context) {
	users := h.accounts.ListUsers(c.Request.Context())
	members := make([]MemberResponse, len(users))
	for i, u := range users {
		members[i] = MemberResponse{Username: u.Username, Expiry: u.Expiry}
	}
	c.JSON(http.StatusOK, gin.H{
		"members":      members,
		"active_count": h.accounts.CountActive(c.Request.Context()),
	})
}

type extendRequest struct {
	Days int `json:"days" binding:"required"`
}

func (h *Handler) extendMember(c *gin.Context) {
	var req extendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	username := c.Param("username")
	err := h.accounts.Extend(c.Request.Context(), username, req.Days)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no such member"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "extended", "username": username, "days": req.Days})
	}
}

// publishPost accepts a multipart form with title, content and optional
// image files. Images are resolved to hosted URLs before the post is
// published; an image whose upload fails is dropped, it never blocks the
// post itself.
func (h *Handler) publishPost(c *gin.Context) {
	title := c.PostForm("title")
	content := c.PostForm("content")

	var imageURLs []string
	form, err := c.MultipartForm()
	if err == nil && form != nil && h.uploader != nil {
		for _, file := range form.File["images"] {
			if url := h.uploadImage(c, file); url != "" {
				imageURLs = append(imageURLs, url)
			}
		}
	}

	err = h.content.Publish(c.Request.Context(), title, content, imageURLs)
	switch {
	case errors.Is(err, service.ErrEmptyTitle):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "publish failed"})
	default:
		c.JSON(http.StatusCreated, gin.H{"message": "published", "images": len(imageURLs)})
	}
}

func (h *Handler) uploadImage(c *gin.Context, file *multipart.FileHeader) string {
	f, err := file.Open()
	if err != nil {
		h.log.WithError(err).Warn("open uploaded image failed")
		return ""
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		h.log.WithError(err).Warn("read uploaded image failed")
		return ""
	}

	url, err := h.uploader.Upload(c.Request.Context(), file.Filename, content)
	if err != nil {
		h.log.WithError(err).WithField("filename", file.Filename).Warn("image upload failed, dropping image")
		return ""
	}
	return url
}

// PostResponse is the wire form of a published post.
type PostResponse struct {
	Date    string   `json:"date"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

// PreviewResponse is the locked teaser entry: no content, no images.
type PreviewResponse struct {
	Date  string `json:"date"`
	Title string `json:"title"`
}

type MemberResponse struct {
	Username string `json:"username"`
	Expiry   string `json:"expiry"`
}

func postToResponse(p domain.Post) PostResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return PostResponse{
		Date:    p.Date,
		Title:   p.Title,
		Content: p.Content,
		Images:  images,
	}
}
